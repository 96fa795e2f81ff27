package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 只作用于带请求体的写操作；排班 payload 超限时返回 413 并附上限值
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.ErrorWithDetails(c, http.StatusRequestEntityTooLarge, response.CodePayloadTooLarge,
				"请求体过大", gin.H{"limit_bytes": maxBytes})
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
