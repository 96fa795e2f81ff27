package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/service"
)

// ClientIP 将客户端 IP 写入请求 ctx，供审计日志读取
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(service.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
