package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/api/middleware"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxRole)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// tokenInfo 当前 access token 的 JTI 与剩余有效期
func tokenInfo(c *gin.Context) (string, time.Duration) {
	jti, _ := c.Get(middleware.CtxTokenJTI)
	ttl, _ := c.Get(middleware.CtxTokenTTL)
	s, _ := jti.(string)
	d, _ := ttl.(time.Duration)
	return s, d
}

// parseIDParam 解析路径中的数字 ID，非法时写入 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "参数校验失败",
			[]service.FieldError{{Field: name, Reason: "必须为正整数"}})
		return 0, false
	}
	return uint(id), true
}

// bindFailed 请求体 / 查询参数绑定失败
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "参数校验失败", err.Error())
}

// respondValidation 若 err 为 *service.ValidationError 则写入 400 并返回 true
func respondValidation(c *gin.Context, err error) bool {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "参数校验失败", vErr.Fields)
		return true
	}
	return false
}
