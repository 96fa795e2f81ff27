package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/jwt"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Refresh 使用 refresh token 换发 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 用户登出，当前 access token 加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, ttl := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, ttl); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Me 当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, response.CodeUnauthorized, "用户名或密码错误")
	case errors.Is(err, jwt.ErrTokenExpired):
		response.Unauthorized(c, response.CodeTokenExpired, "Token 已过期")
	case errors.Is(err, jwt.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrNotRefreshToken):
		response.Unauthorized(c, response.CodeUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, response.CodeNotFound, "用户不存在")
	default:
		response.InternalError(c)
	}
}
