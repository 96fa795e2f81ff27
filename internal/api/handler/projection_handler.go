package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// ProjectionHandler 投影维护 HTTP 处理器（仅管理员）
type ProjectionHandler struct {
	projectionSvc service.ProjectionService
}

// NewProjectionHandler 创建 ProjectionHandler
func NewProjectionHandler(projectionSvc service.ProjectionService) *ProjectionHandler {
	return &ProjectionHandler{projectionSvc: projectionSvc}
}

// Resync 按排班 payload 重建投影表
// POST /api/v1/admin/projection/resync
// 请求体可省略，默认只处理启用中的排班
func (h *ProjectionHandler) Resync(c *gin.Context) {
	var req dto.ResyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	result, err := h.projectionSvc.Backfill(c.Request.Context(), service.BackfillOptions{
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Status 投影与 payload 的一致性检查
// GET /api/v1/admin/projection/status?include_inactive=
func (h *ProjectionHandler) Status(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	status, err := h.projectionSvc.SyncStatus(c.Request.Context(), includeInactive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, status)
}
