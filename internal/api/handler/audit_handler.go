package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志列表
// GET /api/v1/audit-logs?entity_type=&entity_id=&page=&page_size=
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	logs, total, err := h.auditSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}
