package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// WorkerHandler 人员目录与工作记录 HTTP 处理器
type WorkerHandler struct {
	workerSvc  service.WorkerService
	historySvc service.WorkerHistoryService
}

// NewWorkerHandler 创建 WorkerHandler
func NewWorkerHandler(workerSvc service.WorkerService, historySvc service.WorkerHistoryService) *WorkerHandler {
	return &WorkerHandler{workerSvc: workerSvc, historySvc: historySvc}
}

// ── 目录 ──

// ListWorkers 人员列表
// GET /api/v1/workers
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	var req dto.DirectoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	workers, total, err := h.workerSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, workers, total, req.GetPage(), req.GetPageSize())
}

// GetWorker 人员详情
// GET /api/v1/workers/:id
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	worker, err := h.workerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, worker)
}

// CreateWorker 创建人员
// POST /api/v1/workers
func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req dto.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	worker, err := h.workerSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.Created(c, worker)
}

// UpdateWorker 更新人员
// PUT /api/v1/workers/:id
func (h *WorkerHandler) UpdateWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	worker, err := h.workerSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, worker)
}

// DeleteWorker 删除人员，历史投影行保留
// DELETE /api/v1/workers/:id
func (h *WorkerHandler) DeleteWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.workerSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 工作记录 ──

// History 人员工作记录
// GET /api/v1/workers/:id/history?start=&end=&include_inactive=
func (h *WorkerHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.WorkerHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.historySvc.History(c.Request.Context(), id, &req)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, result)
}

// Summary 人员工作汇总
// GET /api/v1/workers/:id/summary?start=&end=&income_field=&top=
func (h *WorkerHandler) Summary(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.WorkerSummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.historySvc.Summary(c.Request.Context(), id, &req)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, result)
}
