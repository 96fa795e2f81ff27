package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/response"
)

// handleDirectoryError 站点 / 人员 / 班次目录的业务错误
func handleDirectoryError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSiteNotFound),
		errors.Is(err, service.ErrWorkerNotFound),
		errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, response.CodeNotFound, err.Error())
	case errors.Is(err, service.ErrSiteCodeTaken),
		errors.Is(err, service.ErrWorkerCodeTaken),
		errors.Is(err, service.ErrShiftCodeTaken):
		response.Conflict(c, response.CodeConflict, err.Error())
	default:
		response.InternalError(c)
	}
}

// ════════════════════════════════════════════════════════════
// 站点
// ════════════════════════════════════════════════════════════

// SiteHandler 站点 HTTP 处理器
type SiteHandler struct {
	siteSvc service.SiteService
}

// NewSiteHandler 创建 SiteHandler
func NewSiteHandler(siteSvc service.SiteService) *SiteHandler {
	return &SiteHandler{siteSvc: siteSvc}
}

// ListSites 站点列表
// GET /api/v1/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	var req dto.DirectoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	sites, total, err := h.siteSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, sites, total, req.GetPage(), req.GetPageSize())
}

// GetSite 站点详情
// GET /api/v1/sites/:id
func (h *SiteHandler) GetSite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	site, err := h.siteSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, site)
}

// CreateSite 创建站点
// POST /api/v1/sites
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req dto.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	site, err := h.siteSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.Created(c, site)
}

// UpdateSite 更新站点
// PUT /api/v1/sites/:id
func (h *SiteHandler) UpdateSite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	site, err := h.siteSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, site)
}

// DeleteSite 删除站点
// DELETE /api/v1/sites/:id
func (h *SiteHandler) DeleteSite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.siteSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, nil)
}

// ════════════════════════════════════════════════════════════
// 班次
// ════════════════════════════════════════════════════════════

// ShiftHandler 班次 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ListShifts 班次列表
// GET /api/v1/shifts?include_inactive=
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	shifts, err := h.shiftSvc.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// CreateShift 创建班次
// POST /api/v1/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.Created(c, shift)
}

// UpdateShift 更新班次
// PUT /api/v1/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteShift 删除班次
// DELETE /api/v1/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), id); err != nil {
		handleDirectoryError(c, err)
		return
	}

	response.OK(c, nil)
}
