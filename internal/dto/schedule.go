package dto

import "github.com/S9ine/demo-app-s9-project/internal/model"

// ── 排班模块 DTO ──

// CreateScheduleRequest 创建排班请求
// 同一站点同一天已存在停用排班时会被重新启用
type CreateScheduleRequest struct {
	ScheduleDate string             `json:"schedule_date" binding:"required"` // YYYY-MM-DD
	SiteID       uint               `json:"site_id"       binding:"required"`
	SiteName     string             `json:"site_name"     binding:"omitempty,max=200"`
	Shifts       model.ShiftPayload `json:"shifts"`
	Remarks      string             `json:"remarks"       binding:"omitempty,max=2000"`
}

// UpdateScheduleRequest 更新排班请求，仅处理非空字段
// Version 非空时启用乐观锁
type UpdateScheduleRequest struct {
	Shifts   *model.ShiftPayload `json:"shifts"`
	Remarks  *string             `json:"remarks"   binding:"omitempty,max=2000"`
	IsActive *bool               `json:"is_active"`
	Version  *int                `json:"version"   binding:"omitempty,min=1"`
}

// ScheduleListRequest 排班列表查询参数
type ScheduleListRequest struct {
	Start    string `form:"start"`
	End      string `form:"end"`
	SiteID   *uint  `form:"site_id"`
	IsActive *bool  `form:"is_active"`
}

// ── 响应 ──

// ScheduleResponse 排班详情
type ScheduleResponse struct {
	ID           uint               `json:"id"`
	ScheduleDate string             `json:"schedule_date"`
	SiteID       uint               `json:"site_id"`
	SiteName     string             `json:"site_name"`
	Shifts       model.ShiftPayload `json:"shifts"`
	ShiftCounts  map[string]int     `json:"shift_counts"`
	TotalWorkers int                `json:"total_workers"`
	IsActive     bool               `json:"is_active"`
	Remarks      string             `json:"remarks,omitempty"`
	Version      int                `json:"version"`
	CreatedBy    string             `json:"created_by,omitempty"`
	UpdatedBy    string             `json:"updated_by,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

// ScheduleListItem 排班列表项（不含人员明细）
type ScheduleListItem struct {
	ID           uint           `json:"id"`
	ScheduleDate string         `json:"schedule_date"`
	SiteID       uint           `json:"site_id"`
	SiteName     string         `json:"site_name"`
	ShiftCounts  map[string]int `json:"shift_counts"`
	TotalWorkers int            `json:"total_workers"`
	IsActive     bool           `json:"is_active"`
}

// CreateScheduleResult 创建结果，Result 为 created | reactivated
type CreateScheduleResult struct {
	ID       uint              `json:"id"`
	Result   string            `json:"result"`
	Schedule *ScheduleResponse `json:"schedule"`
}

// ScheduleByDateEntry 按日期查询时单个站点的排班
type ScheduleByDateEntry struct {
	ScheduleID uint               `json:"schedule_id"`
	SiteID     uint               `json:"site_id"`
	SiteName   string             `json:"site_name"`
	Shifts     model.ShiftPayload `json:"shifts"`
}

// SchedulesByDateResponse 某一天全部站点的排班，key 为站点 ID
type SchedulesByDateResponse struct {
	Date  string                       `json:"date"`
	Sites map[uint]ScheduleByDateEntry `json:"sites"`
}

// ── 投影 / 回填 ──

// ResyncRequest 投影重建请求
type ResyncRequest struct {
	IncludeInactive bool `json:"include_inactive"`
}

// BackfillResult 回填结果
type BackfillResult struct {
	Processed  int    `json:"processed"`
	SyncedRows int    `json:"synced_rows"`
	Failed     []uint `json:"failed"`
}

// SyncGapItem 投影行数与排班人数不一致的排班
type SyncGapItem struct {
	ScheduleID   uint `json:"schedule_id"`
	TotalWorkers int  `json:"total_workers"`
	RowCount     int  `json:"row_count"`
}

// SyncStatusResponse 投影同步状态
type SyncStatusResponse struct {
	InSync    bool          `json:"in_sync"`
	OutOfSync int           `json:"out_of_sync"`
	Schedules []SyncGapItem `json:"schedules"`
}
