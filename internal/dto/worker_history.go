package dto

// ── 人员工作记录 DTO ──

// WorkerHistoryRequest 工作记录查询参数
type WorkerHistoryRequest struct {
	Start           string `form:"start"`
	End             string `form:"end"`
	IncludeInactive bool   `form:"include_inactive"`
}

// WorkerSummaryRequest 工作汇总查询参数
type WorkerSummaryRequest struct {
	Start           string `form:"start"`
	End             string `form:"end"`
	IncomeField     string `form:"income_field"`
	Top             int    `form:"top" binding:"omitempty,min=1,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
}

// WorkDayEntry 单个 (日期, 班次) 的工作记录
type WorkDayEntry struct {
	Date              string  `json:"date"`
	ScheduleID        uint    `json:"schedule_id"`
	SiteID            uint    `json:"site_id"`
	SiteName          string  `json:"site_name"`
	Shift             string  `json:"shift"`
	Position          string  `json:"position"`
	DailyIncome       float64 `json:"daily_income"`
	PayoutRate        float64 `json:"payout_rate"`
	HiringRate        float64 `json:"hiring_rate"`
	PositionAllowance float64 `json:"position_allowance"`
	DiligenceBonus    float64 `json:"diligence_bonus"`
	SevenDayBonus     float64 `json:"seven_day_bonus"`
	PointBonus        float64 `json:"point_bonus"`
	OtherAllowance    float64 `json:"other_allowance"`
	TotalIncome       float64 `json:"total_income"`
}

// SiteWorkDays 站点出勤天数
type SiteWorkDays struct {
	SiteID   uint   `json:"site_id"`
	SiteName string `json:"site_name"`
	WorkDays int    `json:"work_days"`
}

// WorkerSummaryResponse 工作汇总
type WorkerSummaryResponse struct {
	WorkerID      uint           `json:"worker_id"`
	TotalWorkDays int            `json:"total_work_days"`
	IncomeField   string         `json:"income_field"`
	TotalIncome   float64        `json:"total_income"`
	ShiftCounts   map[string]int `json:"shift_counts"`
	TopSites      []SiteWorkDays `json:"top_sites"`
}

// WorkerHistoryResponse 工作记录
type WorkerHistoryResponse struct {
	WorkerID   uint                  `json:"worker_id"`
	WorkerCode string                `json:"worker_code"`
	WorkerName string                `json:"worker_name"`
	WorkDays   []WorkDayEntry        `json:"work_days"`
	Summary    WorkerSummaryResponse `json:"summary"`
}
