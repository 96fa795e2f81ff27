package dto

// ── 站点 ──

// CreateSiteRequest 创建站点请求
type CreateSiteRequest struct {
	SiteCode     string `json:"site_code"     binding:"required,max=50"`
	Name         string `json:"name"          binding:"required,min=2,max=200"`
	CustomerCode string `json:"customer_code" binding:"omitempty,max=50"`
	Address      string `json:"address"       binding:"omitempty,max=500"`
}

// UpdateSiteRequest 更新站点请求
type UpdateSiteRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=200"`
	CustomerCode *string `json:"customer_code" binding:"omitempty,max=50"`
	Address      *string `json:"address"       binding:"omitempty,max=500"`
	IsActive     *bool   `json:"is_active"`
}

// SiteResponse 站点信息
type SiteResponse struct {
	ID           uint   `json:"id"`
	SiteCode     string `json:"site_code"`
	Name         string `json:"name"`
	CustomerCode string `json:"customer_code,omitempty"`
	Address      string `json:"address,omitempty"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ── 人员 ──

// CreateWorkerRequest 创建人员请求
type CreateWorkerRequest struct {
	WorkerCode    string `json:"worker_code"     binding:"required,max=50"`
	FirstName     string `json:"first_name"      binding:"required,max=100"`
	LastName      string `json:"last_name"       binding:"omitempty,max=100"`
	Phone         string `json:"phone"           binding:"omitempty,max=30"`
	BankCode      string `json:"bank_code"       binding:"omitempty,max=20"`
	BankAccountNo string `json:"bank_account_no" binding:"omitempty,max=50"`
}

// UpdateWorkerRequest 更新人员请求
type UpdateWorkerRequest struct {
	FirstName     *string `json:"first_name"      binding:"omitempty,max=100"`
	LastName      *string `json:"last_name"       binding:"omitempty,max=100"`
	Phone         *string `json:"phone"           binding:"omitempty,max=30"`
	BankCode      *string `json:"bank_code"       binding:"omitempty,max=20"`
	BankAccountNo *string `json:"bank_account_no" binding:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
}

// WorkerResponse 人员信息
type WorkerResponse struct {
	ID            uint   `json:"id"`
	WorkerCode    string `json:"worker_code"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
	BankAccountNo string `json:"bank_account_no,omitempty"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// DirectoryListRequest 站点 / 人员列表查询参数
type DirectoryListRequest struct {
	Keyword         string `form:"keyword"`
	IncludeInactive bool   `form:"include_inactive"`
	PaginationRequest
}

// ── 班次 ──

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	Code      string `json:"code"       binding:"required,max=50"`
	Name      string `json:"name"       binding:"required,max=100"`
	StartTime string `json:"start_time" binding:"omitempty,len=5"`
	EndTime   string `json:"end_time"   binding:"omitempty,len=5"`
}

// UpdateShiftRequest 更新班次请求
type UpdateShiftRequest struct {
	Name      *string `json:"name"       binding:"omitempty,max=100"`
	StartTime *string `json:"start_time" binding:"omitempty,len=5"`
	EndTime   *string `json:"end_time"   binding:"omitempty,len=5"`
	IsActive  *bool   `json:"is_active"`
}

// ShiftResponse 班次信息
type ShiftResponse struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	IsActive  bool   `json:"is_active"`
}
