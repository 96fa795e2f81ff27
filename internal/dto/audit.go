package dto

import "encoding/json"

// AuditLogListRequest 审计日志查询参数
type AuditLogListRequest struct {
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	UserID     string `form:"user_id"`
	PaginationRequest
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	ID            uint            `json:"id"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	UserID        string          `json:"user_id,omitempty"`
	Before        json.RawMessage `json:"before,omitempty"`
	After         json.RawMessage `json:"after,omitempty"`
	ChangedFields []string        `json:"changed_fields"`
	IPAddress     string          `json:"ip_address,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// PayrollExportRequest 薪资明细导出参数
type PayrollExportRequest struct {
	Start  string `form:"start"   binding:"required"`
	End    string `form:"end"     binding:"required"`
	SiteID *uint  `form:"site_id"`
}
