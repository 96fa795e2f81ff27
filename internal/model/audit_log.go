package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 操作审计 — 对应 audit_logs
type AuditLog struct {
	AuditLogID    uint                        `gorm:"primaryKey;autoIncrement"                             json:"audit_log_id"`
	Action        string                      `gorm:"type:varchar(20);not null"                            json:"action"` // create | reactivate | update | deactivate | delete
	EntityType    string                      `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID      string                      `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:2" json:"entity_id"`
	UserID        string                      `gorm:"type:varchar(36)"                                     json:"user_id,omitempty"`
	Before        datatypes.JSON              `json:"before,omitempty"`
	After         datatypes.JSON              `json:"after,omitempty"`
	ChangedFields datatypes.JSONType[[]string] `json:"changed_fields"`
	IPAddress     string                      `gorm:"type:varchar(64)"                                     json:"ip_address,omitempty"`
	RequestID     string                      `gorm:"type:varchar(64)"                                     json:"request_id,omitempty"`
	CreatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP;index"             json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
