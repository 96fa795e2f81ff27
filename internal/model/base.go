package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(36)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(36)"                   json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段（目录类数据使用）
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"            json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:varchar(36)" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的审计模型
// 排班的停用通过 is_active 表达，因此不嵌入 DeletedAt
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// AllModels 返回需要建表的全部模型（sqlite AutoMigrate / 测试使用）
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Shift{},
		&Site{},
		&Worker{},
		&Schedule{},
		&ScheduleWorker{},
		&AuditLog{},
	}
}
