package model

// Shift 班次目录 — 对应 shifts
// 排班 payload 中的班次代码必须存在且启用
type Shift struct {
	ShiftID   uint   `gorm:"primaryKey;autoIncrement"                json:"shift_id"`
	Code      string `gorm:"type:varchar(50);not null;uniqueIndex"   json:"code"`
	Name      string `gorm:"type:varchar(100);not null"              json:"name"`
	StartTime string `gorm:"type:varchar(5)"                         json:"start_time,omitempty"` // HH:MM
	EndTime   string `gorm:"type:varchar(5)"                         json:"end_time,omitempty"`
	IsActive  bool   `gorm:"not null"                                json:"is_active"`
	BaseModel
}

func (Shift) TableName() string { return "shifts" }
