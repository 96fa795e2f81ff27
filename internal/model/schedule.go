package model

import (
	"time"

	"gorm.io/datatypes"
)

// Schedule 排班表 — 对应 schedules
// (schedule_date, site_id) 全局唯一；停用后再次创建复用同一行
type Schedule struct {
	ScheduleID   uint                               `gorm:"primaryKey;autoIncrement"                                 json:"schedule_id"`
	ScheduleDate datatypes.Date                     `gorm:"not null;uniqueIndex:uk_schedules_date_site,priority:1"   json:"schedule_date"`
	SiteID       uint                               `gorm:"not null;uniqueIndex:uk_schedules_date_site,priority:2"   json:"site_id"`
	SiteName     string                             `gorm:"type:varchar(200);not null"                               json:"site_name"`
	Shifts       datatypes.JSONType[ShiftPayload]   `gorm:"not null"                                                 json:"shifts"`
	ShiftCounts  datatypes.JSONType[map[string]int] `gorm:"not null"                                                 json:"shift_counts"`
	TotalWorkers int                                `gorm:"not null;default:0"                                       json:"total_workers"`
	IsActive     bool                               `gorm:"not null;index"                                           json:"is_active"`
	Remarks      string                             `gorm:"type:text"                                                json:"remarks,omitempty"`
	VersionedModel
}

func (Schedule) TableName() string { return "schedules" }

// Date 返回排班日期（UTC 零点）
func (s *Schedule) Date() time.Time { return time.Time(s.ScheduleDate) }

// ApplyPayload 写入新的班次数据并同步重算人数统计
// 统计字段只能经由此方法更新
func (s *Schedule) ApplyPayload(p ShiftPayload) {
	counts, total := p.Counts()
	s.Shifts = datatypes.NewJSONType(p)
	s.ShiftCounts = datatypes.NewJSONType(counts)
	s.TotalWorkers = total
}

// ScheduleWorker 排班人员投影表 — 对应 schedule_workers
// 每行对应排班 payload 中的一条 Assignment，供薪资与历史查询使用
type ScheduleWorker struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"                                        json:"id"`
	ScheduleID   uint           `gorm:"not null;index:idx_schedule_workers_schedule"                   json:"schedule_id"`
	ScheduleDate datatypes.Date `gorm:"not null;index:idx_schedule_workers_worker_date,priority:2"     json:"schedule_date"`
	SiteID       uint           `gorm:"not null"                                                        json:"site_id"`
	SiteName     string         `gorm:"type:varchar(200);not null"                                      json:"site_name"`
	WorkerID     uint           `gorm:"not null;index:idx_schedule_workers_worker_date,priority:1"     json:"worker_id"`
	WorkerCode   string         `gorm:"type:varchar(50)"                                                json:"worker_code"`
	WorkerName   string         `gorm:"type:varchar(200)"                                               json:"worker_name"`
	Shift        string         `gorm:"type:varchar(50);not null"                                       json:"shift"`
	Position     string         `gorm:"type:varchar(100)"                                               json:"position"`
	Seq          int            `gorm:"not null;default:0"                                              json:"seq"`
	Pay
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ScheduleWorker) TableName() string { return "schedule_workers" }
