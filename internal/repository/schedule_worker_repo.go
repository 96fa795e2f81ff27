package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/model"
)

const projectionInsertBatch = 500

// ProjectionFilter 投影行查询条件
type ProjectionFilter struct {
	WorkerID        *uint
	SiteID          *uint
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeInactive bool // false 时仅返回启用排班的行
}

// SyncGap 投影行数与排班人数不一致的排班
type SyncGap struct {
	ScheduleID   uint `json:"schedule_id"`
	TotalWorkers int  `json:"total_workers"`
	RowCount     int  `json:"row_count"`
}

// ScheduleWorkerRepository 排班人员投影数据访问接口
type ScheduleWorkerRepository interface {
	BatchCreate(ctx context.Context, rows []model.ScheduleWorker) error
	DeleteBySchedule(ctx context.Context, scheduleID uint) (int64, error)
	CountBySchedule(ctx context.Context, scheduleID uint) (int64, error)
	ListBySchedule(ctx context.Context, scheduleID uint) ([]model.ScheduleWorker, error)
	List(ctx context.Context, filter ProjectionFilter) ([]model.ScheduleWorker, error)
	FindOutOfSync(ctx context.Context, includeInactive bool) ([]SyncGap, error)
}

type scheduleWorkerRepo struct {
	db *gorm.DB
}

func NewScheduleWorkerRepo(db *gorm.DB) ScheduleWorkerRepository {
	return &scheduleWorkerRepo{db: db}
}

func (r *scheduleWorkerRepo) BatchCreate(ctx context.Context, rows []model.ScheduleWorker) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, projectionInsertBatch).Error
}

func (r *scheduleWorkerRepo) DeleteBySchedule(ctx context.Context, scheduleID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Delete(&model.ScheduleWorker{})
	return result.RowsAffected, result.Error
}

func (r *scheduleWorkerRepo) CountBySchedule(ctx context.Context, scheduleID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleWorker{}).
		Where("schedule_id = ?", scheduleID).
		Count(&n).Error
	return n, err
}

func (r *scheduleWorkerRepo) ListBySchedule(ctx context.Context, scheduleID uint) ([]model.ScheduleWorker, error) {
	var rows []model.ScheduleWorker
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("shift ASC, seq ASC").
		Find(&rows).Error
	return rows, err
}

func (r *scheduleWorkerRepo) List(ctx context.Context, filter ProjectionFilter) ([]model.ScheduleWorker, error) {
	var rows []model.ScheduleWorker
	db := r.db.WithContext(ctx).Model(&model.ScheduleWorker{})

	if !filter.IncludeInactive {
		db = db.Joins("JOIN schedules ON schedules.schedule_id = schedule_workers.schedule_id").
			Where("schedules.is_active = ?", true)
	}
	if filter.WorkerID != nil {
		db = db.Where("schedule_workers.worker_id = ?", *filter.WorkerID)
	}
	if filter.SiteID != nil {
		db = db.Where("schedule_workers.site_id = ?", *filter.SiteID)
	}
	if filter.StartDate != nil {
		db = db.Where("schedule_workers.schedule_date >= ?", datatypes.Date(*filter.StartDate))
	}
	if filter.EndDate != nil {
		db = db.Where("schedule_workers.schedule_date <= ?", datatypes.Date(*filter.EndDate))
	}

	err := db.Select("schedule_workers.*").
		Order("schedule_workers.schedule_date ASC, schedule_workers.shift ASC, schedule_workers.seq ASC").
		Find(&rows).Error
	return rows, err
}

func (r *scheduleWorkerRepo) FindOutOfSync(ctx context.Context, includeInactive bool) ([]SyncGap, error) {
	var gaps []SyncGap
	db := r.db.WithContext(ctx).
		Table("schedules").
		Select("schedules.schedule_id, schedules.total_workers, COUNT(schedule_workers.id) AS row_count").
		Joins("LEFT JOIN schedule_workers ON schedule_workers.schedule_id = schedules.schedule_id")
	if !includeInactive {
		db = db.Where("schedules.is_active = ?", true)
	}
	err := db.Group("schedules.schedule_id, schedules.total_workers").
		Having("COUNT(schedule_workers.id) <> schedules.total_workers").
		Order("schedules.schedule_id ASC").
		Scan(&gaps).Error
	return gaps, err
}
