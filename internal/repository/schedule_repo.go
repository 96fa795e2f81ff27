package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/S9ine/demo-app-s9-project/internal/model"
	pkgerrors "github.com/S9ine/demo-app-s9-project/pkg/errors"
)

// ScheduleFilter 排班列表查询条件
type ScheduleFilter struct {
	IsActive  *bool
	StartDate *time.Time
	EndDate   *time.Time
	SiteID    *uint
}

// ScheduleRepository 排班表数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id uint) (*model.Schedule, error)
	// GetByIDForUpdate 事务内读取并加行锁（SELECT ... FOR UPDATE），sqlite 下退化为普通读取
	GetByIDForUpdate(ctx context.Context, id uint) (*model.Schedule, error)
	GetByDateAndSite(ctx context.Context, date time.Time, siteID uint) (*model.Schedule, error)
	List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error)
	// ListAfter 按主键游标分页，供投影回填使用
	ListAfter(ctx context.Context, afterID uint, limit int, includeInactive bool) ([]model.Schedule, error)
	// Update 覆盖可变字段并递增版本号；expectedVersion 非空时作为乐观锁条件
	Update(ctx context.Context, schedule *model.Schedule, expectedVersion *int) error
	SetActive(ctx context.Context, id uint, active bool, updatedBy string) error
	Delete(ctx context.Context, id uint) error
}

type scheduleRepo struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uint) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByDateAndSite(ctx context.Context, date time.Time, siteID uint) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("schedule_date = ? AND site_id = ?", datatypes.Date(date), siteID).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx)

	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.StartDate != nil {
		db = db.Where("schedule_date >= ?", datatypes.Date(*filter.StartDate))
	}
	if filter.EndDate != nil {
		db = db.Where("schedule_date <= ?", datatypes.Date(*filter.EndDate))
	}
	if filter.SiteID != nil {
		db = db.Where("site_id = ?", *filter.SiteID)
	}

	err := db.Order("schedule_date DESC, site_id ASC").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) ListAfter(ctx context.Context, afterID uint, limit int, includeInactive bool) ([]model.Schedule, error) {
	var schedules []model.Schedule
	db := r.db.WithContext(ctx).Where("schedule_id > ?", afterID)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("schedule_id ASC").Limit(limit).Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *model.Schedule, expectedVersion *int) error {
	db := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", schedule.ScheduleID)
	if expectedVersion != nil {
		db = db.Where("version = ?", *expectedVersion)
	}

	result := db.Updates(map[string]interface{}{
		"site_name":     schedule.SiteName,
		"shifts":        schedule.Shifts,
		"shift_counts":  schedule.ShiftCounts,
		"total_workers": schedule.TotalWorkers,
		"is_active":     schedule.IsActive,
		"remarks":       schedule.Remarks,
		"updated_by":    schedule.UpdatedBy,
		"updated_at":    time.Now(),
		"version":       gorm.Expr("version + 1"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if expectedVersion != nil {
			return pkgerrors.ErrOptimisticLock
		}
		return gorm.ErrRecordNotFound
	}
	schedule.Version++
	return nil
}

func (r *scheduleRepo) SetActive(ctx context.Context, id uint, active bool, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
