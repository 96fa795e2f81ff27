package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/model"
)

// ShiftRepository 班次目录数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id uint) (*model.Shift, error)
	GetByCode(ctx context.Context, code string) (*model.Shift, error)
	List(ctx context.Context, includeInactive bool) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id uint) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id uint) (*model.Shift, error) {
	var shift model.Shift
	if err := r.db.WithContext(ctx).Where("shift_id = ?", id).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByCode(ctx context.Context, code string) (*model.Shift, error) {
	var shift model.Shift
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context, includeInactive bool) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("start_time ASC, code ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *shiftRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("shift_id = ?", id).Delete(&model.Shift{}).Error
}
