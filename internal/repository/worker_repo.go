package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/model"
)

// WorkerRepository 保安人员数据访问接口
type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id uint) (*model.Worker, error)
	GetByIDs(ctx context.Context, ids []uint) ([]model.Worker, error)
	List(ctx context.Context, keyword string, includeInactive bool, offset, limit int) ([]model.Worker, int64, error)
	Update(ctx context.Context, worker *model.Worker) error
	Delete(ctx context.Context, id uint, deletedBy string) error
}

type workerRepo struct {
	db *gorm.DB
}

// NewWorkerRepo 创建 WorkerRepository 实例
func NewWorkerRepo(db *gorm.DB) WorkerRepository {
	return &workerRepo{db: db}
}

func (r *workerRepo) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *workerRepo) GetByID(ctx context.Context, id uint) (*model.Worker, error) {
	var worker model.Worker
	if err := r.db.WithContext(ctx).Where("worker_id = ?", id).First(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) GetByIDs(ctx context.Context, ids []uint) ([]model.Worker, error) {
	var workers []model.Worker
	if len(ids) == 0 {
		return workers, nil
	}
	err := r.db.WithContext(ctx).Where("worker_id IN ?", ids).Find(&workers).Error
	return workers, err
}

func (r *workerRepo) List(ctx context.Context, keyword string, includeInactive bool, offset, limit int) ([]model.Worker, int64, error) {
	var workers []model.Worker
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Worker{})
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("worker_code LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("worker_code ASC").Offset(offset).Limit(limit).Find(&workers).Error
	return workers, total, err
}

func (r *workerRepo) Update(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Save(worker).Error
}

func (r *workerRepo) Delete(ctx context.Context, id uint, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Worker{}).
			Where("worker_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("worker_id = ?", id).Delete(&model.Worker{}).Error
	})
}
