package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/model"
)

// SiteRepository 站点数据访问接口
type SiteRepository interface {
	Create(ctx context.Context, site *model.Site) error
	GetByID(ctx context.Context, id uint) (*model.Site, error)
	List(ctx context.Context, keyword string, includeInactive bool, offset, limit int) ([]model.Site, int64, error)
	Update(ctx context.Context, site *model.Site) error
	Delete(ctx context.Context, id uint, deletedBy string) error
}

type siteRepo struct {
	db *gorm.DB
}

// NewSiteRepo 创建 SiteRepository 实例
func NewSiteRepo(db *gorm.DB) SiteRepository {
	return &siteRepo{db: db}
}

func (r *siteRepo) Create(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Create(site).Error
}

func (r *siteRepo) GetByID(ctx context.Context, id uint) (*model.Site, error) {
	var site model.Site
	if err := r.db.WithContext(ctx).Where("site_id = ?", id).First(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepo) List(ctx context.Context, keyword string, includeInactive bool, offset, limit int) ([]model.Site, int64, error) {
	var sites []model.Site
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Site{})
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("name LIKE ? OR site_code LIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("site_code ASC").Offset(offset).Limit(limit).Find(&sites).Error
	return sites, total, err
}

func (r *siteRepo) Update(ctx context.Context, site *model.Site) error {
	return r.db.WithContext(ctx).Save(site).Error
}

func (r *siteRepo) Delete(ctx context.Context, id uint, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Site{}).
			Where("site_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("site_id = ?", id).Delete(&model.Site{}).Error
	})
}
