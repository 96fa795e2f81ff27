package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor 事务入口，服务层依赖此接口开启写事务
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *Repository) error) error
}

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Shift          ShiftRepository
	Site           SiteRepository
	Worker         WorkerRepository
	Schedule       ScheduleRepository
	ScheduleWorker ScheduleWorkerRepository
	AuditLog       AuditLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Shift:          NewShiftRepo(db),
		Site:           NewSiteRepo(db),
		Worker:         NewWorkerRepo(db),
		Schedule:       NewScheduleRepo(db),
		ScheduleWorker: NewScheduleWorkerRepo(db),
		AuditLog:       NewAuditLogRepo(db),
	}
}

// Transaction 在同一事务内执行 fn，fn 拿到的是绑定事务的 Repository
// fn 返回错误时整体回滚
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
