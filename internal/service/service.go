package service

import (
	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/config"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	"github.com/S9ine/demo-app-s9-project/pkg/jwt"
	"github.com/S9ine/demo-app-s9-project/pkg/metrics"
	"github.com/S9ine/demo-app-s9-project/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	Shift         ShiftService
	Site          SiteService
	Worker        WorkerService
	Schedule      ScheduleService
	Projection    ProjectionService
	WorkerHistory WorkerHistoryService
	Audit         AuditService
	Export        ExportService
}

// Deps 可选基础设施，为 nil 时降级
//   - Redis 为空：班次目录使用进程内缓存，登出不生效
//   - Publisher 为空：不推送变更事件
type Deps struct {
	Redis     *redis.Client
	Publisher EventPublisher
	Metrics   *metrics.ScheduleMetrics
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	var (
		cache     ByteCache
		blacklist TokenBlacklist
	)
	if deps.Redis != nil {
		cache = deps.Redis
		blacklist = deps.Redis
	}

	recorders := MultiRecorder{NewDBAuditRecorder(repo)}
	if deps.Publisher != nil {
		recorders = append(recorders, NewEventAuditRecorder(deps.Publisher))
	}

	shifts := NewShiftService(repo, cache, cfg.Projection.ShiftCacheTTL, logger)

	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Shift:         shifts,
		Site:          NewSiteService(repo, logger),
		Worker:        NewWorkerService(repo, logger),
		Schedule:      NewScheduleService(repo, shifts, recorders, deps.Metrics, logger),
		Projection:    NewProjectionService(repo, cfg.Projection.BackfillBatchSize, deps.Metrics, logger),
		WorkerHistory: NewWorkerHistoryService(repo, logger),
		Audit:         NewAuditService(repo, logger),
		Export:        NewExportService(repo, logger),
	}
}
