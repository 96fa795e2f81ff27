package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	"github.com/S9ine/demo-app-s9-project/pkg/metrics"
)

// ExpandAssignments 将排班 payload 展开为投影行
// 班次代码按字典序，班次内保持列表顺序（Seq）
func ExpandAssignments(s *model.Schedule) []model.ScheduleWorker {
	payload := s.Shifts.Data()
	rows := make([]model.ScheduleWorker, 0, s.TotalWorkers)
	for _, code := range payload.Codes() {
		for seq, a := range payload[code] {
			rows = append(rows, model.ScheduleWorker{
				ScheduleID:   s.ScheduleID,
				ScheduleDate: s.ScheduleDate,
				SiteID:       s.SiteID,
				SiteName:     s.SiteName,
				WorkerID:     a.WorkerID,
				WorkerCode:   a.WorkerCode,
				WorkerName:   a.WorkerName,
				Shift:        code,
				Position:     a.Position,
				Seq:          seq,
				Pay:          a.Pay,
			})
		}
	}
	return rows
}

// projector 在调用方事务内全量替换单个排班的投影行
type projector struct {
	metrics *metrics.ScheduleMetrics
	logger  *zap.Logger
}

func (p *projector) replace(ctx context.Context, tx *repository.Repository, s *model.Schedule) (int, error) {
	start := time.Now()

	deleted, err := tx.ScheduleWorker.DeleteBySchedule(ctx, s.ScheduleID)
	if err != nil {
		return 0, fmt.Errorf("清理投影行失败: %w", err)
	}

	rows := ExpandAssignments(s)
	if err := tx.ScheduleWorker.BatchCreate(ctx, rows); err != nil {
		return 0, fmt.Errorf("写入投影行失败: %w", err)
	}

	p.metrics.RecordProjection(int(deleted), len(rows), time.Since(start))
	p.logger.Debug("投影已同步",
		zap.Uint("schedule_id", s.ScheduleID),
		zap.Int64("deleted", deleted),
		zap.Int("inserted", len(rows)),
	)
	return len(rows), nil
}

// ════════════════════════════════════════════════════════════
// ProjectionService 回填 / 同步状态
// ════════════════════════════════════════════════════════════

// BackfillOptions 回填参数
type BackfillOptions struct {
	IncludeInactive bool
	BatchSize       int
}

// ProjectionService 投影维护接口
type ProjectionService interface {
	// Backfill 按主键顺序逐个排班重建投影，每个排班独立事务，失败的排班记录后继续
	Backfill(ctx context.Context, opts BackfillOptions) (*dto.BackfillResult, error)
	SyncStatus(ctx context.Context, includeInactive bool) (*dto.SyncStatusResponse, error)
}

type projectionService struct {
	repo      *repository.Repository
	projector *projector
	batchSize int
	metrics   *metrics.ScheduleMetrics
	logger    *zap.Logger
}

// NewProjectionService 创建 ProjectionService 实例
func NewProjectionService(repo *repository.Repository, batchSize int, m *metrics.ScheduleMetrics, logger *zap.Logger) ProjectionService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &projectionService{
		repo:      repo,
		projector: &projector{metrics: m, logger: logger},
		batchSize: batchSize,
		metrics:   m,
		logger:    logger,
	}
}

func (s *projectionService) Backfill(ctx context.Context, opts BackfillOptions) (*dto.BackfillResult, error) {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = s.batchSize
	}

	result := &dto.BackfillResult{Failed: []uint{}}
	var lastID uint

	s.logger.Info("开始回填排班投影",
		zap.Bool("include_inactive", opts.IncludeInactive),
		zap.Int("batch_size", batch),
	)

	for {
		if err := ctx.Err(); err != nil {
			s.metrics.RecordBackfill(len(result.Failed), err)
			return result, err
		}

		page, err := s.repo.Schedule.ListAfter(ctx, lastID, batch, opts.IncludeInactive)
		if err != nil {
			s.logger.Error("读取排班分页失败", zap.Uint("after_id", lastID), zap.Error(err))
			s.metrics.RecordBackfill(len(result.Failed), err)
			return result, err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			id := page[i].ScheduleID
			n, err := s.resync(ctx, id)
			result.Processed++
			if err != nil {
				s.logger.Warn("排班投影回填失败",
					zap.Uint("schedule_id", id),
					zap.Error(err),
				)
				result.Failed = append(result.Failed, id)
				continue
			}
			result.SyncedRows += n
		}
		lastID = page[len(page)-1].ScheduleID
	}

	s.metrics.RecordBackfill(len(result.Failed), nil)
	s.logger.Info("排班投影回填完成",
		zap.Int("processed", result.Processed),
		zap.Int("synced_rows", result.SyncedRows),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// resync 在事务内锁定并重读排班，以最新 payload 替换投影
// 分页读到的副本可能已被并发写入覆盖，不能直接使用
func (s *projectionService) resync(ctx context.Context, id uint) (int, error) {
	var n int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		sched, err := tx.Schedule.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 分页后被永久删除，投影已随之清理
				return nil
			}
			return err
		}
		n, err = s.projector.replace(ctx, tx, sched)
		return err
	})
	return n, err
}

func (s *projectionService) SyncStatus(ctx context.Context, includeInactive bool) (*dto.SyncStatusResponse, error) {
	gaps, err := s.repo.ScheduleWorker.FindOutOfSync(ctx, includeInactive)
	if err != nil {
		s.logger.Error("检查投影同步状态失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.SyncGapItem, 0, len(gaps))
	for _, g := range gaps {
		items = append(items, dto.SyncGapItem{
			ScheduleID:   g.ScheduleID,
			TotalWorkers: g.TotalWorkers,
			RowCount:     g.RowCount,
		})
	}
	return &dto.SyncStatusResponse{
		InSync:    len(items) == 0,
		OutOfSync: len(items),
		Schedules: items,
	}, nil
}
