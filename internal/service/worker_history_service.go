package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
)

const (
	defaultIncomeField = "total_income"
	defaultTopSites    = 5
)

// 汇总时允许选择的收入字段
var incomeFields = map[string]func(model.Pay) float64{
	"daily_income": func(p model.Pay) float64 { return p.DailyIncome },
	"payout_rate":  func(p model.Pay) float64 { return p.PayoutRate },
	"hiring_rate":  func(p model.Pay) float64 { return p.HiringRate },
	"total_income": model.Pay.TotalIncome,
}

// WorkerHistoryService 基于投影表的人员工作记录查询
// 默认只统计启用排班，include_inactive 时包含已停用排班保留下来的投影行
type WorkerHistoryService interface {
	History(ctx context.Context, workerID uint, req *dto.WorkerHistoryRequest) (*dto.WorkerHistoryResponse, error)
	Summary(ctx context.Context, workerID uint, req *dto.WorkerSummaryRequest) (*dto.WorkerSummaryResponse, error)
}

type workerHistoryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewWorkerHistoryService 创建 WorkerHistoryService 实例
func NewWorkerHistoryService(repo *repository.Repository, logger *zap.Logger) WorkerHistoryService {
	return &workerHistoryService{repo: repo, logger: logger}
}

// ────────────────────── History ──────────────────────

func (s *workerHistoryService) History(ctx context.Context, workerID uint, req *dto.WorkerHistoryRequest) (*dto.WorkerHistoryResponse, error) {
	rows, worker, err := s.load(ctx, workerID, req.Start, req.End, req.IncludeInactive)
	if err != nil {
		return nil, err
	}

	resp := &dto.WorkerHistoryResponse{
		WorkerID: workerID,
		WorkDays: make([]dto.WorkDayEntry, 0, len(rows)),
		Summary:  summarize(workerID, rows, defaultIncomeField, defaultTopSites),
	}
	if worker != nil {
		resp.WorkerCode = worker.WorkerCode
		resp.WorkerName = worker.FullName()
	} else {
		// 人员已从目录删除，使用投影中的快照
		last := rows[len(rows)-1]
		resp.WorkerCode = last.WorkerCode
		resp.WorkerName = last.WorkerName
	}

	for i := range rows {
		r := &rows[i]
		resp.WorkDays = append(resp.WorkDays, dto.WorkDayEntry{
			Date:              time.Time(r.ScheduleDate).Format(dto.DateFormat),
			ScheduleID:        r.ScheduleID,
			SiteID:            r.SiteID,
			SiteName:          r.SiteName,
			Shift:             r.Shift,
			Position:          r.Position,
			DailyIncome:       r.DailyIncome,
			PayoutRate:        r.PayoutRate,
			HiringRate:        r.HiringRate,
			PositionAllowance: r.PositionAllowance,
			DiligenceBonus:    r.DiligenceBonus,
			SevenDayBonus:     r.SevenDayBonus,
			PointBonus:        r.PointBonus,
			OtherAllowance:    r.OtherAllowance,
			TotalIncome:       r.Pay.TotalIncome(),
		})
	}
	return resp, nil
}

// ────────────────────── Summary ──────────────────────

func (s *workerHistoryService) Summary(ctx context.Context, workerID uint, req *dto.WorkerSummaryRequest) (*dto.WorkerSummaryResponse, error) {
	field := req.IncomeField
	if field == "" {
		field = defaultIncomeField
	}
	if _, ok := incomeFields[field]; !ok {
		return nil, newValidationError("income_field",
			fmt.Sprintf("不支持的收入字段 %q，可选 daily_income / payout_rate / hiring_rate / total_income", field))
	}
	top := req.Top
	if top <= 0 {
		top = defaultTopSites
	}

	rows, _, err := s.load(ctx, workerID, req.Start, req.End, req.IncludeInactive)
	if err != nil {
		return nil, err
	}

	summary := summarize(workerID, rows, field, top)
	return &summary, nil
}

// load 解析日期范围并读取投影行
// 目录中不存在且没有任何投影行时返回 ErrWorkerNotFound
func (s *workerHistoryService) load(ctx context.Context, workerID uint, start, end string, includeInactive bool) ([]model.ScheduleWorker, *model.Worker, error) {
	from, to, err := parseDateRange(start, end)
	if err != nil {
		return nil, nil, err
	}

	worker, err := s.repo.Worker.GetByID(ctx, workerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
		worker = nil
	}

	rows, err := s.repo.ScheduleWorker.List(ctx, repository.ProjectionFilter{
		WorkerID:        &workerID,
		StartDate:       from,
		EndDate:         to,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		s.logger.Error("查询人员投影失败", zap.Uint("worker_id", workerID), zap.Error(err))
		return nil, nil, err
	}

	if worker == nil && len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrWorkerNotFound, workerID)
	}
	return rows, worker, nil
}

// summarize 汇总出勤天数（按不同日期计）、收入合计、各班次次数与出勤最多的站点
func summarize(workerID uint, rows []model.ScheduleWorker, field string, top int) dto.WorkerSummaryResponse {
	pick := incomeFields[field]

	days := make(map[string]struct{})
	shiftCounts := make(map[string]int)
	type siteAgg struct {
		name string
		days map[string]struct{}
	}
	sites := make(map[uint]*siteAgg)
	total := 0.0

	for i := range rows {
		r := &rows[i]
		day := time.Time(r.ScheduleDate).Format(dto.DateFormat)
		days[day] = struct{}{}
		shiftCounts[r.Shift]++
		total += pick(r.Pay)

		agg, ok := sites[r.SiteID]
		if !ok {
			agg = &siteAgg{days: make(map[string]struct{})}
			sites[r.SiteID] = agg
		}
		// 行按日期升序，保留最新的站点名
		agg.name = r.SiteName
		agg.days[day] = struct{}{}
	}

	ranked := make([]dto.SiteWorkDays, 0, len(sites))
	for id, agg := range sites {
		ranked = append(ranked, dto.SiteWorkDays{SiteID: id, SiteName: agg.name, WorkDays: len(agg.days)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].WorkDays != ranked[j].WorkDays {
			return ranked[i].WorkDays > ranked[j].WorkDays
		}
		if ranked[i].SiteName != ranked[j].SiteName {
			return ranked[i].SiteName < ranked[j].SiteName
		}
		return ranked[i].SiteID < ranked[j].SiteID
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	return dto.WorkerSummaryResponse{
		WorkerID:      workerID,
		TotalWorkDays: len(days),
		IncomeField:   field,
		TotalIncome:   total,
		ShiftCounts:   shiftCounts,
		TopSites:      ranked,
	}
}
