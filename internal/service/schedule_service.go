package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	pkgerrors "github.com/S9ine/demo-app-s9-project/pkg/errors"
	"github.com/S9ine/demo-app-s9-project/pkg/metrics"
)

// ── 排班模块业务错误 ──

var (
	ErrScheduleNotFound = errors.New("排班不存在")
	ErrScheduleConflict = errors.New("该站点当天已有启用的排班，请使用更新接口")
)

const scheduleEntityType = "schedules"

// 创建结果
const (
	CreateResultCreated     = "created"
	CreateResultReactivated = "reactivated"
)

// ScheduleService 排班业务接口
type ScheduleService interface {
	// Create 按 (日期, 站点) 创建排班：不存在则新建，已停用则重新启用并覆盖，已启用则冲突
	Create(ctx context.Context, req *dto.CreateScheduleRequest, actorID string) (*dto.CreateScheduleResult, error)
	GetByID(ctx context.Context, id uint) (*dto.ScheduleResponse, error)
	List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleListItem, error)
	GetByDate(ctx context.Context, date string) (map[uint]dto.ScheduleByDateEntry, error)
	// Update 仅修改请求中出现的字段；修改 shifts 时重算人数并重建投影
	Update(ctx context.Context, id uint, req *dto.UpdateScheduleRequest, actorID string) (*dto.ScheduleResponse, error)
	// SoftDelete 停用排班，保留 payload 与投影行
	SoftDelete(ctx context.Context, id uint, actorID string) error
	// HardDelete 同一事务内删除投影行与排班
	HardDelete(ctx context.Context, id uint, actorID string) error
}

type scheduleService struct {
	repo      *repository.Repository
	tx        repository.Transactor
	catalog   ShiftCatalog
	audit     AuditRecorder
	projector *projector
	metrics   *metrics.ScheduleMetrics
	logger    *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	repo *repository.Repository,
	catalog ShiftCatalog,
	audit AuditRecorder,
	m *metrics.ScheduleMetrics,
	logger *zap.Logger,
) ScheduleService {
	return newScheduleService(repo, repo, catalog, audit, m, logger)
}

func newScheduleService(
	repo *repository.Repository,
	tx repository.Transactor,
	catalog ShiftCatalog,
	audit AuditRecorder,
	m *metrics.ScheduleMetrics,
	logger *zap.Logger,
) *scheduleService {
	return &scheduleService{
		repo:      repo,
		tx:        tx,
		catalog:   catalog,
		audit:     audit,
		projector: &projector{metrics: m, logger: logger},
		metrics:   m,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// 创建状态机
// ════════════════════════════════════════════════════════════

type createAction int

const (
	createInsert createAction = iota
	createReactivate
	createConflict
)

// decideCreate 根据 (日期, 站点) 已有记录决定创建动作
func decideCreate(existing *model.Schedule) createAction {
	switch {
	case existing == nil:
		return createInsert
	case existing.IsActive:
		return createConflict
	default:
		return createReactivate
	}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateScheduleRequest, actorID string) (*dto.CreateScheduleResult, error) {
	date, err := parseDate("schedule_date", req.ScheduleDate)
	if err != nil {
		return nil, err
	}

	siteName, err := s.resolveSite(ctx, req.SiteID, req.SiteName)
	if err != nil {
		return nil, err
	}
	payload, err := s.preparePayload(ctx, req.Shifts)
	if err != nil {
		return nil, err
	}

	outcome, err := s.createOnce(ctx, date, req.SiteID, siteName, payload, req.Remarks, actorID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发创建：另一请求已先插入，重新走一遍状态机
		s.metrics.RecordDuplicateRetry()
		s.logger.Warn("创建排班遇到唯一键冲突，重试",
			zap.String("date", req.ScheduleDate),
			zap.Uint("site_id", req.SiteID),
		)
		outcome, err = s.createOnce(ctx, date, req.SiteID, siteName, payload, req.Remarks, actorID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = ErrScheduleConflict
		}
	}
	if err != nil {
		s.metrics.RecordWrite(AuditActionCreate, err)
		if !isClientError(err) {
			s.logger.Error("创建排班失败",
				zap.String("date", req.ScheduleDate),
				zap.Uint("site_id", req.SiteID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	action := AuditActionCreate
	result := CreateResultCreated
	if outcome.reactivated {
		action = AuditActionReactivate
		result = CreateResultReactivated
	}
	s.metrics.RecordWrite(action, nil)

	resp := toScheduleResponse(outcome.schedule)
	s.recordAudit(ctx, AuditEntry{
		Action:        action,
		EntityType:    scheduleEntityType,
		EntityID:      strconv.FormatUint(uint64(outcome.schedule.ScheduleID), 10),
		UserID:        actorID,
		Before:        outcome.before,
		After:         resp,
		ChangedFields: outcome.changed,
	})

	return &dto.CreateScheduleResult{
		ID:       outcome.schedule.ScheduleID,
		Result:   result,
		Schedule: resp,
	}, nil
}

type createOutcome struct {
	schedule    *model.Schedule
	reactivated bool
	before      *dto.ScheduleResponse
	changed     []string
}

// createOnce 单个事务内完成状态机判定、排班写入与投影替换
func (s *scheduleService) createOnce(
	ctx context.Context,
	date time.Time,
	siteID uint,
	siteName string,
	payload model.ShiftPayload,
	remarks string,
	actorID string,
) (*createOutcome, error) {
	out := &createOutcome{}

	err := s.tx.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Schedule.GetByDateAndSite(ctx, date, siteID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			existing = nil
		}
		if existing != nil {
			// 锁定已有行后再判定，避免与并发更新交错
			if existing, err = tx.Schedule.GetByIDForUpdate(ctx, existing.ScheduleID); err != nil {
				return err
			}
		}

		var target *model.Schedule
		switch decideCreate(existing) {
		case createConflict:
			return ErrScheduleConflict

		case createInsert:
			target = &model.Schedule{
				ScheduleDate: datatypes.Date(date),
				SiteID:       siteID,
				SiteName:     siteName,
				IsActive:     true,
				Remarks:      remarks,
			}
			target.ApplyPayload(payload)
			target.Version = 1
			target.CreatedBy = &actorID
			target.UpdatedBy = &actorID
			if err := tx.Schedule.Create(ctx, target); err != nil {
				return err
			}

		case createReactivate:
			out.reactivated = true
			out.before = toScheduleResponse(existing)
			orig := *existing

			target = existing
			target.SiteName = siteName
			target.Remarks = remarks
			target.IsActive = true
			target.ApplyPayload(payload)
			target.UpdatedBy = &actorID
			out.changed = changedScheduleFields(&orig, target)
			if err := tx.Schedule.Update(ctx, target, nil); err != nil {
				return err
			}
		}

		if _, err := s.projector.replace(ctx, tx, target); err != nil {
			return err
		}

		fresh, err := tx.Schedule.GetByID(ctx, target.ScheduleID)
		if err != nil {
			return err
		}
		out.schedule = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ────────────────────── 写入前校验 ──────────────────────

// resolveSite 校验站点存在，未传站点名时取目录中的名称
func (s *scheduleService) resolveSite(ctx context.Context, siteID uint, name string) (string, error) {
	site, err := s.repo.Site.GetByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %d", ErrSiteNotFound, siteID)
		}
		return "", err
	}
	if name == "" {
		name = site.Name
	}
	return name, nil
}

var payFieldOrder = []string{
	"daily_income",
	"payout_rate",
	"hiring_rate",
	"position_allowance",
	"diligence_bonus",
	"seven_day_bonus",
	"point_bonus",
	"other_allowance",
}

// preparePayload 校验班次代码与金额，并从人员目录补全编号和姓名
// 返回的是新的 payload，不修改入参
func (s *scheduleService) preparePayload(ctx context.Context, in model.ShiftPayload) (model.ShiftPayload, error) {
	known, err := s.catalog.ActiveCodes(ctx)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	idSet := make(map[uint]struct{})
	for _, code := range in.Codes() {
		if _, ok := known[code]; !ok {
			ve.add("shifts."+code, "未知的班次代码")
		}
		for i, a := range in[code] {
			prefix := fmt.Sprintf("shifts.%s[%d]", code, i)
			if a.WorkerID == 0 {
				ve.add(prefix+".worker_id", "缺少人员")
			} else {
				idSet[a.WorkerID] = struct{}{}
			}
			values := a.Pay.Fields()
			for _, name := range payFieldOrder {
				v := values[name]
				if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					ve.add(prefix+"."+name, "金额必须为非负数")
				}
			}
		}
	}
	if err := ve.errOrNil(); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	directory := make(map[uint]*model.Worker, len(ids))
	if len(ids) > 0 {
		workers, err := s.repo.Worker.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range workers {
			directory[workers[i].WorkerID] = &workers[i]
		}
	}
	for _, id := range ids {
		if _, ok := directory[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrWorkerNotFound, id)
		}
	}

	out := make(model.ShiftPayload, len(in))
	for code, list := range in {
		resolved := make([]model.Assignment, len(list))
		for i, a := range list {
			w := directory[a.WorkerID]
			a.WorkerCode = w.WorkerCode
			a.WorkerName = w.FullName()
			resolved[i] = a
		}
		out[code] = resolved
	}
	return out, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id uint) (*dto.ScheduleResponse, error) {
	sched, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
		}
		return nil, err
	}
	return toScheduleResponse(sched), nil
}

func (s *scheduleService) List(ctx context.Context, req *dto.ScheduleListRequest) ([]dto.ScheduleListItem, error) {
	from, to, err := parseDateRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	list, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		IsActive:  &active,
		StartDate: from,
		EndDate:   to,
		SiteID:    req.SiteID,
	})
	if err != nil {
		s.logger.Error("查询排班列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.ScheduleListItem, 0, len(list))
	for i := range list {
		sc := &list[i]
		items = append(items, dto.ScheduleListItem{
			ID:           sc.ScheduleID,
			ScheduleDate: sc.Date().Format(dto.DateFormat),
			SiteID:       sc.SiteID,
			SiteName:     sc.SiteName,
			ShiftCounts:  sc.ShiftCounts.Data(),
			TotalWorkers: sc.TotalWorkers,
			IsActive:     sc.IsActive,
		})
	}
	return items, nil
}

func (s *scheduleService) GetByDate(ctx context.Context, date string) (map[uint]dto.ScheduleByDateEntry, error) {
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}

	active := true
	list, err := s.repo.Schedule.List(ctx, repository.ScheduleFilter{
		IsActive:  &active,
		StartDate: &day,
		EndDate:   &day,
	})
	if err != nil {
		s.logger.Error("按日期查询排班失败", zap.String("date", date), zap.Error(err))
		return nil, err
	}

	result := make(map[uint]dto.ScheduleByDateEntry, len(list))
	for i := range list {
		sc := &list[i]
		result[sc.SiteID] = dto.ScheduleByDateEntry{
			ScheduleID: sc.ScheduleID,
			SiteID:     sc.SiteID,
			SiteName:   sc.SiteName,
			Shifts:     sc.Shifts.Data(),
		}
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id uint, req *dto.UpdateScheduleRequest, actorID string) (*dto.ScheduleResponse, error) {
	var payload *model.ShiftPayload
	if req.Shifts != nil {
		p, err := s.preparePayload(ctx, *req.Shifts)
		if err != nil {
			return nil, err
		}
		payload = &p
	}

	var before, after *dto.ScheduleResponse
	var changed []string

	err := s.tx.Transaction(ctx, func(tx *repository.Repository) error {
		sched, err := tx.Schedule.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}
		before = toScheduleResponse(sched)
		orig := *sched

		if payload != nil {
			sched.ApplyPayload(*payload)
		}
		if req.Remarks != nil {
			sched.Remarks = *req.Remarks
		}
		if req.IsActive != nil {
			sched.IsActive = *req.IsActive
		}
		sched.UpdatedBy = &actorID
		changed = changedScheduleFields(&orig, sched)

		if err := tx.Schedule.Update(ctx, sched, req.Version); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}

		if payload != nil {
			if _, err := s.projector.replace(ctx, tx, sched); err != nil {
				return err
			}
		}

		fresh, err := tx.Schedule.GetByID(ctx, id)
		if err != nil {
			return err
		}
		after = toScheduleResponse(fresh)
		return nil
	})
	s.metrics.RecordWrite(AuditActionUpdate, err)
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("更新排班失败", zap.Uint("schedule_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.recordAudit(ctx, AuditEntry{
		Action:        AuditActionUpdate,
		EntityType:    scheduleEntityType,
		EntityID:      strconv.FormatUint(uint64(id), 10),
		UserID:        actorID,
		Before:        before,
		After:         after,
		ChangedFields: changed,
	})
	return after, nil
}

// ────────────────────── 删除 ──────────────────────

func (s *scheduleService) SoftDelete(ctx context.Context, id uint, actorID string) error {
	var before, after *dto.ScheduleResponse

	err := s.tx.Transaction(ctx, func(tx *repository.Repository) error {
		sched, err := tx.Schedule.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}
		before = toScheduleResponse(sched)

		// 投影行保留，历史查询默认按排班启用状态过滤
		if err := tx.Schedule.SetActive(ctx, id, false, actorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}

		fresh, err := tx.Schedule.GetByID(ctx, id)
		if err != nil {
			return err
		}
		after = toScheduleResponse(fresh)
		return nil
	})
	s.metrics.RecordWrite(AuditActionDeactivate, err)
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("停用排班失败", zap.Uint("schedule_id", id), zap.Error(err))
		}
		return err
	}

	changed := []string{}
	if before.IsActive {
		changed = append(changed, "is_active")
	}
	s.recordAudit(ctx, AuditEntry{
		Action:        AuditActionDeactivate,
		EntityType:    scheduleEntityType,
		EntityID:      strconv.FormatUint(uint64(id), 10),
		UserID:        actorID,
		Before:        before,
		After:         after,
		ChangedFields: changed,
	})
	return nil
}

func (s *scheduleService) HardDelete(ctx context.Context, id uint, actorID string) error {
	var before *dto.ScheduleResponse
	var removed int64

	err := s.tx.Transaction(ctx, func(tx *repository.Repository) error {
		sched, err := tx.Schedule.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}
		before = toScheduleResponse(sched)

		removed, err = tx.ScheduleWorker.DeleteBySchedule(ctx, id)
		if err != nil {
			return fmt.Errorf("删除投影行失败: %w", err)
		}
		if err := tx.Schedule.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
			}
			return err
		}
		return nil
	})
	s.metrics.RecordWrite(AuditActionDelete, err)
	if err != nil {
		if !isClientError(err) {
			s.logger.Error("删除排班失败", zap.Uint("schedule_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("排班已永久删除",
		zap.Uint("schedule_id", id),
		zap.Int64("projection_rows", removed),
		zap.String("actor", actorID),
	)
	s.recordAudit(ctx, AuditEntry{
		Action:     AuditActionDelete,
		EntityType: scheduleEntityType,
		EntityID:   strconv.FormatUint(uint64(id), 10),
		UserID:     actorID,
		Before:     before,
	})
	return nil
}

// ────────────────────── 辅助函数 ──────────────────────

func (s *scheduleService) recordAudit(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("写入审计记录失败",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// isClientError 调用方可修正的错误，无需记录 Error 日志
func isClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrScheduleConflict) ||
		errors.Is(err, ErrSiteNotFound) ||
		errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock)
}

// changedScheduleFields 比较两个版本的可变字段，返回发生变化的字段名
func changedScheduleFields(before, after *model.Schedule) []string {
	changed := []string{}
	if before.SiteName != after.SiteName {
		changed = append(changed, "site_name")
	}
	if !reflect.DeepEqual(before.Shifts.Data(), after.Shifts.Data()) {
		changed = append(changed, "shifts")
	}
	if !reflect.DeepEqual(before.ShiftCounts.Data(), after.ShiftCounts.Data()) {
		changed = append(changed, "shift_counts")
	}
	if before.TotalWorkers != after.TotalWorkers {
		changed = append(changed, "total_workers")
	}
	if before.IsActive != after.IsActive {
		changed = append(changed, "is_active")
	}
	if before.Remarks != after.Remarks {
		changed = append(changed, "remarks")
	}
	return changed
}

func toScheduleResponse(s *model.Schedule) *dto.ScheduleResponse {
	payload := s.Shifts.Data()
	if payload == nil {
		payload = model.ShiftPayload{}
	}
	counts := s.ShiftCounts.Data()
	if counts == nil {
		counts = map[string]int{}
	}
	return &dto.ScheduleResponse{
		ID:           s.ScheduleID,
		ScheduleDate: s.Date().Format(dto.DateFormat),
		SiteID:       s.SiteID,
		SiteName:     s.SiteName,
		Shifts:       payload,
		ShiftCounts:  counts,
		TotalWorkers: s.TotalWorkers,
		IsActive:     s.IsActive,
		Remarks:      s.Remarks,
		Version:      s.Version,
		CreatedBy:    derefString(s.CreatedBy),
		UpdatedBy:    derefString(s.UpdatedBy),
		CreatedAt:    s.CreatedAt.Format(dto.TimeFormat),
		UpdatedAt:    s.UpdatedAt.Format(dto.TimeFormat),
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
