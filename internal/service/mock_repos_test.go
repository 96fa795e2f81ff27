package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	pkgerrors "github.com/S9ine/demo-app-s9-project/pkg/errors"
)

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	schedules map[uint]*model.Schedule
	nextID    uint

	// raceOnCreate 非 nil 时，下一次 Create 先写入该记录再返回唯一键冲突
	raceOnCreate *model.Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[uint]*model.Schedule), nextID: 1}
}

func (m *mockScheduleRepo) insert(s *model.Schedule) {
	s.ScheduleID = m.nextID
	m.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.schedules[s.ScheduleID] = &cp
}

func (m *mockScheduleRepo) Create(_ context.Context, s *model.Schedule) error {
	if m.raceOnCreate != nil {
		m.insert(m.raceOnCreate)
		m.raceOnCreate = nil
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range m.schedules {
		if existing.Date().Equal(s.Date()) && existing.SiteID == s.SiteID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.insert(s)
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uint) (*model.Schedule, error) {
	if s, ok := m.schedules[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Schedule, error) {
	return m.GetByID(ctx, id)
}

func (m *mockScheduleRepo) GetByDateAndSite(_ context.Context, date time.Time, siteID uint) (*model.Schedule, error) {
	for _, s := range m.schedules {
		if s.Date().Equal(date) && s.SiteID == siteID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) List(_ context.Context, f repository.ScheduleFilter) ([]model.Schedule, error) {
	var result []model.Schedule
	for _, s := range m.schedules {
		if f.IsActive != nil && s.IsActive != *f.IsActive {
			continue
		}
		if f.StartDate != nil && s.Date().Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && s.Date().After(*f.EndDate) {
			continue
		}
		if f.SiteID != nil && s.SiteID != *f.SiteID {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date().Equal(result[j].Date()) {
			return result[i].Date().After(result[j].Date())
		}
		return result[i].SiteID < result[j].SiteID
	})
	return result, nil
}

func (m *mockScheduleRepo) ListAfter(_ context.Context, afterID uint, limit int, includeInactive bool) ([]model.Schedule, error) {
	ids := make([]uint, 0, len(m.schedules))
	for id := range m.schedules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []model.Schedule
	for _, id := range ids {
		s := m.schedules[id]
		if id <= afterID || (!includeInactive && !s.IsActive) {
			continue
		}
		result = append(result, *s)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *model.Schedule, expectedVersion *int) error {
	existing, ok := m.schedules[s.ScheduleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if expectedVersion != nil && existing.Version != *expectedVersion {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version = existing.Version + 1
	s.UpdatedAt = time.Now()
	cp := *s
	m.schedules[s.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) SetActive(_ context.Context, id uint, active bool, updatedBy string) error {
	s, ok := m.schedules[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.IsActive = active
	s.UpdatedBy = &updatedBy
	s.Version++
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.schedules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.schedules, id)
	return nil
}

// ── Mock ScheduleWorkerRepository ──

type mockScheduleWorkerRepo struct {
	rows      []model.ScheduleWorker
	nextID    uint
	schedules *mockScheduleRepo // 用于按排班启用状态过滤

	failInsert error
}

func newMockScheduleWorkerRepo(schedules *mockScheduleRepo) *mockScheduleWorkerRepo {
	return &mockScheduleWorkerRepo{nextID: 1, schedules: schedules}
}

func (m *mockScheduleWorkerRepo) BatchCreate(_ context.Context, rows []model.ScheduleWorker) error {
	if m.failInsert != nil {
		return m.failInsert
	}
	for _, r := range rows {
		r.ID = m.nextID
		m.nextID++
		m.rows = append(m.rows, r)
	}
	return nil
}

func (m *mockScheduleWorkerRepo) DeleteBySchedule(_ context.Context, scheduleID uint) (int64, error) {
	kept := m.rows[:0]
	var n int64
	for _, r := range m.rows {
		if r.ScheduleID == scheduleID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

func (m *mockScheduleWorkerRepo) CountBySchedule(ctx context.Context, scheduleID uint) (int64, error) {
	rows, _ := m.ListBySchedule(ctx, scheduleID)
	return int64(len(rows)), nil
}

func (m *mockScheduleWorkerRepo) ListBySchedule(_ context.Context, scheduleID uint) ([]model.ScheduleWorker, error) {
	var result []model.ScheduleWorker
	for _, r := range m.rows {
		if r.ScheduleID == scheduleID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockScheduleWorkerRepo) List(_ context.Context, f repository.ProjectionFilter) ([]model.ScheduleWorker, error) {
	var result []model.ScheduleWorker
	for _, r := range m.rows {
		day := time.Time(r.ScheduleDate)
		if !f.IncludeInactive {
			s, ok := m.schedules.schedules[r.ScheduleID]
			if !ok || !s.IsActive {
				continue
			}
		}
		if f.WorkerID != nil && r.WorkerID != *f.WorkerID {
			continue
		}
		if f.SiteID != nil && r.SiteID != *f.SiteID {
			continue
		}
		if f.StartDate != nil && day.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && day.After(*f.EndDate) {
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		di, dj := time.Time(result[i].ScheduleDate), time.Time(result[j].ScheduleDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if result[i].Shift != result[j].Shift {
			return result[i].Shift < result[j].Shift
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (m *mockScheduleWorkerRepo) FindOutOfSync(ctx context.Context, includeInactive bool) ([]repository.SyncGap, error) {
	var gaps []repository.SyncGap
	for _, s := range m.schedules.schedules {
		if !includeInactive && !s.IsActive {
			continue
		}
		n, _ := m.CountBySchedule(ctx, s.ScheduleID)
		if int(n) != s.TotalWorkers {
			gaps = append(gaps, repository.SyncGap{ScheduleID: s.ScheduleID, TotalWorkers: s.TotalWorkers, RowCount: int(n)})
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].ScheduleID < gaps[j].ScheduleID })
	return gaps, nil
}

// ── Mock SiteRepository ──

type mockSiteRepo struct {
	sites map[uint]*model.Site
}

func newMockSiteRepo() *mockSiteRepo {
	return &mockSiteRepo{sites: make(map[uint]*model.Site)}
}

func (m *mockSiteRepo) Create(_ context.Context, site *model.Site) error {
	for _, s := range m.sites {
		if s.SiteCode == site.SiteCode {
			return gorm.ErrDuplicatedKey
		}
	}
	site.SiteID = uint(len(m.sites) + 1)
	m.sites[site.SiteID] = site
	return nil
}

func (m *mockSiteRepo) GetByID(_ context.Context, id uint) (*model.Site, error) {
	if s, ok := m.sites[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSiteRepo) List(_ context.Context, _ string, _ bool, _, _ int) ([]model.Site, int64, error) {
	var result []model.Site
	for _, s := range m.sites {
		result = append(result, *s)
	}
	return result, int64(len(result)), nil
}

func (m *mockSiteRepo) Update(_ context.Context, site *model.Site) error {
	m.sites[site.SiteID] = site
	return nil
}

func (m *mockSiteRepo) Delete(_ context.Context, id uint, _ string) error {
	delete(m.sites, id)
	return nil
}

// ── Mock WorkerRepository ──

type mockWorkerRepo struct {
	workers map[uint]*model.Worker
}

func newMockWorkerRepo() *mockWorkerRepo {
	return &mockWorkerRepo{workers: make(map[uint]*model.Worker)}
}

func (m *mockWorkerRepo) Create(_ context.Context, w *model.Worker) error {
	for _, existing := range m.workers {
		if existing.WorkerCode == w.WorkerCode {
			return gorm.ErrDuplicatedKey
		}
	}
	w.WorkerID = uint(len(m.workers) + 1)
	m.workers[w.WorkerID] = w
	return nil
}

func (m *mockWorkerRepo) GetByID(_ context.Context, id uint) (*model.Worker, error) {
	if w, ok := m.workers[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerRepo) GetByIDs(_ context.Context, ids []uint) ([]model.Worker, error) {
	var result []model.Worker
	for _, id := range ids {
		if w, ok := m.workers[id]; ok {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *mockWorkerRepo) List(_ context.Context, _ string, _ bool, _, _ int) ([]model.Worker, int64, error) {
	var result []model.Worker
	for _, w := range m.workers {
		result = append(result, *w)
	}
	return result, int64(len(result)), nil
}

func (m *mockWorkerRepo) Update(_ context.Context, w *model.Worker) error {
	m.workers[w.WorkerID] = w
	return nil
}

func (m *mockWorkerRepo) Delete(_ context.Context, id uint, _ string) error {
	delete(m.workers, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts    map[uint]*model.Shift
	listCalls int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[uint]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, sh *model.Shift) error {
	for _, existing := range m.shifts {
		if existing.Code == sh.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	sh.ShiftID = uint(len(m.shifts) + 1)
	m.shifts[sh.ShiftID] = sh
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id uint) (*model.Shift, error) {
	if sh, ok := m.shifts[id]; ok {
		return sh, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetByCode(_ context.Context, code string) (*model.Shift, error) {
	for _, sh := range m.shifts {
		if sh.Code == code {
			return sh, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context, includeInactive bool) ([]model.Shift, error) {
	m.listCalls++
	var result []model.Shift
	for _, sh := range m.shifts {
		if includeInactive || sh.IsActive {
			result = append(result, *sh)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, sh *model.Shift) error {
	m.shifts[sh.ShiftID] = sh
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id uint) error {
	delete(m.shifts, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "test-user-" + user.Username
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs      []model.AuditLog
	failWrite bool
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, l *model.AuditLog) error {
	if m.failWrite {
		return errors.New("audit store unavailable")
	}
	l.AuditLogID = uint(len(m.logs) + 1)
	m.logs = append(m.logs, *l)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, f repository.AuditLogFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	var matched []model.AuditLog
	for _, l := range m.logs {
		if f.EntityType != "" && l.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && l.EntityID != f.EntityID {
			continue
		}
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		matched = append(matched, l)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ════════════════════════════════════════════════════════════
// 聚合
// ════════════════════════════════════════════════════════════

type mockRepos struct {
	schedule       *mockScheduleRepo
	scheduleWorker *mockScheduleWorkerRepo
	site           *mockSiteRepo
	worker         *mockWorkerRepo
	shift          *mockShiftRepo
	user           *mockUserRepo
	auditLog       *mockAuditLogRepo
}

func newMockRepos() *mockRepos {
	schedules := newMockScheduleRepo()
	return &mockRepos{
		schedule:       schedules,
		scheduleWorker: newMockScheduleWorkerRepo(schedules),
		site:           newMockSiteRepo(),
		worker:         newMockWorkerRepo(),
		shift:          newMockShiftRepo(),
		user:           newMockUserRepo(),
		auditLog:       newMockAuditLogRepo(),
	}
}

// toRepository 组装 mock 组成的 Repository
func (r *mockRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:           r.user,
		Shift:          r.shift,
		Site:           r.site,
		Worker:         r.worker,
		Schedule:       r.schedule,
		ScheduleWorker: r.scheduleWorker,
		AuditLog:       r.auditLog,
	}
}

// seedDirectory day / night 两个班次、一个站点、n 名人员
func (r *mockRepos) seedDirectory(n int) {
	_ = r.shift.Create(context.Background(), &model.Shift{Code: "day", Name: "Day", IsActive: true})
	_ = r.shift.Create(context.Background(), &model.Shift{Code: "night", Name: "Night", IsActive: true})
	_ = r.site.Create(context.Background(), &model.Site{SiteCode: "S1", Name: "Central Plaza", IsActive: true})
	for i := 1; i <= n; i++ {
		_ = r.worker.Create(context.Background(), &model.Worker{
			WorkerCode: fmt.Sprintf("W%d", i),
			FirstName:  "Worker",
			LastName:   fmt.Sprintf("No.%d", i),
			IsActive:   true,
		})
	}
}

// mockSchedule 直接写入一条排班（绕过 Service），用于构造初始状态
func (r *mockRepos) mockSchedule(date time.Time, siteID uint, active bool, payload model.ShiftPayload) *model.Schedule {
	s := &model.Schedule{
		ScheduleDate: datatypes.Date(date),
		SiteID:       siteID,
		SiteName:     "Central Plaza",
		IsActive:     active,
	}
	s.Version = 1
	s.ApplyPayload(payload)
	r.schedule.insert(s)
	return s
}

// Transaction mock 无事务语义，直接以 mock 组合执行回调
func (r *mockRepos) Transaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(r.toRepository())
}
