package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	pkgerrors "github.com/S9ine/demo-app-s9-project/pkg/errors"
)

// ── 测试辅助 ──

type recordingAudit struct {
	entries []AuditEntry
	err     error
}

func (r *recordingAudit) Record(_ context.Context, e AuditEntry) error {
	r.entries = append(r.entries, e)
	return r.err
}

func (r *recordingAudit) last() AuditEntry {
	return r.entries[len(r.entries)-1]
}

func setupTestScheduleService() (ScheduleService, *mockRepos, *recordingAudit) {
	repos := newMockRepos()
	repos.seedDirectory(3)
	repo := repos.toRepository()
	logger := zap.NewNop()
	audit := &recordingAudit{}
	shifts := NewShiftService(repo, nil, time.Minute, logger)
	svc := newScheduleService(repo, repos, shifts, audit, nil, logger)
	return svc, repos, audit
}

func createReq(date string, shifts model.ShiftPayload) *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		ScheduleDate: date,
		SiteID:       1,
		Shifts:       shifts,
	}
}

func dayW1() model.ShiftPayload {
	return model.ShiftPayload{
		"day":   {{WorkerID: 1, Position: "Guard", Pay: model.Pay{HiringRate: 500}}},
		"night": {},
	}
}

func projectionFor(repos *mockRepos, scheduleID uint) []model.ScheduleWorker {
	rows, _ := repos.scheduleWorker.ListBySchedule(context.Background(), scheduleID)
	return rows
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func TestScheduleService_Create_Success(t *testing.T) {
	svc, repos, audit := setupTestScheduleService()

	res, err := svc.Create(context.Background(), createReq("2025-03-01", dayW1()), "admin-1")
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if res.Result != CreateResultCreated {
		t.Errorf("期望 created，实际 %s", res.Result)
	}
	if res.Schedule.TotalWorkers != 1 {
		t.Errorf("期望总人数 1，实际 %d", res.Schedule.TotalWorkers)
	}
	if res.Schedule.ShiftCounts["day"] != 1 || res.Schedule.ShiftCounts["night"] != 0 {
		t.Errorf("班次人数不正确: %v", res.Schedule.ShiftCounts)
	}
	if res.Schedule.SiteName != "Central Plaza" {
		t.Errorf("未传站点名时应取目录名称，实际 %q", res.Schedule.SiteName)
	}
	if res.Schedule.Version != 1 {
		t.Errorf("新建排班版本应为 1，实际 %d", res.Schedule.Version)
	}

	rows := projectionFor(repos, res.ID)
	if len(rows) != 1 {
		t.Fatalf("期望 1 条投影行，实际 %d", len(rows))
	}
	if rows[0].WorkerID != 1 || rows[0].Shift != "day" || rows[0].HiringRate != 500 {
		t.Errorf("投影行内容不正确: %+v", rows[0])
	}
	if rows[0].WorkerName != "Worker No.1" || rows[0].WorkerCode != "W1" {
		t.Errorf("人员姓名应从目录补全，实际 %q / %q", rows[0].WorkerCode, rows[0].WorkerName)
	}

	if len(audit.entries) != 1 || audit.last().Action != AuditActionCreate {
		t.Fatalf("期望一条 create 审计记录，实际 %+v", audit.entries)
	}
	if audit.last().EntityType != "schedules" {
		t.Errorf("审计实体类型应为 schedules，实际 %s", audit.last().EntityType)
	}
}

func TestScheduleService_Create_Conflict(t *testing.T) {
	svc, _, _ := setupTestScheduleService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1"); err != nil {
		t.Fatalf("首次 Create 失败: %v", err)
	}
	_, err := svc.Create(ctx, createReq("2025-03-01", model.ShiftPayload{}), "admin-1")
	if !errors.Is(err, ErrScheduleConflict) {
		t.Errorf("期望 ErrScheduleConflict，实际: %v", err)
	}
}

func TestScheduleService_Create_ReactivatesInactive(t *testing.T) {
	svc, repos, audit := setupTestScheduleService()
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if err := svc.SoftDelete(ctx, first.ID, "admin-1"); err != nil {
		t.Fatalf("SoftDelete 失败: %v", err)
	}

	req := createReq("2025-03-01", model.ShiftPayload{
		"night": {{WorkerID: 2, Position: "Guard"}, {WorkerID: 3, Position: "Supervisor"}},
	})
	req.SiteName = "Central Plaza (North Gate)"
	req.Remarks = "重新启用"

	again, err := svc.Create(ctx, req, "admin-2")
	if err != nil {
		t.Fatalf("重新启用失败: %v", err)
	}
	if again.Result != CreateResultReactivated {
		t.Errorf("期望 reactivated，实际 %s", again.Result)
	}
	if again.ID != first.ID {
		t.Errorf("重新启用应复用原 ID %d，实际 %d", first.ID, again.ID)
	}
	if len(repos.schedule.schedules) != 1 {
		t.Errorf("同一 (日期, 站点) 只允许一行，实际 %d", len(repos.schedule.schedules))
	}
	if !again.Schedule.IsActive || again.Schedule.TotalWorkers != 2 {
		t.Errorf("重新启用后状态不正确: %+v", again.Schedule)
	}
	if again.Schedule.SiteName != "Central Plaza (North Gate)" || again.Schedule.Remarks != "重新启用" {
		t.Errorf("站点名与备注应被覆盖: %+v", again.Schedule)
	}
	if again.Schedule.Version <= first.Schedule.Version {
		t.Errorf("重新启用应递增版本号")
	}

	rows := projectionFor(repos, again.ID)
	if len(rows) != 2 {
		t.Fatalf("期望 2 条投影行，实际 %d", len(rows))
	}
	for _, r := range rows {
		if r.WorkerID == 1 {
			t.Error("旧 payload 的投影行不应残留")
		}
	}

	entry := audit.last()
	if entry.Action != AuditActionReactivate {
		t.Errorf("期望 reactivate 审计动作，实际 %s", entry.Action)
	}
	if !containsString(entry.ChangedFields, "is_active") || !containsString(entry.ChangedFields, "shifts") {
		t.Errorf("changed_fields 应包含 is_active 与 shifts，实际 %v", entry.ChangedFields)
	}
	if entry.Before == nil {
		t.Error("重新启用应记录 before 快照")
	}
}

func TestScheduleService_Create_RaceRetriesAsReactivation(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()

	// 并发请求抢先写入一条已停用记录
	competitor := &model.Schedule{SiteID: 1, SiteName: "Central Plaza"}
	competitor.ScheduleDate = mustDate("2025-03-01")
	competitor.Version = 1
	competitor.ApplyPayload(model.ShiftPayload{})
	repos.schedule.raceOnCreate = competitor

	res, err := svc.Create(context.Background(), createReq("2025-03-01", dayW1()), "admin-1")
	if err != nil {
		t.Fatalf("唯一键冲突后应重试成功: %v", err)
	}
	if res.Result != CreateResultReactivated {
		t.Errorf("期望 reactivated，实际 %s", res.Result)
	}
	if len(projectionFor(repos, res.ID)) != 1 {
		t.Error("重试后应生成投影行")
	}
}

func TestScheduleService_Create_RaceAgainstActiveIsConflict(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()

	competitor := &model.Schedule{SiteID: 1, SiteName: "Central Plaza", IsActive: true}
	competitor.ScheduleDate = mustDate("2025-03-01")
	competitor.Version = 1
	competitor.ApplyPayload(model.ShiftPayload{})
	repos.schedule.raceOnCreate = competitor

	_, err := svc.Create(context.Background(), createReq("2025-03-01", dayW1()), "admin-1")
	if !errors.Is(err, ErrScheduleConflict) {
		t.Errorf("期望 ErrScheduleConflict，实际: %v", err)
	}
}

func TestScheduleService_Create_Validation(t *testing.T) {
	svc, _, _ := setupTestScheduleService()

	payload := model.ShiftPayload{
		"swing": {{WorkerID: 1}},
		"day":   {{WorkerID: 0}, {WorkerID: 2, Pay: model.Pay{DailyIncome: -1}}},
	}
	_, err := svc.Create(context.Background(), createReq("2025-03-01", payload), "admin-1")

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	want := []string{"shifts.day[0].worker_id", "shifts.day[1].daily_income", "shifts.swing"}
	if len(ve.Fields) != len(want) {
		t.Fatalf("期望 %d 个问题字段，实际 %+v", len(want), ve.Fields)
	}
	for i, f := range want {
		if ve.Fields[i].Field != f {
			t.Errorf("第 %d 个问题字段期望 %s，实际 %s", i, f, ve.Fields[i].Field)
		}
	}
}

func TestScheduleService_Create_BadDate(t *testing.T) {
	svc, _, _ := setupTestScheduleService()

	_, err := svc.Create(context.Background(), createReq("01/03/2025", dayW1()), "admin-1")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "schedule_date" {
		t.Errorf("期望 schedule_date 校验失败，实际: %v", err)
	}
}

func TestScheduleService_Create_UnknownReferences(t *testing.T) {
	svc, _, _ := setupTestScheduleService()
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("2025-03-01", model.ShiftPayload{"day": {{WorkerID: 99}}}), "admin-1")
	if !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("期望 ErrWorkerNotFound，实际: %v", err)
	}

	req := createReq("2025-03-01", dayW1())
	req.SiteID = 42
	_, err = svc.Create(ctx, req, "admin-1")
	if !errors.Is(err, ErrSiteNotFound) {
		t.Errorf("期望 ErrSiteNotFound，实际: %v", err)
	}
}

func TestScheduleService_Create_AuditFailureDoesNotFail(t *testing.T) {
	svc, _, audit := setupTestScheduleService()
	audit.err = errors.New("audit down")

	if _, err := svc.Create(context.Background(), createReq("2025-03-01", dayW1()), "admin-1"); err != nil {
		t.Errorf("审计失败不应影响写入结果: %v", err)
	}
}

func TestScheduleService_Create_EmptyPayload(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()

	res, err := svc.Create(context.Background(), createReq("2025-03-01", nil), "admin-1")
	if err != nil {
		t.Fatalf("空 payload 应允许创建: %v", err)
	}
	if res.Schedule.TotalWorkers != 0 || len(res.Schedule.ShiftCounts) != 0 {
		t.Errorf("空 payload 人数应为 0: %+v", res.Schedule)
	}
	if len(projectionFor(repos, res.ID)) != 0 {
		t.Error("空 payload 不应生成投影行")
	}
}

// ════════════════════════════════════════════════════════════
// Update
// ════════════════════════════════════════════════════════════

func TestScheduleService_Update_ReplacesProjection(t *testing.T) {
	svc, repos, audit := setupTestScheduleService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	shifts := model.ShiftPayload{
		"day":   {},
		"night": {{WorkerID: 2, Position: "Guard", Pay: model.Pay{HiringRate: 450}}},
	}
	updated, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleRequest{Shifts: &shifts}, "admin-1")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.TotalWorkers != 1 || updated.ShiftCounts["night"] != 1 || updated.ShiftCounts["day"] != 0 {
		t.Errorf("人数应按新 payload 重算: %+v", updated)
	}

	rows := projectionFor(repos, created.ID)
	if len(rows) != 1 {
		t.Fatalf("期望 1 条投影行，实际 %d", len(rows))
	}
	if rows[0].WorkerID != 2 || rows[0].Shift != "night" || rows[0].HiringRate != 450 {
		t.Errorf("投影行应为 W2/night: %+v", rows[0])
	}

	entry := audit.last()
	if entry.Action != AuditActionUpdate {
		t.Errorf("期望 update 审计动作，实际 %s", entry.Action)
	}
	if containsString(entry.ChangedFields, "remarks") {
		t.Errorf("未修改的字段不应出现在 changed_fields: %v", entry.ChangedFields)
	}
}

func TestScheduleService_Update_RemarksOnlyKeepsProjection(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	before := projectionFor(repos, created.ID)

	remarks := "雨天加岗"
	updated, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleRequest{Remarks: &remarks}, "admin-1")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.Remarks != remarks || updated.TotalWorkers != 1 {
		t.Errorf("只应修改备注: %+v", updated)
	}

	after := projectionFor(repos, created.ID)
	if len(after) != 1 || after[0].ID != before[0].ID {
		t.Error("未修改 shifts 时不应重建投影")
	}
}

func TestScheduleService_Update_NotFound(t *testing.T) {
	svc, _, _ := setupTestScheduleService()

	remarks := "x"
	_, err := svc.Update(context.Background(), 999, &dto.UpdateScheduleRequest{Remarks: &remarks}, "admin-1")
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("期望 ErrScheduleNotFound，实际: %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "999") {
		t.Errorf("错误信息应包含排班 ID，实际: %v", err)
	}
}

func TestScheduleService_NotFoundCarriesID(t *testing.T) {
	svc, _, _ := setupTestScheduleService()
	ctx := context.Background()

	_, getErr := svc.GetByID(ctx, 404)
	checks := map[string]error{
		"GetByID":    getErr,
		"SoftDelete": svc.SoftDelete(ctx, 404, "admin-1"),
		"HardDelete": svc.HardDelete(ctx, 404, "admin-1"),
	}
	for op, err := range checks {
		if !errors.Is(err, ErrScheduleNotFound) {
			t.Errorf("%s 期望 ErrScheduleNotFound，实际: %v", op, err)
			continue
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("%s 错误信息应包含排班 ID，实际: %v", op, err)
		}
	}
}

func TestScheduleService_Update_StaleVersion(t *testing.T) {
	svc, _, _ := setupTestScheduleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")

	remarks := "first"
	v := created.Schedule.Version
	if _, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleRequest{Remarks: &remarks, Version: &v}, "admin-1"); err != nil {
		t.Fatalf("携带当前版本的更新应成功: %v", err)
	}

	remarks = "second"
	_, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleRequest{Remarks: &remarks, Version: &v}, "admin-2")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestScheduleService_Update_InvalidShifts(t *testing.T) {
	svc, _, _ := setupTestScheduleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	shifts := model.ShiftPayload{"graveyard": {{WorkerID: 1}}}

	_, err := svc.Update(ctx, created.ID, &dto.UpdateScheduleRequest{Shifts: &shifts}, "admin-1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("期望 ValidationError，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 删除
// ════════════════════════════════════════════════════════════

func TestScheduleService_SoftDelete_KeepsProjection(t *testing.T) {
	svc, repos, audit := setupTestScheduleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	if err := svc.SoftDelete(ctx, created.ID, "admin-1"); err != nil {
		t.Fatalf("SoftDelete 失败: %v", err)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("停用后仍应可按 ID 查询: %v", err)
	}
	if got.IsActive {
		t.Error("停用后 is_active 应为 false")
	}
	if got.TotalWorkers != 1 {
		t.Error("停用不应修改 payload")
	}
	if len(projectionFor(repos, created.ID)) != 1 {
		t.Error("停用不应删除投影行")
	}
	if audit.last().Action != AuditActionDeactivate {
		t.Errorf("期望 deactivate 审计动作，实际 %s", audit.last().Action)
	}

	if err := svc.SoftDelete(ctx, 999, "admin-1"); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("期望 ErrScheduleNotFound，实际: %v", err)
	}
}

func TestScheduleService_HardDelete_Cascades(t *testing.T) {
	svc, repos, audit := setupTestScheduleService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	other, _ := svc.Create(ctx, createReq("2025-03-02", dayW1()), "admin-1")

	if err := svc.HardDelete(ctx, created.ID, "admin-1"); err != nil {
		t.Fatalf("HardDelete 失败: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("永久删除后应查询不到，实际: %v", err)
	}
	if len(projectionFor(repos, created.ID)) != 0 {
		t.Error("永久删除应同时删除投影行")
	}
	if len(projectionFor(repos, other.ID)) != 1 {
		t.Error("其他排班的投影行不应受影响")
	}
	if audit.last().Action != AuditActionDelete {
		t.Errorf("期望 delete 审计动作，实际 %s", audit.last().Action)
	}

	if err := svc.HardDelete(ctx, created.ID, "admin-1"); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("重复删除期望 ErrScheduleNotFound，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func TestScheduleService_List_DefaultsToActive(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()
	ctx := context.Background()

	_ = repos.site.Create(ctx, &model.Site{SiteCode: "S2", Name: "Harbour View", IsActive: true})
	a, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	b, _ := svc.Create(ctx, createReq("2025-03-03", dayW1()), "admin-1")
	req := createReq("2025-03-02", dayW1())
	req.SiteID = 2
	_, _ = svc.Create(ctx, req, "admin-1")
	_ = svc.SoftDelete(ctx, a.ID, "admin-1")

	items, err := svc.List(ctx, &dto.ScheduleListRequest{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("默认只返回启用排班，期望 2 条，实际 %d", len(items))
	}
	if items[0].ID != b.ID || items[0].ScheduleDate != "2025-03-03" {
		t.Errorf("应按日期倒序，首条期望 %d，实际 %+v", b.ID, items[0])
	}

	inactive := false
	items, _ = svc.List(ctx, &dto.ScheduleListRequest{IsActive: &inactive})
	if len(items) != 1 || items[0].ID != a.ID {
		t.Errorf("is_active=false 应只返回停用排班: %+v", items)
	}

	site := uint(2)
	items, _ = svc.List(ctx, &dto.ScheduleListRequest{Start: "2025-03-01", End: "2025-03-02", SiteID: &site})
	if len(items) != 1 || items[0].SiteID != 2 {
		t.Errorf("日期范围与站点过滤不正确: %+v", items)
	}

	if _, err := svc.List(ctx, &dto.ScheduleListRequest{Start: "2025-03-05", End: "2025-03-01"}); err == nil {
		t.Error("结束日期早于开始日期应返回错误")
	}
}

func TestScheduleService_GetByDate(t *testing.T) {
	svc, repos, _ := setupTestScheduleService()
	ctx := context.Background()

	_ = repos.site.Create(ctx, &model.Site{SiteCode: "S2", Name: "Harbour View", IsActive: true})
	first, _ := svc.Create(ctx, createReq("2025-03-01", dayW1()), "admin-1")
	req := createReq("2025-03-01", model.ShiftPayload{"night": {{WorkerID: 3}}})
	req.SiteID = 2
	second, _ := svc.Create(ctx, req, "admin-1")
	_, _ = svc.Create(ctx, createReq("2025-03-02", dayW1()), "admin-1")

	byDate, err := svc.GetByDate(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("GetByDate 失败: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("期望 2 个站点，实际 %d", len(byDate))
	}
	if byDate[1].ScheduleID != first.ID || len(byDate[1].Shifts["day"]) != 1 {
		t.Errorf("站点 1 数据不正确: %+v", byDate[1])
	}
	if byDate[2].ScheduleID != second.ID || byDate[2].SiteName != "Harbour View" {
		t.Errorf("站点 2 数据不正确: %+v", byDate[2])
	}

	_ = svc.SoftDelete(ctx, second.ID, "admin-1")
	byDate, _ = svc.GetByDate(ctx, "2025-03-01")
	if _, ok := byDate[2]; ok {
		t.Error("停用排班不应出现在按日期查询结果中")
	}
}

func TestDecideCreate(t *testing.T) {
	cases := []struct {
		name     string
		existing *model.Schedule
		want     createAction
	}{
		{"不存在", nil, createInsert},
		{"已启用", &model.Schedule{IsActive: true}, createConflict},
		{"已停用", &model.Schedule{IsActive: false}, createReactivate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decideCreate(tc.existing); got != tc.want {
				t.Errorf("期望 %v，实际 %v", tc.want, got)
			}
		})
	}
}

// ── 辅助函数 ──

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func mustDate(s string) datatypes.Date {
	t, err := time.Parse(dto.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return datatypes.Date(t)
}
