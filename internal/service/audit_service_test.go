package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/pkg/events"
)

type capturePublisher struct {
	events []events.ChangeEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev events.ChangeEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestDBAuditRecorder_Record(t *testing.T) {
	repos := newMockRepos()
	repo := repos.toRepository()
	rec := NewDBAuditRecorder(repo)

	ctx := WithRequestID(WithClientIP(context.Background(), "10.0.0.8"), "req-7")
	err := rec.Record(ctx, AuditEntry{
		Action:        AuditActionUpdate,
		EntityType:    "schedules",
		EntityID:      "7",
		UserID:        "admin-1",
		Before:        map[string]int{"total_workers": 1},
		After:         map[string]int{"total_workers": 2},
		ChangedFields: []string{"total_workers"},
	})
	if err != nil {
		t.Fatalf("Record 失败: %v", err)
	}

	svc := NewAuditService(repo, zap.NewNop())
	logs, total, err := svc.List(context.Background(), &dto.AuditLogListRequest{EntityType: "schedules"})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Fatalf("期望 1 条审计记录，实际 %d", total)
	}
	l := logs[0]
	if l.IPAddress != "10.0.0.8" {
		t.Errorf("应记录客户端 IP，实际 %q", l.IPAddress)
	}
	if l.RequestID != "req-7" {
		t.Errorf("应记录请求 ID，实际 %q", l.RequestID)
	}
	var after map[string]int
	if err := json.Unmarshal(l.After, &after); err != nil || after["total_workers"] != 2 {
		t.Errorf("after 快照不正确: %s", l.After)
	}
	if len(l.ChangedFields) != 1 || l.ChangedFields[0] != "total_workers" {
		t.Errorf("changed_fields 不正确: %v", l.ChangedFields)
	}
	if l.Before == nil {
		t.Error("before 快照不应为空")
	}
}

func TestMultiRecorder_PublishesAndJoinsErrors(t *testing.T) {
	repos := newMockRepos()
	repos.auditLog.failWrite = true
	pub := &capturePublisher{}

	rec := MultiRecorder{NewDBAuditRecorder(repos.toRepository()), NewEventAuditRecorder(pub)}
	err := rec.Record(WithRequestID(context.Background(), "req-9"), AuditEntry{
		Action:     AuditActionCreate,
		EntityType: "schedules",
		EntityID:   "1",
		After:      map[string]string{"site_name": "Central Plaza"},
	})
	if err == nil {
		t.Fatal("数据库写入失败应返回错误")
	}
	if len(pub.events) != 1 {
		t.Fatalf("其余记录器仍应执行，实际事件数 %d", len(pub.events))
	}
	if pub.events[0].Action != AuditActionCreate || pub.events[0].EntityID != "1" {
		t.Errorf("事件内容不正确: %+v", pub.events[0])
	}
	if pub.events[0].RequestID != "req-9" {
		t.Errorf("事件应携带请求 ID，实际 %q", pub.events[0].RequestID)
	}

	pub.err = errors.New("nats down")
	repos.auditLog.failWrite = false
	if err := rec.Record(context.Background(), AuditEntry{Action: AuditActionDelete, EntityType: "schedules", EntityID: "1"}); err == nil {
		t.Error("推送失败应返回错误")
	}
	if len(repos.auditLog.logs) != 1 {
		t.Error("数据库记录器应已写入")
	}
}
