package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	"github.com/S9ine/demo-app-s9-project/pkg/events"
)

// 审计动作
const (
	AuditActionCreate     = "create"
	AuditActionReactivate = "reactivate"
	AuditActionUpdate     = "update"
	AuditActionDeactivate = "deactivate"
	AuditActionDelete     = "delete"
)

// AuditEntry 一次已提交的变更
type AuditEntry struct {
	Action        string
	EntityType    string
	EntityID      string
	UserID        string
	Before        interface{}
	After         interface{}
	ChangedFields []string
}

// AuditRecorder 审计记录器，在事务提交后调用
// 记录失败只记日志，不影响业务结果
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// EventPublisher 变更事件发布接口（NATS 实现见 pkg/events）
type EventPublisher interface {
	Publish(ctx context.Context, ev events.ChangeEvent) error
}

// ── 客户端 IP / 请求 ID 透传 ──

type clientIPKey struct{}

type requestIDKey struct{}

// WithClientIP 将客户端 IP 放入 ctx，审计记录时读取
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// WithRequestID 将请求追踪 ID 放入 ctx，审计记录与变更事件携带该 ID
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestIDFrom 读取 ctx 中的请求追踪 ID
func RequestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

// ════════════════════════════════════════════════════════════
// 数据库审计记录器
// ════════════════════════════════════════════════════════════

type dbAuditRecorder struct {
	repo *repository.Repository
}

// NewDBAuditRecorder 写入 audit_logs 表的记录器
func NewDBAuditRecorder(repo *repository.Repository) AuditRecorder {
	return &dbAuditRecorder{repo: repo}
}

func (r *dbAuditRecorder) Record(ctx context.Context, entry AuditEntry) error {
	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}

	fields := entry.ChangedFields
	if fields == nil {
		fields = []string{}
	}

	return r.repo.AuditLog.Create(ctx, &model.AuditLog{
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		UserID:        entry.UserID,
		Before:        before,
		After:         after,
		ChangedFields: datatypes.NewJSONType(fields),
		IPAddress:     clientIP(ctx),
		RequestID:     RequestIDFrom(ctx),
	})
}

func marshalSnapshot(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化审计快照失败: %w", err)
	}
	return datatypes.JSON(b), nil
}

// ════════════════════════════════════════════════════════════
// 事件推送记录器
// ════════════════════════════════════════════════════════════

type eventAuditRecorder struct {
	pub EventPublisher
}

// NewEventAuditRecorder 将审计条目转发为变更事件
func NewEventAuditRecorder(pub EventPublisher) AuditRecorder {
	return &eventAuditRecorder{pub: pub}
}

func (r *eventAuditRecorder) Record(ctx context.Context, entry AuditEntry) error {
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}
	return r.pub.Publish(ctx, events.ChangeEvent{
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		UserID:        entry.UserID,
		ChangedFields: entry.ChangedFields,
		After:         json.RawMessage(after),
		RequestID:     RequestIDFrom(ctx),
	})
}

// MultiRecorder 依次调用多个记录器，合并错误
type MultiRecorder []AuditRecorder

func (m MultiRecorder) Record(ctx context.Context, entry AuditEntry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ════════════════════════════════════════════════════════════
// 审计日志查询
// ════════════════════════════════════════════════════════════

// AuditService 审计日志查询接口
type AuditService interface {
	List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	logs, total, err := s.repo.AuditLog.List(ctx, repository.AuditLogFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserID:     req.UserID,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		result = append(result, dto.AuditLogResponse{
			ID:            l.AuditLogID,
			Action:        l.Action,
			EntityType:    l.EntityType,
			EntityID:      l.EntityID,
			UserID:        l.UserID,
			Before:        json.RawMessage(l.Before),
			After:         json.RawMessage(l.After),
			ChangedFields: l.ChangedFields.Data(),
			IPAddress:     l.IPAddress,
			RequestID:     l.RequestID,
			CreatedAt:     l.CreatedAt.Format(dto.TimeFormat),
		})
	}
	return result, total, nil
}
