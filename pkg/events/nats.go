// Package events 通过 NATS 推送排班变更事件，供下游薪资 / 通知系统订阅
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/config"
)

// ChangeEvent 变更事件载荷
type ChangeEvent struct {
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	UserID        string          `json:"user_id,omitempty"`
	ChangedFields []string        `json:"changed_fields,omitempty"`
	After         json.RawMessage `json:"after,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Publisher NATS 事件发布器
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// Connect 按配置连接 NATS
func Connect(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("staffhub-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS 连接断开", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS 已重连", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS 连接失败: %w", err)
	}

	logger.Info("NATS 连接成功", zap.String("url", cfg.URL))
	return NewPublisher(nc, cfg.SubjectPrefix, logger), nil
}

// NewPublisher 包装已有连接
func NewPublisher(nc *nats.Conn, prefix string, logger *zap.Logger) *Publisher {
	if prefix == "" {
		prefix = "staffhub"
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger}
}

// Subject 事件主题：<prefix>.<entity_type>.<action>
func (p *Publisher) Subject(entityType, action string) string {
	return p.prefix + "." + entityType + "." + action
}

// Publish 发布事件，ctx 已取消时不再发送
func (p *Publisher) Publish(ctx context.Context, ev ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if err := p.nc.Publish(p.Subject(ev.EntityType, ev.Action), data); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Close 刷出缓冲并关闭连接
func (p *Publisher) Close() error {
	return p.nc.Drain()
}
