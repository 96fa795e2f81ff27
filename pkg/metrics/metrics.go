// Package metrics 排班写入、投影同步与回填的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ScheduleMetrics 排班模块指标
// 所有方法对 nil 接收者安全，未启用指标时直接传 nil
type ScheduleMetrics struct {
	writesTotal        *prometheus.CounterVec
	projectionRows     *prometheus.CounterVec
	projectionDuration prometheus.Histogram
	backfillRuns       *prometheus.CounterVec
	backfillFailures   prometheus.Counter
	duplicateRetries   prometheus.Counter

	collectors []prometheus.Collector
}

// NewScheduleMetrics 创建并注册排班指标
func NewScheduleMetrics(registry prometheus.Registerer) (*ScheduleMetrics, error) {
	m := &ScheduleMetrics{
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_schedule_writes_total",
			Help: "排班写操作次数",
		}, []string{"action", "status"}), // action: create|reactivate|update|deactivate|delete
		projectionRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_projection_rows_total",
			Help: "投影表写入 / 删除行数",
		}, []string{"op"}), // op: insert|delete
		projectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "staffhub_projection_sync_duration_seconds",
			Help:    "单个排班投影全量替换耗时",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		backfillRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staffhub_backfill_runs_total",
			Help: "投影回填执行次数",
		}, []string{"status"}),
		backfillFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staffhub_backfill_schedule_failures_total",
			Help: "回填过程中失败的排班数",
		}),
		duplicateRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "staffhub_schedule_duplicate_retries_total",
			Help: "并发创建触发唯一键冲突后的重试次数",
		}),
	}
	m.collectors = []prometheus.Collector{
		m.writesTotal, m.projectionRows, m.projectionDuration,
		m.backfillRuns, m.backfillFailures, m.duplicateRetries,
	}

	for _, c := range m.collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWrite 记录一次排班写操作
func (m *ScheduleMetrics) RecordWrite(action string, err error) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(action, status(err)).Inc()
}

// RecordProjection 记录一次投影替换
func (m *ScheduleMetrics) RecordProjection(deleted, inserted int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.projectionRows.WithLabelValues("delete").Add(float64(deleted))
	m.projectionRows.WithLabelValues("insert").Add(float64(inserted))
	m.projectionDuration.Observe(elapsed.Seconds())
}

// RecordBackfill 记录一次回填
func (m *ScheduleMetrics) RecordBackfill(failed int, err error) {
	if m == nil {
		return
	}
	m.backfillRuns.WithLabelValues(status(err)).Inc()
	m.backfillFailures.Add(float64(failed))
}

// RecordDuplicateRetry 记录唯一键冲突重试
func (m *ScheduleMetrics) RecordDuplicateRetry() {
	if m == nil {
		return
	}
	m.duplicateRetries.Inc()
}
