// Package metrics 排班生成和调休流水的 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shiftplanner"

type Collectors struct {
	generationDuration *prometheus.HistogramVec
	generatedEntries   prometheus.Counter
	conflicts          *prometheus.CounterVec
	cycleResets        prometheus.Counter
	compOffTxns        *prometheus.CounterVec
	compOffDays        *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New 在 reg 上注册全部指标。测试中传入独立的 prometheus.NewRegistry()
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "generation_duration_seconds",
			Help:      "排班生成耗时",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"strategy", "dry_run"}),
		generatedEntries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "generated_entries_total",
			Help:      "生成的排班条数",
		}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "conflicts_total",
			Help:      "生成过程中报告的冲突",
		}, []string{"type", "severity"}),
		cycleResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "rotation_cycle_resets_total",
			Help:      "轮换池重置次数",
		}),
		compOffTxns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compoff",
			Name:      "transactions_total",
			Help:      "写入的调休流水",
		}, []string{"type", "banked"}),
		compOffDays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compoff",
			Name:      "days_total",
			Help:      "调休流水累计天数",
		}, []string{"type"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求数",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (c *Collectors) ObserveGeneration(result *scheduler.Result) {
	perf := result.PerformanceMetrics
	c.generationDuration.
		WithLabelValues(perf.Config.WeekendRotationStrategy, strconv.FormatBool(!perf.Persisted)).
		Observe(float64(perf.DurationMs) / 1000)
	c.generatedEntries.Add(float64(perf.EntriesGenerated))
	c.cycleResets.Add(float64(perf.CycleResets))
	for _, conflict := range result.Conflicts {
		c.conflicts.WithLabelValues(string(conflict.Type), string(conflict.Severity)).Inc()
	}
}

// CompOffRecorded 实现 compoff.Recorder
func (c *Collectors) CompOffRecorded(t *domain.CompOffTransaction) {
	c.compOffTxns.WithLabelValues(string(t.Type), strconv.FormatBool(t.IsBanked)).Inc()
	c.compOffDays.WithLabelValues(string(t.Type)).Add(t.Days)
}

func (c *Collectors) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
