// Package middleware provides cross-cutting concerns for the cooking
// engine: task-level metrics and tracing observers the chef notifies
// around every task.
package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.TaskObserver = (*PrometheusTaskMetrics)(nil)

// PrometheusTaskMetrics implements the TaskObserver interface using
// Prometheus, providing real-time monitoring of task throughput,
// latency, and failure rates per operation kind and type.
type PrometheusTaskMetrics struct {
	tasksTotal    *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	targetsCooked *prometheus.CounterVec
}

// NewPrometheusTaskMetrics creates the observer and registers its
// metrics in the given registerer; nil targets the default registry.
func NewPrometheusTaskMetrics(reg prometheus.Registerer) *PrometheusTaskMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusTaskMetrics{
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cook_tasks_total",
				Help: "Total number of tasks cooked, by kind, type, and outcome.",
			},
			[]string{"kind", "type", "status"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cook_task_duration_seconds",
				Help:    "Wall-clock duration of task execution.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "type"},
		),
		targetsCooked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cook_task_targets_total",
				Help: "Total number of dataset targets processed by tasks.",
			},
			[]string{"kind", "type"},
		),
	}
}

// TaskStarted records the target count; the context passes through
// unchanged.
func (m *PrometheusTaskMetrics) TaskStarted(ctx context.Context, family domain.Family, opType string, targets int) context.Context {
	m.targetsCooked.WithLabelValues(string(family), opType).Add(float64(targets))
	return ctx
}

// TaskCompleted records duration and outcome of a finished task.
func (m *PrometheusTaskMetrics) TaskCompleted(_ context.Context, family domain.Family, opType string, duration time.Duration, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.tasksTotal.WithLabelValues(string(family), opType, status).Inc()
	m.taskDuration.WithLabelValues(string(family), opType).Observe(duration.Seconds())
}
