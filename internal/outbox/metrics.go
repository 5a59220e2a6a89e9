package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_outbox_queue_depth",
		Help: "Number of side-effect tasks waiting in the outbox.",
	})
	taskAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_outbox_task_attempts_total",
		Help: "Task execution attempts by kind.",
	}, []string{"kind"})
	taskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_outbox_task_failures_total",
		Help: "Failed task executions by kind.",
	}, []string{"kind"})
	taskDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_outbox_task_dropped_total",
		Help: "Tasks dropped after exhausting retries, by kind.",
	}, []string{"kind"})
)
