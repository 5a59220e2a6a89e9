package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TaskKind identifies what a queued side effect does.
type TaskKind string

const (
	// TaskWebhookNotify triggers the n8n workflow webhook.
	TaskWebhookNotify TaskKind = "webhook_notify"
	// TaskKitchenStatus propagates a status change to the kitchen service.
	TaskKitchenStatus TaskKind = "kitchen_status"
	// TaskKitchenResync asks the kitchen service to re-sync an order's items.
	TaskKitchenResync TaskKind = "kitchen_resync"
)

// Task is one queued best-effort side effect. Tasks never influence the
// client-facing response of the request that enqueued them.
type Task struct {
	ID          string            `json:"id"`
	Kind        TaskKind          `json:"kind"`
	OrderID     string            `json:"order_id"`
	Params      map[string]string `json:"params"`
	Attempts    int               `json:"attempts"`
	NextAttempt time.Time         `json:"next_attempt"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewTask builds a task due immediately.
func NewTask(kind TaskKind, orderID string, params map[string]string) Task {
	now := time.Now().UTC()
	if params == nil {
		params = map[string]string{}
	}
	return Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		OrderID:     orderID,
		Params:      params,
		NextAttempt: now,
		CreatedAt:   now,
	}
}

// Store persists queued tasks.
type Store interface {
	Enqueue(ctx context.Context, task Task) error
	Due(ctx context.Context, now time.Time, limit int) ([]Task, error)
	MarkDone(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	Depth(ctx context.Context) (int, error)
}

// Handler executes one task. A nil return removes the task; an error
// reschedules it with backoff.
type Handler func(ctx context.Context, task Task) error

const (
	maxAttempts  = 10
	baseBackoff  = 5 * time.Second
	maxBackoff   = 5 * time.Minute
	pollInterval = 2 * time.Second
	batchSize    = 16
)

// Backoff returns the delay before the given retry attempt: capped binary
// exponential starting at baseBackoff.
func Backoff(attempts int) time.Duration {
	d := baseBackoff
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Worker drains the store, executing due tasks and rescheduling failures.
type Worker struct {
	store   Store
	handler Handler
	log     *logrus.Entry
}

func NewWorker(store Store, handler Handler) *Worker {
	return &Worker{
		store:   store,
		handler: handler,
		log:     logrus.WithField("component", "outbox"),
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain executes every currently-due task once. Exposed for tests and for
// the worker loop.
func (w *Worker) Drain(ctx context.Context) {
	now := time.Now().UTC()
	tasks, err := w.store.Due(ctx, now, batchSize)
	if err != nil {
		w.log.WithError(err).Error("failed to load due tasks")
		return
	}
	for _, task := range tasks {
		w.runTask(ctx, task)
	}
	if depth, err := w.store.Depth(ctx); err == nil {
		queueDepth.Set(float64(depth))
	}
}

func (w *Worker) runTask(ctx context.Context, task Task) {
	taskAttempts.WithLabelValues(string(task.Kind)).Inc()
	err := w.handler(ctx, task)
	if err == nil {
		if err := w.store.MarkDone(ctx, task.ID); err != nil {
			w.log.WithError(err).WithField("task", task.ID).Error("failed to mark task done")
		}
		return
	}

	attempts := task.Attempts + 1
	logEntry := w.log.WithError(err).WithFields(logrus.Fields{
		"task":     task.ID,
		"kind":     task.Kind,
		"order_id": task.OrderID,
		"attempts": attempts,
	})
	taskFailures.WithLabelValues(string(task.Kind)).Inc()

	if attempts >= maxAttempts {
		logEntry.Error("task exhausted retries, dropping")
		taskDropped.WithLabelValues(string(task.Kind)).Inc()
		if err := w.store.MarkDone(ctx, task.ID); err != nil {
			w.log.WithError(err).WithField("task", task.ID).Error("failed to drop task")
		}
		return
	}

	next := time.Now().UTC().Add(Backoff(attempts))
	logEntry.WithField("next_attempt", next).Warn("task failed, rescheduling")
	if err := w.store.Reschedule(ctx, task.ID, attempts, next, err.Error()); err != nil {
		w.log.WithError(err).WithField("task", task.ID).Error("failed to reschedule task")
	}
}
