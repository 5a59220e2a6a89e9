package cancel

import (
	"context"
	"fmt"
	"net/url"

	"cafe-gateway/internal/outbox"
)

// KitchenAPI is the slice of the kitchen service the executor needs.
type KitchenAPI interface {
	UpdateStatus(ctx context.Context, orderID, status, reason string) error
	SyncOrderItems(ctx context.Context, orderID string) error
}

// Notifier triggers the workflow webhook.
type Notifier interface {
	Notify(ctx context.Context, params url.Values) error
}

// Executor resolves queued side-effect tasks against the real services.
// Wired as the outbox worker's handler.
type Executor struct {
	kitchen KitchenAPI
	webhook Notifier
}

func NewExecutor(kitchen KitchenAPI, webhook Notifier) *Executor {
	return &Executor{kitchen: kitchen, webhook: webhook}
}

func (e *Executor) Execute(ctx context.Context, task outbox.Task) error {
	switch task.Kind {
	case outbox.TaskWebhookNotify:
		params := url.Values{}
		for k, v := range task.Params {
			params.Set(k, v)
		}
		return e.webhook.Notify(ctx, params)
	case outbox.TaskKitchenStatus:
		return e.kitchen.UpdateStatus(ctx, task.OrderID, task.Params["status"], task.Params["reason"])
	case outbox.TaskKitchenResync:
		return e.kitchen.SyncOrderItems(ctx, task.OrderID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}
