package cancel

import (
	"context"
	"encoding/json"
	"strings"

	"cafe-gateway/internal/domain"
	"cafe-gateway/internal/outbox"

	"github.com/sirupsen/logrus"
)

// OrderAPI is the slice of the order service the orchestrator depends on.
type OrderAPI interface {
	StatusByID(ctx context.Context, orderID string) (domain.OrderDetail, error)
	CancelKitchen(ctx context.Context, body map[string]interface{}) ([]byte, bool, error)
	CancelOrderItem(ctx context.Context, body map[string]interface{}) ([]byte, int, error)
}

// TaskQueue enqueues best-effort side effects.
type TaskQueue interface {
	Enqueue(ctx context.Context, task outbox.Task) error
}

// EventSink mirrors lifecycle changes onto the event stream.
type EventSink interface {
	Publish(ctx context.Context, event outbox.LifecycleEvent) error
}

// Result carries a status code and a JSON-marshalable body back to the
// route layer.
type Result struct {
	StatusCode int
	Body       interface{}
}

// Orchestrator coordinates order and item cancellation across the order
// service, the kitchen service and the workflow webhook. Only the first
// mutating call is authoritative for the client response; everything after
// it is queued and retried out of band.
type Orchestrator struct {
	orders OrderAPI
	queue  TaskQueue
	events EventSink
	log    *logrus.Entry
}

func NewOrchestrator(orders OrderAPI, queue TaskQueue, events EventSink) *Orchestrator {
	return &Orchestrator{
		orders: orders,
		queue:  queue,
		events: events,
		log:    logrus.WithField("component", "cancel"),
	}
}

func bodyString(body map[string]interface{}, key string) string {
	if v, ok := body[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CancelOrder runs the whole-order cancellation flow:
// status guard -> upstream cancel -> queued kitchen update, webhook
// notification and kitchen item resync.
func (o *Orchestrator) CancelOrder(ctx context.Context, body map[string]interface{}) Result {
	if body == nil {
		body = map[string]interface{}{}
	}
	orderID := bodyString(body, "order_id")
	reason := bodyString(body, "reason")
	finalStatus := strings.ToLower(bodyString(body, "status"))
	if finalStatus == "" {
		finalStatus = domain.StatusCancelled
	}

	detail, err := o.orders.StatusByID(ctx, orderID)
	if err != nil {
		o.log.WithError(err).WithField("order_id", orderID).Error("failed to verify order status before cancel")
		return Result{StatusCode: 500, Body: map[string]interface{}{
			"error": "Gagal memverifikasi status pesanan sebelum batal",
		}}
	}
	currentStatus := detail.Status
	if !domain.IsCancellable(currentStatus) {
		return Result{StatusCode: 400, Body: map[string]interface{}{
			"status":         "failed",
			"current_status": currentStatus,
			"message":        "Pesanan hanya bisa dibatalkan saat status 'receive' atau 'making'",
		}}
	}

	cancelReason := reason
	if cancelReason == "" {
		cancelReason = bodyString(body, "cancel_reason")
	}
	if cancelReason == "" {
		cancelReason = "Cancelled"
	}

	forward := make(map[string]interface{}, len(body)+2)
	for k, v := range body {
		forward[k] = v
	}
	forward["status"] = finalStatus
	forward["reason"] = cancelReason

	payload, ok, err := o.orders.CancelKitchen(ctx, forward)
	if err != nil {
		o.log.WithError(err).WithField("order_id", orderID).Error("failed to cancel order")
		return Result{StatusCode: 500, Body: map[string]interface{}{"error": "Failed to cancel order"}}
	}

	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		data = map[string]interface{}{"raw": string(payload)}
	}

	if ok {
		o.enqueue(ctx, outbox.NewTask(outbox.TaskKitchenStatus, orderID, map[string]string{
			"status": finalStatus,
			"reason": orDefault(reason, "Cancelled"),
		}))
		o.publishEvent(ctx, outbox.LifecycleEvent{
			OrderID: orderID,
			Status:  finalStatus,
			Reason:  cancelReason,
		})
	}

	webhookReason := reason
	if webhookReason == "" {
		webhookReason = bodyString(body, "cancel_reason")
	}
	if webhookReason == "" {
		webhookReason = "Cancelled by user"
	}
	o.enqueue(ctx, outbox.NewTask(outbox.TaskWebhookNotify, orderID, map[string]string{
		"order_id": orderID,
		"status":   finalStatus,
		"reason":   webhookReason,
	}))

	if orderID != "" {
		o.enqueue(ctx, outbox.NewTask(outbox.TaskKitchenResync, orderID, nil))
	}

	status := 200
	if !ok {
		status = 400
	}
	return Result{StatusCode: status, Body: data}
}

// CancelOrderItem forwards a single-item cancellation verbatim, then queues
// the webhook notification and a kitchen resync for the affected order.
// Whether the item actually belonged to the stated order is the order
// service's problem; the gateway trusts its validation.
func (o *Orchestrator) CancelOrderItem(ctx context.Context, body map[string]interface{}) Result {
	if body == nil {
		body = map[string]interface{}{}
	}
	payload, _, err := o.orders.CancelOrderItem(ctx, body)
	if err != nil {
		o.log.WithError(err).Error("failed to cancel order item")
		return Result{StatusCode: 500, Body: map[string]interface{}{"error": "Failed to cancel order item"}}
	}

	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		data = map[string]interface{}{"raw": string(payload)}
	}

	orderID := bodyString(body, "order_id")
	o.enqueue(ctx, outbox.NewTask(outbox.TaskWebhookNotify, orderID, map[string]string{
		"order_id":  orderID,
		"status":    "item_cancelled",
		"item_name": bodyString(body, "menu_name"),
		"reason":    orDefault(bodyString(body, "reason"), "Item cancelled"),
	}))

	if orderID == "" {
		orderID = nestedOrderID(payload)
	}
	if orderID != "" {
		o.enqueue(ctx, outbox.NewTask(outbox.TaskKitchenResync, orderID, nil))
	}

	return Result{StatusCode: 200, Body: data}
}

// nestedOrderID digs data.data.order_id out of an upstream response.
func nestedOrderID(payload []byte) string {
	var envelope struct {
		Data struct {
			OrderID domain.FlexString `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	return envelope.Data.OrderID.String()
}

func (o *Orchestrator) enqueue(ctx context.Context, task outbox.Task) {
	if o.queue == nil {
		return
	}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"kind":     task.Kind,
			"order_id": task.OrderID,
		}).Error("failed to enqueue side effect")
	}
}

func (o *Orchestrator) publishEvent(ctx context.Context, event outbox.LifecycleEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.log.WithError(err).WithField("order_id", event.OrderID).Warn("failed to publish lifecycle event")
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
