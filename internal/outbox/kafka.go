package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// LifecycleEvent mirrors an order lifecycle change onto the event stream so
// workflow consumers do not depend on the webhook alone.
type LifecycleEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	ItemName  string    `json:"item_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaWriter is the subset of kafka.Writer the publisher needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EventPublisher writes lifecycle events keyed by order id.
type EventPublisher struct {
	Writer KafkaWriter
}

func NewEventPublisher(writer KafkaWriter) *EventPublisher {
	return &EventPublisher{Writer: writer}
}

func (p *EventPublisher) Publish(ctx context.Context, event LifecycleEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	})
}
