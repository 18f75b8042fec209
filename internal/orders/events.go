package orders

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TopicOrderPlaced    = "order.placed"
	TopicOrderCancelled = "order.cancelled"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
)

// EventTypeForTopic maps a topic to the event type carried in the envelope.
func EventTypeForTopic(topic string) string {
	switch topic {
	case TopicOrderPlaced:
		return EventOrderPlaced
	case TopicOrderCancelled:
		return EventOrderCancelled
	}
	return topic
}

// PartitionKey keeps all events of one order on the same partition so their
// order is preserved.
func PartitionKey(orderID OrderID) []byte { return []byte(orderID) }

// Envelope is the wire format shared by every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID     string `json:"order_id"`
	CustomerID  string `json:"customer_id"`
	TotalAmount int64  `json:"total_amount"`
}

func (p OrderPlacedPayload) Key() string { return p.OrderID }

type OrderCancelledPayload struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason,omitempty"`
}

func (p OrderCancelledPayload) Key() string { return p.OrderID }

// EventBus is the publish-only contract the handlers need. Implementations
// decide delivery: straight to the broker or staged through the outbox.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any) error
}
