package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-order-core/internal/orders"
)

// Bus implements the event bus contract by staging the fully built envelope
// as an outbox row. The envelope is built here so event id and occurred-at
// reflect the moment of the domain action, not of delivery.
type Bus struct {
	store   Storage
	service string
}

func NewBus(store Storage, service string) *Bus {
	return &Bus{store: store, service: service}
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventTypeForTopic(topic),
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     b.service,
		Payload:      raw,
	}
	var key string
	if keyed, ok := payload.(interface{ Key() string }); ok {
		key = keyed.Key()
		ev.CorrelationID = key
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal envelope for %s: %w", topic, err)
	}
	if err := b.store.Insert(ctx, ev.EventID, topic, key, value); err != nil {
		return fmt.Errorf("stage outbox event %s: %w", topic, err)
	}
	return nil
}
