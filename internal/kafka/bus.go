package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-order-core/internal/orders"
)

// Bus publishes domain events straight to the broker through the async
// producer. Fire-and-forget: once the message is in the inbox, Publish is
// done.
type Bus struct {
	producer *Producer
	service  string
}

func NewBus(producer *Producer, service string) *Bus {
	return &Bus{producer: producer, service: service}
}

func (b *Bus) Publish(_ context.Context, topic string, payload any) error {
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventTypeForTopic(topic),
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     b.service,
		Payload:      MustMarshal(payload),
	}
	var key []byte
	if keyed, ok := payload.(interface{ Key() string }); ok {
		ev.CorrelationID = keyed.Key()
		key = []byte(keyed.Key())
	}
	b.producer.Publish(topic, key, MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(ev.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
