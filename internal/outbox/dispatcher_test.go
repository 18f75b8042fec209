package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-order-core/internal/logx"
	"github.com/ariefcatur/go-order-core/internal/orders"
	"github.com/ariefcatur/go-order-core/internal/outbox"
)

type fakeStorage struct {
	records   []outbox.Record
	insertErr error
	nextID    int64
}

func (s *fakeStorage) Insert(_ context.Context, eventID, topic, key string, payload []byte) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	s.records = append(s.records, outbox.Record{
		ID:        s.nextID,
		EventID:   eventID,
		Topic:     topic,
		Key:       key,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *fakeStorage) FetchPending(_ context.Context, limit int) ([]outbox.Record, error) {
	var out []outbox.Record
	for _, rec := range s.records {
		if rec.SentAt == nil {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStorage) MarkSent(_ context.Context, id int64) error {
	for i := range s.records {
		if s.records[i].ID == id {
			now := time.Now().UTC()
			s.records[i].SentAt = &now
			return nil
		}
	}
	return errors.New("no such record")
}

type fakePublisher struct {
	published []kafkago.Message
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte, headers ...kafkago.Header) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, kafkago.Message{Topic: topic, Key: key, Value: value, Headers: headers})
	return nil
}

func TestBus_StagesEnvelope(t *testing.T) {
	store := &fakeStorage{}
	bus := outbox.NewBus(store, "order-api")

	err := bus.Publish(context.Background(), orders.TopicOrderPlaced, orders.OrderPlacedPayload{
		OrderID:     "ord-1",
		CustomerID:  "cust-1",
		TotalAmount: 1300,
	})
	require.NoError(t, err)
	require.Len(t, store.records, 1)

	rec := store.records[0]
	assert.Equal(t, orders.TopicOrderPlaced, rec.Topic)
	assert.Equal(t, "ord-1", rec.Key)
	assert.NotEmpty(t, rec.EventID)

	var ev orders.Envelope
	require.NoError(t, json.Unmarshal(rec.Payload, &ev))
	assert.Equal(t, orders.EventOrderPlaced, ev.EventType)
	assert.Equal(t, "order-api", ev.Producer)
	assert.Equal(t, "ord-1", ev.CorrelationID)
	assert.Equal(t, rec.EventID, ev.EventID)

	var payload orders.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, int64(1300), payload.TotalAmount)
}

func TestBus_InsertFailure(t *testing.T) {
	store := &fakeStorage{insertErr: errors.New("db down")}
	bus := outbox.NewBus(store, "order-api")

	err := bus.Publish(context.Background(), orders.TopicOrderPlaced, orders.OrderPlacedPayload{OrderID: "ord-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestDispatcher_DrainDeliversAndMarks(t *testing.T) {
	store := &fakeStorage{}
	bus := outbox.NewBus(store, "order-api")
	ctx := context.Background()

	for _, id := range []string{"ord-1", "ord-2"} {
		require.NoError(t, bus.Publish(ctx, orders.TopicOrderPlaced, orders.OrderPlacedPayload{OrderID: id}))
	}

	pub := &fakePublisher{}
	dispatcher := outbox.NewDispatcher(store, pub, logx.Nop(), time.Second, 100)
	require.NoError(t, dispatcher.Drain(ctx))

	require.Len(t, pub.published, 2)
	assert.Equal(t, orders.TopicOrderPlaced, pub.published[0].Topic)
	assert.Equal(t, []byte("ord-1"), pub.published[0].Key)

	// everything marked sent, second drain is a no-op
	for _, rec := range store.records {
		assert.NotNil(t, rec.SentAt)
	}
	require.NoError(t, dispatcher.Drain(ctx))
	assert.Len(t, pub.published, 2)
}

func TestDispatcher_PublishFailureKeepsRowPending(t *testing.T) {
	store := &fakeStorage{}
	bus := outbox.NewBus(store, "order-api")
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, orders.TopicOrderPlaced, orders.OrderPlacedPayload{OrderID: "ord-1"}))

	pub := &fakePublisher{err: errors.New("broker unreachable")}
	dispatcher := outbox.NewDispatcher(store, pub, logx.Nop(), time.Second, 100)

	err := dispatcher.Drain(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")

	// the row was not marked sent, the next drain redelivers it
	require.Len(t, store.records, 1)
	assert.Nil(t, store.records[0].SentAt)

	pub.err = nil
	require.NoError(t, dispatcher.Drain(ctx))
	require.Len(t, pub.published, 1)
	assert.NotNil(t, store.records[0].SentAt)
}

func TestDispatcher_BatchLimit(t *testing.T) {
	store := &fakeStorage{}
	bus := outbox.NewBus(store, "order-api")
	ctx := context.Background()

	for _, id := range []string{"ord-1", "ord-2", "ord-3"} {
		require.NoError(t, bus.Publish(ctx, orders.TopicOrderPlaced, orders.OrderPlacedPayload{OrderID: id}))
	}

	pub := &fakePublisher{}
	dispatcher := outbox.NewDispatcher(store, pub, logx.Nop(), time.Second, 2)

	require.NoError(t, dispatcher.Drain(ctx))
	assert.Len(t, pub.published, 2)

	require.NoError(t, dispatcher.Drain(ctx))
	assert.Len(t, pub.published, 3)
}
