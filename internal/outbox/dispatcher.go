package outbox

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is what the dispatcher needs from the broker side: a write
// that is confirmed before it returns. The sync kafka producer satisfies
// it; the async one does not, a row must only be marked sent once the
// broker has the event.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

// Dispatcher polls pending outbox rows and hands them to the publisher,
// marking each row sent. At-least-once: a crash after publish but before
// MarkSent redelivers, consumers deduplicate on event_id.
type Dispatcher struct {
	store    Storage
	pub      Publisher
	log      *zap.SugaredLogger
	interval time.Duration
	batch    int
}

func NewDispatcher(store Storage, pub Publisher, log *zap.SugaredLogger, interval time.Duration, batch int) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Dispatcher{store: store, pub: pub, log: log, interval: interval, batch: batch}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Drain(ctx); err != nil {
				d.log.Errorw("outbox drain failed", "error", err)
			}
		}
	}
}

// Drain delivers one batch of pending rows.
func (d *Dispatcher) Drain(ctx context.Context) error {
	records, err := d.store.FetchPending(ctx, d.batch)
	if err != nil {
		return err
	}
	for _, rec := range records {
		err := d.pub.Publish(ctx, rec.Topic, []byte(rec.Key), rec.Payload,
			kafkago.Header{Key: "x-event-id", Value: []byte(rec.EventID)},
		)
		if err != nil {
			// row stays pending, the next drain retries it
			return fmt.Errorf("publish outbox event %s: %w", rec.EventID, err)
		}
		if err := d.store.MarkSent(ctx, rec.ID); err != nil {
			return err
		}
		d.log.Debugw("outbox event dispatched", "event_id", rec.EventID, "topic", rec.Topic)
	}
	return nil
}
