// Package outbox stages domain events in Postgres in the same transaction
// as the state change that produced them, so a crash between save and
// publish cannot lose the event. A dispatcher delivers pending rows to the
// broker afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-core/internal/postgres"
)

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// Storage is the persistence side of the outbox. The Postgres implementation
// is the real one; tests substitute fakes.
type Storage interface {
	Insert(ctx context.Context, eventID, topic, key string, payload []byte) error
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

type PostgresStorage struct {
	db *pgxpool.Pool
}

func NewPostgresStorage(db *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Insert joins a transaction carried on the context, so the row commits
// together with the order write that produced the event.
func (s *PostgresStorage) Insert(ctx context.Context, eventID, topic, key string, payload []byte) error {
	_, err := postgres.QuerierFrom(ctx, s.db).Exec(ctx, `
		INSERT INTO outbox(event_id, topic, key, payload) VALUES ($1, $2, $3, $4)
	`, eventID, topic, key, payload)
	return err
}

func (s *PostgresStorage) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) MarkSent(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}
