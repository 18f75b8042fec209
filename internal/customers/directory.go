// Package customers provides the customer-existence lookup the order
// workflow depends on.
package customers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-core/internal/orders"
	"github.com/ariefcatur/go-order-core/internal/redisx"
)

// Directory checks the customers table, with a Redis cache in front. Cache
// trouble is logged and ignored; the database stays the source of truth.
type Directory struct {
	db    *pgxpool.Pool
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewDirectory(db *pgxpool.Pool, rdb *redis.Client, log *zap.SugaredLogger) *Directory {
	return &Directory{db: db, redis: rdb, log: log}
}

func (d *Directory) CustomerExists(ctx context.Context, id orders.CustomerID) (bool, error) {
	key := fmt.Sprintf(redisx.KeyCustomerExists, id)
	if d.redis != nil {
		if v, err := d.redis.Get(ctx, key).Result(); err == nil {
			return v == "1", nil
		}
	}

	var exists bool
	err := d.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id=$1)`, id.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("customer lookup %s: %w", id, err)
	}

	if d.redis != nil {
		v := "0"
		if exists {
			v = "1"
		}
		if err := d.redis.Set(ctx, key, v, redisx.TTLCustomerExists).Err(); err != nil {
			d.log.Warnw("customer cache write failed", "customer_id", id.String(), "error", err)
		}
	}
	return exists, nil
}

// StaticDirectory answers from a fixed set of ids. Useful for tests and for
// running without a customer database.
type StaticDirectory struct {
	ids map[orders.CustomerID]struct{}
}

func NewStaticDirectory(ids ...string) *StaticDirectory {
	m := make(map[orders.CustomerID]struct{}, len(ids))
	for _, id := range ids {
		m[orders.CustomerID(id)] = struct{}{}
	}
	return &StaticDirectory{ids: m}
}

func (d *StaticDirectory) CustomerExists(_ context.Context, id orders.CustomerID) (bool, error) {
	_, ok := d.ids[id]
	return ok, nil
}
