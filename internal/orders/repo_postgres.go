package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-core/internal/postgres"
)

// PostgresRepository is the durable Repository implementation. Save rewrites
// the order row and its full line collection in one transaction, with the
// version check in the UPDATE's WHERE clause.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save joins a transaction already carried on the context, so a caller can
// commit the order row and its outbox row as one unit. Without one it opens
// its own transaction.
func (r *PostgresRepository) Save(ctx context.Context, order *Order) error {
	s := order.Snapshot()
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if tx, ok := postgres.TxFrom(ctx); ok {
		if err := r.saveIn(ctx, tx, s, metadata); err != nil {
			return err
		}
		order.bumpVersion()
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.saveIn(ctx, tx, s, metadata); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	order.bumpVersion()
	return nil
}

func (r *PostgresRepository) saveIn(ctx context.Context, tx pgx.Tx, s Snapshot, metadata []byte) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET customer_id=$2, status=$3, updated_at=$4, metadata=$5, version=version+1
		WHERE id=$1 AND version=$6
	`, s.ID.String(), s.CustomerID.String(), string(s.Status), s.UpdatedAt, metadata, s.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var stored int64
		err := tx.QueryRow(ctx, `SELECT version FROM orders WHERE id=$1`, s.ID.String()).Scan(&stored)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx, `
				INSERT INTO orders(id, customer_id, status, created_at, updated_at, metadata, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, s.ID.String(), s.CustomerID.String(), string(s.Status), s.CreatedAt, s.UpdatedAt, metadata, s.Version+1)
			if err != nil {
				// two first-time saves can race the insert; the loser
				// hits the primary key
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: order %s inserted concurrently", ErrConcurrencyConflict, s.ID)
				}
				return err
			}
		case err != nil:
			return err
		default:
			return fmt.Errorf("%w: order %s at version %d, expected %d",
				ErrConcurrencyConflict, s.ID, stored, s.Version)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, s.ID.String()); err != nil {
		return err
	}
	for _, line := range s.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_lines(order_id, product_id, quantity, unit_price_cents, currency)
			VALUES ($1, $2, $3, $4, $5)
		`, s.ID.String(), line.ProductID, line.Quantity, line.UnitPrice.Amount(), line.UnitPrice.Currency())
		if err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) GetByID(ctx context.Context, id OrderID) (*Order, error) {
	snapshot, err := r.scanOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := r.loadLines(ctx, []string{id.String()})
	if err != nil {
		return nil, err
	}
	snapshot.Lines = lines[id]
	return Rehydrate(snapshot), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id OrderID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, id.String()); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) FindByCustomer(ctx context.Context, customerID CustomerID) ([]*Order, error) {
	return r.findWhere(ctx, `customer_id=$1`, customerID.String())
}

func (r *PostgresRepository) FindByStatus(ctx context.Context, status Status) ([]*Order, error) {
	return r.findWhere(ctx, `status=$1`, string(status))
}

func (r *PostgresRepository) FindPending(ctx context.Context) ([]*Order, error) {
	return r.FindByStatus(ctx, StatusPlaced)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status=$1`, string(status)).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Exists(ctx context.Context, id OrderID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id.String()).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) scanOrder(ctx context.Context, id OrderID) (Snapshot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, customer_id, status, created_at, updated_at, metadata, version
		FROM orders WHERE id=$1
	`, id.String())
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snapshot, err
}

func (r *PostgresRepository) findWhere(ctx context.Context, where string, arg any) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, status, created_at, updated_at, metadata, version
		FROM orders WHERE `+where+` ORDER BY created_at DESC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	var ids []string
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
		ids = append(ids, s.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Order, 0, len(snapshots))
	for _, s := range snapshots {
		s.Lines = lines[s.ID]
		out = append(out, Rehydrate(s))
	}
	return out, nil
}

func (r *PostgresRepository) loadLines(ctx context.Context, orderIDs []string) (map[OrderID][]OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price_cents, currency
		FROM order_lines WHERE order_id = ANY($1) ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[OrderID][]OrderLine)
	for rows.Next() {
		var orderID, productID, currency string
		var quantity int
		var unitPrice int64
		if err := rows.Scan(&orderID, &productID, &quantity, &unitPrice, &currency); err != nil {
			return nil, err
		}
		out[OrderID(orderID)] = append(out[OrderID(orderID)], OrderLine{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: Money{amount: unitPrice, currency: currency},
		})
	}
	return out, rows.Err()
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var id, customerID, status string
	var createdAt, updatedAt time.Time
	var metadata []byte
	var version int64
	if err := row.Scan(&id, &customerID, &status, &createdAt, &updatedAt, &metadata, &version); err != nil {
		return Snapshot{}, err
	}
	meta := map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &meta); err != nil {
			return Snapshot{}, fmt.Errorf("unmarshal metadata for order %s: %w", id, err)
		}
	}
	return Snapshot{
		ID:         OrderID(id),
		CustomerID: CustomerID(customerID),
		Status:     Status(status),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Version:    version,
		Metadata:   meta,
	}, nil
}
