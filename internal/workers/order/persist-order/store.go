// internal/workers/order/persist-order/store.go
package persistorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"foodexpress-workers/internal/models"
)

// ErrAlreadyPersisted marks a replayed order id. Callers treat it as success.
var ErrAlreadyPersisted = errors.New("order already persisted")

// OrderStore writes confirmed orders to durable storage.
type OrderStore interface {
	SaveOrder(ctx context.Context, order models.ResolvedOrder) error
}

// StatusCache exposes the order status to the tracking flow without a
// round-trip to Postgres.
type StatusCache interface {
	SetStatus(ctx context.Context, orderID, status string, ttl time.Duration) error
}

// SQLOrderStore persists the order header and its lines in one transaction.
type SQLOrderStore struct {
	db *sql.DB
}

func NewSQLOrderStore(db *sql.DB) *SQLOrderStore {
	return &SQLOrderStore{db: db}
}

func (s *SQLOrderStore) SaveOrder(ctx context.Context, order models.ResolvedOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_id, branch_id, total_price, eta_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		order.OrderID, order.CustomerID, order.BranchID, order.TotalPrice, order.ETAMinutes, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyPersisted
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, item_id, item_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			order.OrderID, line.Item.ID, line.Item.Name, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// RedisStatusCache writes order status keys with a TTL.
type RedisStatusCache struct {
	client *redis.Client
}

func NewRedisStatusCache(client *redis.Client) *RedisStatusCache {
	return &RedisStatusCache{client: client}
}

func statusKey(orderID string) string {
	return "order-status:" + orderID
}

func (c *RedisStatusCache) SetStatus(ctx context.Context, orderID, status string, ttl time.Duration) error {
	return c.client.Set(ctx, statusKey(orderID), status, ttl).Err()
}
