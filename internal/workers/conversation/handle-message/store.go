// internal/workers/conversation/handle-message/store.go
package handlemessage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodexpress-workers/internal/models"
)

// SessionStore loads and saves per-customer conversation sessions. Processing
// is serialized per customer by the process engine, so last-write-wins is
// sufficient.
type SessionStore interface {
	Load(ctx context.Context, customerID string) (models.ConversationSession, bool, error)
	Save(ctx context.Context, sess models.ConversationSession) error
}

// BranchSource provides the current branch reference data.
type BranchSource interface {
	Branches(ctx context.Context) ([]models.Branch, error)
}

// OrderLookup fetches the customer's most recent order for track-order
// replies.
type OrderLookup interface {
	LatestOrder(ctx context.Context, customerID string) (*models.ResolvedOrder, error)
}

// RedisSessionStore keeps sessions as JSON values with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(customerID string) string {
	return "session:" + customerID
}

func (s *RedisSessionStore) Load(ctx context.Context, customerID string) (models.ConversationSession, bool, error) {
	raw, err := s.client.Get(ctx, sessionKey(customerID)).Result()
	if err == redis.Nil {
		return models.ConversationSession{}, false, nil
	}
	if err != nil {
		return models.ConversationSession{}, false, fmt.Errorf("session get: %w", err)
	}

	var sess models.ConversationSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return models.ConversationSession{}, false, fmt.Errorf("session decode: %w", err)
	}
	return sess, true, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sess models.ConversationSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.CustomerID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

// SQLBranchSource reads branch reference data from Postgres.
type SQLBranchSource struct {
	db *sql.DB
}

func NewSQLBranchSource(db *sql.DB) *SQLBranchSource {
	return &SQLBranchSource{db: db}
}

func (s *SQLBranchSource) Branches(ctx context.Context) ([]models.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(address, ''), COALESCE(phone, ''),
		       latitude, longitude, service_radius_km
		FROM branches
		WHERE is_active = true
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var branches []models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.Latitude, &b.Longitude, &b.ServiceRadiusKm); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// SQLOrderLookup reads the latest persisted order for a customer.
type SQLOrderLookup struct {
	db *sql.DB
}

func NewSQLOrderLookup(db *sql.DB) *SQLOrderLookup {
	return &SQLOrderLookup{db: db}
}

func (s *SQLOrderLookup) LatestOrder(ctx context.Context, customerID string) (*models.ResolvedOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_id, customer_id, branch_id, total_price, eta_minutes, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, customerID)

	var o models.ResolvedOrder
	err := row.Scan(&o.OrderID, &o.CustomerID, &o.BranchID, &o.TotalPrice, &o.ETAMinutes, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest order: %w", err)
	}
	return &o, nil
}
