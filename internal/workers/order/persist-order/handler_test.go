// internal/workers/order/persist-order/handler_test.go
package persistorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/models"
)

type fakeOrderStore struct {
	saved []models.ResolvedOrder
	err   error
}

func (f *fakeOrderStore) SaveOrder(ctx context.Context, order models.ResolvedOrder) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, order)
	return nil
}

type fakeStatusCache struct {
	statuses map[string]string
	err      error
}

func (f *fakeStatusCache) SetStatus(ctx context.Context, orderID, status string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[orderID] = status
	return nil
}

func testOrder() models.ResolvedOrder {
	return models.ResolvedOrder{
		OrderID:    "ord-42",
		CustomerID: "cust-1",
		BranchID:   1,
		Lines: []models.OrderLine{
			{Item: models.MenuItem{ID: 1, Name: "Zinger Burger"}, Quantity: 2, UnitPrice: 450},
			{Item: models.MenuItem{ID: 2, Name: "Coke"}, Quantity: 1, UnitPrice: 150},
		},
		TotalPrice: 1050,
		ETAMinutes: 21,
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExecute_PersistsOrder(t *testing.T) {
	store := &fakeOrderStore{}
	cache := &fakeStatusCache{}
	h := NewHandler(LoadConfig(), store, cache, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Order: testOrder()})
	require.NoError(t, err)

	assert.Equal(t, "ord-42", out.OrderID)
	assert.False(t, out.Duplicate)
	assert.Equal(t, StatusConfirmed, out.Status)

	require.Len(t, store.saved, 1)
	assert.Equal(t, StatusConfirmed, cache.statuses["ord-42"])
}

func TestExecute_DuplicateCompletesWithFlag(t *testing.T) {
	store := &fakeOrderStore{err: ErrAlreadyPersisted}
	h := NewHandler(LoadConfig(), store, &fakeStatusCache{}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Order: testOrder()})
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.Equal(t, "ord-42", out.OrderID)
}

func TestExecute_StoreErrorFails(t *testing.T) {
	store := &fakeOrderStore{err: errors.New("connection reset")}
	h := NewHandler(LoadConfig(), store, &fakeStatusCache{}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Order: testOrder()})
	assert.ErrorIs(t, err, ErrOrderPersistFailed)
}

func TestExecute_CacheFailureDoesNotFailJob(t *testing.T) {
	store := &fakeOrderStore{}
	cache := &fakeStatusCache{err: errors.New("redis down")}
	h := NewHandler(LoadConfig(), store, cache, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Order: testOrder()})
	require.NoError(t, err)
	assert.Equal(t, "ord-42", out.OrderID)
}

func TestExecute_RejectsInvalidPayloads(t *testing.T) {
	h := NewHandler(LoadConfig(), &fakeOrderStore{}, &fakeStatusCache{}, logger.NewTestLogger(t))

	cases := map[string]func(o *models.ResolvedOrder){
		"missing order id":    func(o *models.ResolvedOrder) { o.OrderID = "" },
		"missing customer id": func(o *models.ResolvedOrder) { o.CustomerID = "" },
		"no lines":            func(o *models.ResolvedOrder) { o.Lines = nil },
		"negative total":      func(o *models.ResolvedOrder) { o.TotalPrice = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			order := testOrder()
			mutate(&order)
			_, err := h.Execute(context.Background(), &Input{Order: order})
			assert.ErrorIs(t, err, ErrInvalidOrderPayload)
		})
	}
}

func TestExecute_FillsMissingCreatedAt(t *testing.T) {
	store := &fakeOrderStore{}
	h := NewHandler(LoadConfig(), store, &fakeStatusCache{}, logger.NewTestLogger(t))

	order := testOrder()
	order.CreatedAt = time.Time{}
	_, err := h.Execute(context.Background(), &Input{Order: order})
	require.NoError(t, err)
	assert.False(t, store.saved[0].CreatedAt.IsZero())
}

func TestSQLOrderStore_SaveOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	order := testOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(order.OrderID, order.CustomerID, order.BranchID, order.TotalPrice, order.ETAMinutes, order.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs(order.OrderID, int64(1), "Zinger Burger", 2, 450.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").
		WithArgs(order.OrderID, int64(2), "Coke", 1, 150.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewSQLOrderStore(db)
	require.NoError(t, store.SaveOrder(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLOrderStore_UniqueViolationIsDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_pkey"})
	mock.ExpectRollback()

	store := NewSQLOrderStore(db)
	err = store.SaveOrder(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrAlreadyPersisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLOrderStore_LineInsertErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_lines").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	store := NewSQLOrderStore(db)
	err = store.SaveOrder(context.Background(), testOrder())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyPersisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStatusCache_SetStatus(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := NewRedisStatusCache(client)
	require.NoError(t, cache.SetStatus(context.Background(), "ord-42", StatusConfirmed, time.Hour))

	got, err := mr.Get("order-status:ord-42")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got)
	assert.Positive(t, mr.TTL("order-status:ord-42"))
}
