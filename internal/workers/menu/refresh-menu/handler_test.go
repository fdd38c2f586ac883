// internal/workers/menu/refresh-menu/handler_test.go
package refreshmenu

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/models"
)

type staticMenuStore struct {
	items []models.MenuItem
	err   error
}

func (s *staticMenuStore) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	return s.items, s.err
}

type fakeIndexer struct {
	index string
	items []models.MenuItem
	err   error
}

func (f *fakeIndexer) IndexItems(ctx context.Context, index string, items []models.MenuItem) (int, error) {
	f.index = index
	f.items = items
	if f.err != nil {
		return 0, f.err
	}
	return len(items), nil
}

func validItems() []models.MenuItem {
	return []models.MenuItem{
		{ID: 1, Name: "Zinger Burger", Aliases: []string{"zinger"}, Category: "burgers", Price: 450, BranchID: 1, IsAvailable: true},
		{ID: 2, Name: "Coke", Category: "drinks", Price: 150, BranchID: 1, IsAvailable: true},
		{ID: 3, Name: "Chocolate Lava Cake", Category: "desserts", Price: 380, BranchID: 1, IsAvailable: false},
	}
}

func TestExecute_RefreshReplacesCatalog(t *testing.T) {
	catalog := menu.NewCatalog(nil)
	indexer := &fakeIndexer{}
	h := NewHandler(LoadConfig(), &staticMenuStore{items: validItems()}, indexer, catalog, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Reason: "nightly"})
	require.NoError(t, err)

	assert.Equal(t, 3, out.ItemCount)
	assert.Equal(t, 2, out.AvailableCount)
	assert.Equal(t, 3, out.IndexedCount)
	assert.False(t, out.RefreshedAt.IsZero())

	// The lookup index only carries orderable items; the lava cake is
	// marked unavailable in the fixture and stays out of the snapshot.
	assert.Len(t, catalog.Snapshot().Items(), 2)
	_, ok := catalog.Snapshot().ItemByID(3)
	assert.False(t, ok)
	assert.Equal(t, "menu-items", indexer.index)
}

func TestExecute_ValidationRejectsBadRows(t *testing.T) {
	bad := validItems()
	bad[1].Price = -50

	catalog := menu.NewCatalog(validItems())
	h := NewHandler(LoadConfig(), &staticMenuStore{items: bad}, &fakeIndexer{}, catalog, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMenuValidationFailed)

	// Previous snapshot survives a rejected refresh.
	item, ok := catalog.Snapshot().ItemByID(2)
	require.True(t, ok)
	assert.InDelta(t, 150, item.Price, 1e-9)
}

func TestExecute_ValidationRejectsBlankName(t *testing.T) {
	bad := validItems()
	bad[0].Name = ""

	h := NewHandler(LoadConfig(), &staticMenuStore{items: bad}, &fakeIndexer{}, menu.NewCatalog(nil), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMenuValidationFailed)
}

func TestExecute_EmptyMenuFails(t *testing.T) {
	h := NewHandler(LoadConfig(), &staticMenuStore{}, &fakeIndexer{}, menu.NewCatalog(nil), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMenuRefreshFailed)
}

func TestExecute_StoreErrorFails(t *testing.T) {
	h := NewHandler(LoadConfig(), &staticMenuStore{err: errors.New("connection refused")}, &fakeIndexer{}, menu.NewCatalog(nil), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMenuRefreshFailed)
}

func TestExecute_IndexFailureIsSurfaced(t *testing.T) {
	catalog := menu.NewCatalog(nil)
	indexer := &fakeIndexer{err: errors.New("cluster red")}
	h := NewHandler(LoadConfig(), &staticMenuStore{items: validItems()}, indexer, catalog, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrSearchIndexFailed)
	// The catalog swap already happened; only the search copy is stale.
	assert.Len(t, catalog.Snapshot().Items(), 2)
}

func TestExecute_IndexingDisabled(t *testing.T) {
	cfg := LoadConfig()
	cfg.IndexToSearch = false

	indexer := &fakeIndexer{err: errors.New("should not be called")}
	h := NewHandler(cfg, &staticMenuStore{items: validItems()}, indexer, menu.NewCatalog(nil), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.IndexedCount)
	assert.Empty(t, indexer.items)
}

func TestSQLMenuStore_MenuItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "aliases", "category", "description", "price", "branch_id", "is_available"}).
		AddRow(1, "Zinger Burger", `{zinger,"zinger burgr"}`, "burgers", "crispy fried chicken fillet", 450.0, 1, true).
		AddRow(2, "Coke", `{}`, "drinks", nil, 150.0, 1, true)

	mock.ExpectQuery("SELECT id, name, aliases").WillReturnRows(rows)

	store := NewSQLMenuStore(db)
	items, err := store.MenuItems(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, []string{"zinger", "zinger burgr"}, items[0].Aliases)
	assert.Equal(t, "crispy fried chicken fillet", items[0].Description)
	assert.Empty(t, items[1].Aliases)
	assert.Empty(t, items[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMenuStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, aliases").WillReturnError(errors.New("relation does not exist"))

	store := NewSQLMenuStore(db)
	_, err = store.MenuItems(context.Background())
	assert.Error(t, err)
}
