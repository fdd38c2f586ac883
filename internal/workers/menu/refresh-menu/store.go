// internal/workers/menu/refresh-menu/store.go
package refreshmenu

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"

	"foodexpress-workers/internal/models"
)

// MenuStore loads the full menu from the source of truth.
type MenuStore interface {
	MenuItems(ctx context.Context) ([]models.MenuItem, error)
}

// SearchIndexer pushes menu items into the search cluster so the ops
// dashboard can query them. Indexing is best-effort relative to the in-memory
// catalog swap.
type SearchIndexer interface {
	IndexItems(ctx context.Context, index string, items []models.MenuItem) (int, error)
}

// SQLMenuStore reads menu items from Postgres. Aliases are stored as a
// text[] column.
type SQLMenuStore struct {
	db *sql.DB
}

func NewSQLMenuStore(db *sql.DB) *SQLMenuStore {
	return &SQLMenuStore{db: db}
}

func (s *SQLMenuStore) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	query := `
		SELECT id, name, aliases, category, description, price, branch_id, is_available
		FROM menu_items
		ORDER BY branch_id, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		var aliases pq.StringArray
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &aliases, &item.Category,
			&description, &item.Price, &item.BranchID, &item.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		item.Aliases = []string(aliases)
		item.Description = description.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

// ESIndexer indexes items one document per item, keyed by item ID.
type ESIndexer struct {
	client *elasticsearch.Client
}

func NewESIndexer(client *elasticsearch.Client) *ESIndexer {
	return &ESIndexer{client: client}
}

func (i *ESIndexer) IndexItems(ctx context.Context, index string, items []models.MenuItem) (int, error) {
	indexed := 0
	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return indexed, fmt.Errorf("marshal item %d: %w", item.ID, err)
		}

		res, err := i.client.Index(
			index,
			strings.NewReader(string(doc)),
			i.client.Index.WithContext(ctx),
			i.client.Index.WithDocumentID(strconv.FormatInt(item.ID, 10)),
		)
		if err != nil {
			return indexed, fmt.Errorf("index item %d: %w", item.ID, err)
		}
		if res.IsError() {
			res.Body.Close()
			return indexed, fmt.Errorf("index item %d: %s", item.ID, res.Status())
		}
		res.Body.Close()
		indexed++
	}
	return indexed, nil
}
