// internal/core/menu/catalog.go
package menu

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"foodexpress-workers/internal/models"

	"github.com/agnivade/levenshtein"
)

// Acceptance thresholds for fuzzy lookup scores. At or above
// AutoResolveThreshold a match resolves without asking the customer; between
// SuggestThreshold and AutoResolveThreshold it is offered as a suggestion;
// below SuggestThreshold the phrase is unresolved.
const (
	AutoResolveThreshold = 0.72
	SuggestThreshold     = 0.5
)

// Match is one scored lookup result.
type Match struct {
	Item  models.MenuItem
	Score float64
}

type indexEntry struct {
	item int // index into snapshot.items
	key  string
}

// Snapshot is an immutable, fuzzy-searchable index over a menu. Safe for
// unsynchronized concurrent reads.
type Snapshot struct {
	items   []models.MenuItem
	entries []indexEntry
	byID    map[int64]int
}

// BuildSnapshot indexes the given items. Unavailable items are skipped.
func BuildSnapshot(items []models.MenuItem) *Snapshot {
	s := &Snapshot{byID: make(map[int64]int)}
	for _, it := range items {
		if !it.IsAvailable {
			continue
		}
		idx := len(s.items)
		s.items = append(s.items, it)
		s.byID[it.ID] = idx
		s.entries = append(s.entries, indexEntry{item: idx, key: Normalize(it.Name, LanguageEnglish)})
		for _, alias := range it.Aliases {
			s.entries = append(s.entries, indexEntry{item: idx, key: Normalize(alias, LanguageEnglish)})
		}
	}
	return s
}

// Items returns the indexed menu items.
func (s *Snapshot) Items() []models.MenuItem {
	return s.items
}

// ItemByID looks an item up by id.
func (s *Snapshot) ItemByID(id int64) (models.MenuItem, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return models.MenuItem{}, false
	}
	return s.items[idx], true
}

// Lookup normalizes the phrase under the English table and scores it against
// every canonical name and alias. See LookupNormalized.
func (s *Snapshot) Lookup(phrase string, branchID int64) []Match {
	return s.LookupNormalized(Normalize(phrase, LanguageEnglish), branchID)
}

// LookupNormalized scores an already-normalized phrase against every
// canonical name and alias, keeping the best score per item. Results are
// sorted by score descending, ties broken by item id ascending. branchID zero
// matches all branches. The caller applies the acceptance thresholds.
func (s *Snapshot) LookupNormalized(phrase string, branchID int64) []Match {
	best := make(map[int]float64)
	for _, e := range s.entries {
		if branchID != 0 && s.items[e.item].BranchID != 0 && s.items[e.item].BranchID != branchID {
			continue
		}
		score := Similarity(phrase, e.key)
		if score > best[e.item] {
			best[e.item] = score
		}
	}

	matches := make([]Match, 0, len(best))
	for idx, score := range best {
		matches = append(matches, Match{Item: s.items[idx], Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Item.ID < matches[j].Item.ID
	})
	return matches
}

// Similarity is the edit distance between two normalized strings, rescaled to
// [0,1] where 1 is an exact match.
func Similarity(a, b string) float64 {
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	if a == b {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 1.0 - float64(dist)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

// Render formats the menu grouped by category for a chat reply.
func (s *Snapshot) Render() string {
	if len(s.items) == 0 {
		return "No menu items available right now."
	}

	byCategory := make(map[string][]models.MenuItem)
	for _, it := range s.items {
		cat := it.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory[cat] = append(byCategory[cat], it)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("OUR MENU\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n%s\n", cat)
		items := byCategory[cat]
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
		for _, it := range items {
			fmt.Fprintf(&b, "- %s - Rs. %.0f\n", it.Name, it.Price)
		}
	}
	b.WriteString("\nJust type what you want, e.g. '2 cappuccino 1 cookie'.")
	return b.String()
}

// Catalog holds the current menu snapshot. Rebuilds swap the snapshot
// atomically so lookups never observe a partially built index.
type Catalog struct {
	snap atomic.Pointer[Snapshot]
}

// NewCatalog builds a catalog with an initial snapshot.
func NewCatalog(items []models.MenuItem) *Catalog {
	c := &Catalog{}
	c.Replace(items)
	return c
}

// Snapshot returns the current immutable snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Replace rebuilds the index from items and publishes it. O(menu size);
// concurrent lookups keep using the previous snapshot until the swap.
func (c *Catalog) Replace(items []models.MenuItem) {
	c.snap.Store(BuildSnapshot(items))
}
