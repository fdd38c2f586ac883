// internal/core/orders/assembler_test.go
package orders

import (
	"testing"
	"time"

	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *menu.Snapshot {
	return menu.BuildSnapshot([]models.MenuItem{
		{ID: 1, Name: "Zinger Burger", Category: "Burgers", Price: 450, IsAvailable: true},
		{ID: 2, Name: "Coke", Category: "Beverages", Price: 150, IsAvailable: true},
	})
}

func testBranch(distanceKm float64) models.BranchDistance {
	return models.BranchDistance{
		Branch:     models.Branch{ID: 7, Name: "Gulberg", ServiceRadiusKm: 10},
		DistanceKm: distanceKm,
	}
}

func TestAssemble_PricesAndTotal(t *testing.T) {
	draft := models.OrderDraft{
		CustomerID: "cust-1",
		Lines: []models.OrderLineDraft{
			{ItemID: 1, ItemName: "Zinger Burger", Quantity: 2, MatchScore: 1.0},
			{ItemID: 2, ItemName: "Coke", Quantity: 1, MatchScore: 1.0},
		},
		CreatedAt: time.Now().UTC(),
	}

	order, err := Assemble(draft, testBranch(2.5), testSnapshot(), DefaultETAPolicy())
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.Equal(t, int64(7), order.BranchID)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, 450.0, order.Lines[0].UnitPrice)
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.Equal(t, 1050.0, order.TotalPrice)
}

func TestAssemble_UnitPriceSnapshotSurvivesMenuEdit(t *testing.T) {
	snap := testSnapshot()
	draft := models.OrderDraft{
		CustomerID: "cust-1",
		Lines:      []models.OrderLineDraft{{ItemID: 2, ItemName: "Coke", Quantity: 1, MatchScore: 1.0}},
	}

	order, err := Assemble(draft, testBranch(1), snap, DefaultETAPolicy())
	require.NoError(t, err)

	// A later catalog rebuild with a new price must not affect the order
	// already assembled.
	_ = menu.BuildSnapshot([]models.MenuItem{{ID: 2, Name: "Coke", Price: 999, IsAvailable: true}})
	assert.Equal(t, 150.0, order.Lines[0].UnitPrice)
	assert.Equal(t, 150.0, order.TotalPrice)
}

func TestAssemble_RejectsPartiallyResolvedDraft(t *testing.T) {
	// The dialog layer prunes unmatched lines before storing a draft; a
	// draft that still carries one must never be shortened into an order
	// the customer did not confirm.
	draft := models.OrderDraft{
		CustomerID: "cust-1",
		Lines: []models.OrderLineDraft{
			{ItemID: 1, ItemName: "Zinger Burger", Quantity: 1, MatchScore: 1.0},
			{RawPhrase: "mystery dish", Quantity: 1, MatchScore: 0.2},
		},
	}

	_, err := Assemble(draft, testBranch(1), testSnapshot(), DefaultETAPolicy())
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestAssemble_Errors(t *testing.T) {
	snap := testSnapshot()

	t.Run("no branch selected", func(t *testing.T) {
		draft := models.OrderDraft{
			Lines: []models.OrderLineDraft{{ItemID: 1, Quantity: 1, MatchScore: 1.0}},
		}
		_, err := Assemble(draft, models.BranchDistance{}, snap, DefaultETAPolicy())
		assert.ErrorIs(t, err, ErrNoBranchSelected)
	})

	t.Run("empty draft", func(t *testing.T) {
		_, err := Assemble(models.OrderDraft{}, testBranch(1), snap, DefaultETAPolicy())
		assert.ErrorIs(t, err, ErrIncompleteDraft)
	})

	t.Run("only unresolved lines", func(t *testing.T) {
		draft := models.OrderDraft{
			Lines: []models.OrderLineDraft{{RawPhrase: "mystery dish", Quantity: 1}},
		}
		_, err := Assemble(draft, testBranch(1), snap, DefaultETAPolicy())
		assert.ErrorIs(t, err, ErrIncompleteDraft)
	})

	t.Run("item vanished from catalog", func(t *testing.T) {
		draft := models.OrderDraft{
			Lines: []models.OrderLineDraft{{ItemID: 99, Quantity: 1, MatchScore: 1.0}},
		}
		_, err := Assemble(draft, testBranch(1), snap, DefaultETAPolicy())
		assert.ErrorIs(t, err, ErrUnknownItem)
	})
}

func TestETAPolicy_Minutes(t *testing.T) {
	p := DefaultETAPolicy()

	tests := []struct {
		name       string
		distanceKm float64
		expected   int
	}{
		{"zero distance is base time", 0, 15},
		{"whole travel minutes", 2.5, 21}, // 2.5km at 25km/h = 6 min
		{"fractional rounds up", 1.0, 18}, // 2.4 min -> 3
		{"far delivery", 12.5, 45},        // 30 min travel
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Minutes(tt.distanceKm))
		})
	}
}
