// internal/core/orders/assembler.go
package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/models"
)

var (
	ErrIncompleteDraft  = errors.New("INCOMPLETE_DRAFT")
	ErrNoBranchSelected = errors.New("NO_BRANCH_SELECTED")
	ErrUnknownItem      = errors.New("UNRESOLVED_ITEM")
)

// ETAPolicy estimates delivery time from the branch distance.
type ETAPolicy struct {
	BaseMinutes    int     // kitchen preparation time
	TravelSpeedKmh float64 // average rider speed
}

// DefaultETAPolicy matches what the dispatch team quotes customers today.
func DefaultETAPolicy() ETAPolicy {
	return ETAPolicy{BaseMinutes: 15, TravelSpeedKmh: 25}
}

// Minutes returns the quoted ETA for a delivery distance, rounded up to the
// next whole minute.
func (p ETAPolicy) Minutes(distanceKm float64) int {
	if distanceKm <= 0 || p.TravelSpeedKmh <= 0 {
		return p.BaseMinutes
	}
	travel := distanceKm / p.TravelSpeedKmh * 60
	minutes := p.BaseMinutes + int(travel)
	if travel > float64(int(travel)) {
		minutes++
	}
	return minutes
}

// Assemble turns a completed draft and a selected branch into a priced order.
// Every line must already be resolved to a menu item; a draft that still
// carries an unmatched line is rejected rather than silently shortened. Unit
// prices are snapshotted from the current catalog so later menu edits never
// reprice an order already confirmed.
func Assemble(draft models.OrderDraft, branch models.BranchDistance, snap *menu.Snapshot, policy ETAPolicy) (models.ResolvedOrder, error) {
	if branch.Branch.ID == 0 {
		return models.ResolvedOrder{}, ErrNoBranchSelected
	}
	resolved := draft.ResolvedLines()
	if len(resolved) == 0 || len(resolved) != len(draft.Lines) {
		return models.ResolvedOrder{}, ErrIncompleteDraft
	}

	order := models.ResolvedOrder{
		OrderID:    uuid.NewString(),
		CustomerID: draft.CustomerID,
		BranchID:   branch.Branch.ID,
		Lines:      make([]models.OrderLine, 0, len(resolved)),
		ETAMinutes: policy.Minutes(branch.DistanceKm),
		CreatedAt:  time.Now().UTC(),
	}
	for _, l := range resolved {
		item, ok := snap.ItemByID(l.ItemID)
		if !ok {
			return models.ResolvedOrder{}, ErrUnknownItem
		}
		order.Lines = append(order.Lines, models.OrderLine{
			Item:      item,
			Quantity:  l.Quantity,
			UnitPrice: item.Price,
		})
		order.TotalPrice += item.Price * float64(l.Quantity)
	}
	return order, nil
}
