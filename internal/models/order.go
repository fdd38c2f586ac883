// internal/models/order.go
package models

import "time"

// OrderDraft is an in-progress, unconfirmed order tied to a session. It is
// mutated only by the conversation state machine; a new order intent
// supersedes the draft rather than merging into it.
type OrderDraft struct {
	CustomerID string           `json:"customerId"`
	Lines      []OrderLineDraft `json:"lines"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// ResolvedLines returns the lines matched to a menu item.
func (d *OrderDraft) ResolvedLines() []OrderLineDraft {
	out := make([]OrderLineDraft, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.Resolved() {
			out = append(out, l)
		}
	}
	return out
}

// UnresolvedLines returns the lines below the match threshold.
func (d *OrderDraft) UnresolvedLines() []OrderLineDraft {
	out := make([]OrderLineDraft, 0)
	for _, l := range d.Lines {
		if !l.Resolved() {
			out = append(out, l)
		}
	}
	return out
}

// Complete reports whether every line is resolved. A draft becomes a
// ResolvedOrder only when Complete and a branch is selected.
func (d *OrderDraft) Complete() bool {
	if len(d.Lines) == 0 {
		return false
	}
	for _, l := range d.Lines {
		if !l.Resolved() {
			return false
		}
	}
	return true
}

// OrderLine is a priced line of a confirmed order. UnitPrice is snapshotted
// from the menu item at assembly time.
type OrderLine struct {
	Item      MenuItem `json:"item"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unitPrice"`
}

// ResolvedOrder is the immutable record produced by the order assembler on
// confirmation. TotalPrice is computed once and never recomputed.
type ResolvedOrder struct {
	OrderID    string      `json:"orderId" db:"order_id"`
	CustomerID string      `json:"customerId" db:"customer_id"`
	BranchID   int64       `json:"branchId" db:"branch_id"`
	Lines      []OrderLine `json:"lines"`
	TotalPrice float64     `json:"totalPrice" db:"total_price"`
	ETAMinutes int         `json:"etaMinutes" db:"eta_minutes"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
}
