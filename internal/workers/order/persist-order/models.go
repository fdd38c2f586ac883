// internal/workers/order/persist-order/models.go
package persistorder

import "foodexpress-workers/internal/models"

type Input struct {
	Order models.ResolvedOrder `json:"order"`
}

type Output struct {
	OrderID string `json:"orderId"`
	// Duplicate is set when this order id was already persisted; the job
	// still completes so a replayed process does not double-fail.
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status"`
}

const StatusConfirmed = "confirmed"
