// internal/workers/menu/refresh-menu/models.go
package refreshmenu

import "time"

type Input struct {
	// Reason is free-form operator context ("nightly", "price update") and is
	// only logged.
	Reason string `json:"reason,omitempty"`
}

type Output struct {
	ItemCount      int       `json:"itemCount"`
	AvailableCount int       `json:"availableCount"`
	IndexedCount   int       `json:"indexedCount"`
	RefreshedAt    time.Time `json:"refreshedAt"`
}
