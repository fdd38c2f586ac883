// internal/models/intent.go
package models

// IntentKind is the customer's high-level goal inferred from a message.
type IntentKind string

const (
	IntentPlaceOrder        IntentKind = "place_order"
	IntentTrackOrder        IntentKind = "track_order"
	IntentNearbyRestaurants IntentKind = "nearby_restaurants"
	IntentConfirm           IntentKind = "confirm"
	IntentCancel            IntentKind = "cancel"
	IntentGreeting          IntentKind = "greeting"
	IntentGetMenu           IntentKind = "get_menu"
	IntentHelp              IntentKind = "help"
	IntentUnknown           IntentKind = "unknown"
)

// ParsedIntent is the classification result for one inbound message.
// Confidence is 1.0 for keyword-triggered intents, the mean match score of
// resolved order lines for place_order, and 0 for unknown.
type ParsedIntent struct {
	Kind       IntentKind `json:"kind"`
	Confidence float64    `json:"confidence"`
	RawText    string     `json:"rawText"`
}

// OrderLineDraft is one extracted (item, quantity) pair. ItemID is zero when
// the phrase could not be matched above the acceptance threshold.
type OrderLineDraft struct {
	ItemID     int64   `json:"itemId,omitempty"`
	ItemName   string  `json:"itemName,omitempty"`
	RawPhrase  string  `json:"rawPhrase"`
	Quantity   int     `json:"quantity"`
	MatchScore float64 `json:"matchScore"`
}

// Resolved reports whether the line was matched to a menu item.
func (l OrderLineDraft) Resolved() bool {
	return l.ItemID != 0
}
