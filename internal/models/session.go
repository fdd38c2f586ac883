// internal/models/session.go
package models

import "time"

// Stage is the dialog stage of a conversation session.
type Stage string

const (
	StageAwaitingOrder        Stage = "awaiting_order"
	StageAwaitingLocation     Stage = "awaiting_location"
	StageAwaitingBranchChoice Stage = "awaiting_branch_choice"
	StageAwaitingConfirmation Stage = "awaiting_confirmation"
	StageCompleted            Stage = "completed"
	StageCancelled            Stage = "cancelled"
)

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

// ConversationSession is the per-customer dialog state. One session per
// customer, created lazily on the first message. The transport layer owns
// storage and serializes message processing per customer; the session itself
// is a plain value passed into and out of the state machine.
type ConversationSession struct {
	CustomerID        string           `json:"customerId" db:"customer_id"`
	Stage             Stage            `json:"stage" db:"stage"`
	Draft             *OrderDraft      `json:"draft,omitempty"`
	CandidateBranches []BranchDistance `json:"candidateBranches,omitempty"`
	SelectedBranch    *BranchDistance  `json:"selectedBranch,omitempty"`
	LastLocation      *Coordinates     `json:"lastLocation,omitempty"`

	// Idempotent replay: the last processed message id and the response it
	// produced. Replaying the same id returns LastResponse unchanged.
	LastMessageID string    `json:"lastMessageId,omitempty"`
	LastResponse  *Response `json:"lastResponse,omitempty"`

	// LastPromptKey and PromptRepeats drive re-prompt wording variation.
	LastPromptKey string    `json:"lastPromptKey,omitempty"`
	PromptRepeats int       `json:"promptRepeats,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" db:"last_updated_at"`
}

// NewSession creates a fresh session in the initial stage.
func NewSession(customerID string) ConversationSession {
	return ConversationSession{
		CustomerID:    customerID,
		Stage:         StageAwaitingOrder,
		LastUpdatedAt: time.Now().UTC(),
	}
}
