// internal/core/dialog/machine.go

// Package dialog sequences a multi-turn ordering conversation. The machine is
// pure decision logic: it is handed an already-loaded session, an inbound
// message with any external lookups (transcription, geocoding) pre-resolved,
// and the current branch list, and it returns the updated session plus the
// reply to send. Storage and per-customer serialization belong to the
// transport layer.
package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"foodexpress-workers/internal/common/logger"
	"foodexpress-workers/internal/core/geo"
	"foodexpress-workers/internal/core/intent"
	"foodexpress-workers/internal/core/menu"
	"foodexpress-workers/internal/core/orders"
	"foodexpress-workers/internal/models"
)

// Error kinds carried on recoverable prompt responses.
const (
	ErrKindUnresolvedItem             = "UNRESOLVED_ITEM"
	ErrKindAmbiguousBranchChoice      = "AMBIGUOUS_BRANCH_CHOICE"
	ErrKindNoServiceableBranch        = "NO_SERVICEABLE_BRANCH"
	ErrKindLowConfidenceTranscription = "LOW_CONFIDENCE_TRANSCRIPTION"
	ErrKindIncompleteDraft            = "INCOMPLETE_DRAFT"
)

// Config carries the tunable dialog thresholds.
type Config struct {
	// BranchChoiceMarginKm is the tie margin: when the runner-up branch is
	// within this distance of the winner the customer picks explicitly.
	BranchChoiceMarginKm float64
	// MinTranscriptionConfidence rejects voice transcripts below it.
	MinTranscriptionConfidence float64
	ETA                        orders.ETAPolicy
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BranchChoiceMarginKm:       0.3,
		MinTranscriptionConfidence: 0.6,
		ETA:                        orders.DefaultETAPolicy(),
	}
}

// Message is one inbound customer message with external lookups already
// resolved by the transport layer.
type Message struct {
	ID           string
	Text         string
	LanguageHint string

	// Coordinates is set when the message carried a location (shared pin or
	// geocoded address). LocationUnavailable signals that a location was
	// expected but the external lookup failed or was declined.
	Coordinates         *models.Coordinates
	LocationUnavailable bool

	// Voice marks a transcribed message; TranscriptionConfidence is the
	// transcriber's score for it.
	Voice                   bool
	TranscriptionConfidence float64
}

// Machine drives the conversation. It holds no per-customer state; the
// session travels in and out of HandleMessage as a value.
type Machine struct {
	catalog *menu.Catalog
	cfg     Config
	log     logger.Logger
}

func NewMachine(catalog *menu.Catalog, cfg Config, log logger.Logger) *Machine {
	return &Machine{catalog: catalog, cfg: cfg, log: log}
}

// HandleMessage advances the session by one message and returns the reply.
// Replaying a message id already processed returns the recorded response
// without a second transition.
func (m *Machine) HandleMessage(sess models.ConversationSession, msg Message, branches []models.Branch) (models.ConversationSession, models.Response) {
	if msg.ID != "" && msg.ID == sess.LastMessageID && sess.LastResponse != nil {
		return sess, *sess.LastResponse
	}

	resp := m.dispatch(&sess, msg, branches)

	sess.LastMessageID = msg.ID
	sess.LastResponse = &resp
	sess.LastUpdatedAt = time.Now().UTC()
	return sess, resp
}

func (m *Machine) dispatch(sess *models.ConversationSession, msg Message, branches []models.Branch) models.Response {
	if sess.Stage.Terminal() {
		return m.prompt(sess, "terminal",
			"This conversation has ended. Send a new message to start a fresh order.",
			"Your previous order flow is closed. Just tell me what you would like to order.")
	}

	if msg.Voice && msg.TranscriptionConfidence < m.cfg.MinTranscriptionConfidence {
		r := m.prompt(sess, "low_confidence",
			"Sorry, I could not make out the voice note. Could you type your order instead?",
			"The audio was unclear. Please send your order as a text message.")
		r.ErrKind = ErrKindLowConfidenceTranscription
		return r
	}

	snap := m.catalog.Snapshot()
	parsed, lines := intent.Extract(snap, 0, msg.Text, msg.LanguageHint)

	if parsed.Kind == models.IntentCancel {
		sess.Stage = models.StageCancelled
		m.log.Info("session cancelled", map[string]interface{}{"customerId": sess.CustomerID})
		return m.fixedPrompt(sess, "cancelled", "Your order has been cancelled. Message us any time to start again.")
	}

	// Side intents answer in place without a transition.
	switch parsed.Kind {
	case models.IntentTrackOrder:
		r := m.fixedPrompt(sess, "track", "Let me check on your order.")
		r.Intent = models.IntentTrackOrder
		return r
	case models.IntentGetMenu:
		r := m.fixedPrompt(sess, "menu", snap.Render())
		r.Intent = models.IntentGetMenu
		return r
	case models.IntentHelp:
		r := m.fixedPrompt(sess, "help",
			"You can order by naming items and quantities (for example \"2 zinger burger 1 coke\"), "+
				"share your location for delivery, say \"confirm\" to place the order, or \"cancel\" to stop.")
		r.Intent = models.IntentHelp
		return r
	case models.IntentNearbyRestaurants:
		return m.handleNearby(sess, msg, branches)
	}

	switch sess.Stage {
	case models.StageAwaitingOrder:
		return m.handleAwaitingOrder(sess, msg, parsed, lines, branches)
	case models.StageAwaitingLocation:
		return m.handleAwaitingLocation(sess, msg, parsed, lines, branches)
	case models.StageAwaitingBranchChoice:
		return m.handleAwaitingBranchChoice(sess, msg, parsed, lines)
	case models.StageAwaitingConfirmation:
		return m.handleAwaitingConfirmation(sess, msg, parsed, lines, snap, branches)
	default:
		return m.prompt(sess, "clarify",
			"Sorry, I did not catch that. What would you like to order?",
			"I did not understand that. Could you tell me the items you want?")
	}
}

// handleNearby answers a nearby-restaurants request from the last known
// location. It never touches the draft or the stage.
func (m *Machine) handleNearby(sess *models.ConversationSession, msg Message, branches []models.Branch) models.Response {
	loc := sess.LastLocation
	if msg.Coordinates != nil {
		loc = msg.Coordinates
		sess.LastLocation = msg.Coordinates
	}
	if loc == nil {
		return m.prompt(sess, "nearby_location",
			"Share your location and I will list the restaurants near you.",
			"I need your location first. Please share a pin or an address.")
	}
	ranked := geo.Rank(loc.Latitude, loc.Longitude, branches)
	if len(ranked) == 0 {
		r := m.fixedPrompt(sess, "nearby_none", "Sorry, no restaurant delivers to that area yet.")
		r.ErrKind = ErrKindNoServiceableBranch
		return r
	}
	m.markPrompt(sess, "nearby_list")
	return models.Response{
		Type:    models.ResponseBranchChoices,
		Prompt:  "Here are the restaurants near you:",
		Choices: ranked,
		Intent:  models.IntentNearbyRestaurants,
	}
}

func (m *Machine) handleAwaitingOrder(sess *models.ConversationSession, msg Message, parsed models.ParsedIntent, lines []models.OrderLineDraft, branches []models.Branch) models.Response {
	if msg.Coordinates != nil {
		// Location before any order: remember it and steer back to items.
		sess.LastLocation = msg.Coordinates
		return m.prompt(sess, "order_first",
			"Got your location. Now tell me what you would like to order.",
			"Location saved. Which items should I add to your order?")
	}

	switch parsed.Kind {
	case models.IntentPlaceOrder:
		return m.startDraft(sess, lines)
	case models.IntentGreeting:
		return m.prompt(sess, "greeting",
			"Hello! What would you like to order today? Say \"menu\" to see what we have.",
			"Hi there! Tell me the items and quantities you want, or say \"menu\".")
	default:
		return m.prompt(sess, "clarify",
			"Sorry, I did not catch that. What would you like to order?",
			"I did not understand that. Could you name the items you want?")
	}
}

// startDraft builds a fresh draft from extracted lines. With at least one
// resolved line the flow advances to the location step; all-unresolved input
// stays put and asks again.
func (m *Machine) startDraft(sess *models.ConversationSession, lines []models.OrderLineDraft) models.Response {
	draft := models.OrderDraft{
		CustomerID: sess.CustomerID,
		Lines:      lines,
		CreatedAt:  time.Now().UTC(),
	}
	resolved := draft.ResolvedLines()
	if len(resolved) == 0 {
		r := m.prompt(sess, "unresolved",
			fmt.Sprintf("I could not find %s on the menu. %s", describeUnresolved(draft.UnresolvedLines()), "Could you pick something from the menu?"),
			"None of those matched our menu. Say \"menu\" to see the items we serve.")
		r.ErrKind = ErrKindUnresolvedItem
		return r
	}

	text := "Got it: " + summarizeLines(resolved) + "."
	if unresolved := draft.UnresolvedLines(); len(unresolved) > 0 {
		text += " I could not find " + describeUnresolved(unresolved) + ", so I left it out."
		// Drop them for real so the stored draft matches the recap.
		draft.Lines = resolved
	}

	sess.Draft = &draft
	sess.Stage = models.StageAwaitingLocation
	sess.SelectedBranch = nil
	sess.CandidateBranches = nil

	text += " Please share your delivery location."
	return m.fixedPrompt(sess, "ask_location", text)
}

func (m *Machine) handleAwaitingLocation(sess *models.ConversationSession, msg Message, parsed models.ParsedIntent, lines []models.OrderLineDraft, branches []models.Branch) models.Response {
	if msg.LocationUnavailable {
		return m.prompt(sess, "location_retry",
			"I could not resolve that location. Could you share a map pin or a fuller address?",
			"That address did not work. Please try sharing your live location instead.")
	}

	if msg.Coordinates == nil {
		// A fresh order while we wait for a location supersedes the draft.
		if parsed.Kind == models.IntentPlaceOrder && hasResolved(lines) {
			m.log.Info("draft superseded before location", map[string]interface{}{"customerId": sess.CustomerID})
			return m.startDraft(sess, lines)
		}
		return m.prompt(sess, "ask_location_again",
			"I still need your delivery location to find the nearest restaurant.",
			"Please share your location (a pin or an address) so I can route your order.")
	}

	return m.resolveBranch(sess, msg.Coordinates, branches)
}

// resolveBranch ranks branches around the given pin and either selects the
// clear winner or asks the customer to choose among the near-ties.
func (m *Machine) resolveBranch(sess *models.ConversationSession, loc *models.Coordinates, branches []models.Branch) models.Response {
	sess.LastLocation = loc
	ranked := geo.Rank(loc.Latitude, loc.Longitude, branches)
	if len(ranked) == 0 {
		r := m.prompt(sess, "no_service",
			"Sorry, no restaurant delivers to that area yet. You could try a different address.",
			"That location is outside every delivery zone. Is there another address I can use?")
		r.ErrKind = ErrKindNoServiceableBranch
		return r
	}

	if len(ranked) == 1 || ranked[1].DistanceKm-ranked[0].DistanceKm > m.cfg.BranchChoiceMarginKm {
		return m.selectBranch(sess, ranked[0])
	}

	// Everything within the margin of the winner is a legitimate choice.
	candidates := ranked[:1]
	for _, bd := range ranked[1:] {
		if bd.DistanceKm-ranked[0].DistanceKm > m.cfg.BranchChoiceMarginKm {
			break
		}
		candidates = append(candidates, bd)
	}
	sess.CandidateBranches = candidates
	sess.Stage = models.StageAwaitingBranchChoice
	m.markPrompt(sess, "branch_choice")
	return models.Response{
		Type:    models.ResponseBranchChoices,
		Prompt:  "A few restaurants are about equally close. Reply with a number:\n" + listChoices(candidates),
		Choices: candidates,
	}
}

func (m *Machine) selectBranch(sess *models.ConversationSession, bd models.BranchDistance) models.Response {
	sess.SelectedBranch = &bd
	sess.CandidateBranches = nil
	sess.Stage = models.StageAwaitingConfirmation
	text := fmt.Sprintf("%s (%.1f km away) will prepare your order of %s. Reply \"confirm\" to place it or \"cancel\" to stop.",
		bd.Branch.Name, bd.DistanceKm, summarizeLines(sess.Draft.ResolvedLines()))
	return m.fixedPrompt(sess, "confirm", text)
}

func (m *Machine) handleAwaitingBranchChoice(sess *models.ConversationSession, msg Message, parsed models.ParsedIntent, lines []models.OrderLineDraft) models.Response {
	if bd, ok := pickCandidate(sess.CandidateBranches, msg.Text); ok {
		return m.selectBranch(sess, bd)
	}
	if parsed.Kind == models.IntentPlaceOrder && hasResolved(lines) {
		m.log.Info("draft superseded at branch choice", map[string]interface{}{"customerId": sess.CustomerID})
		return m.startDraft(sess, lines)
	}
	r := m.prompt(sess, "branch_choice_retry",
		"Please pick one of the listed restaurants by number:\n"+listChoices(sess.CandidateBranches),
		"I did not recognize that choice. Reply with the number of a restaurant:\n"+listChoices(sess.CandidateBranches))
	r.ErrKind = ErrKindAmbiguousBranchChoice
	r.Choices = sess.CandidateBranches
	return r
}

func (m *Machine) handleAwaitingConfirmation(sess *models.ConversationSession, msg Message, parsed models.ParsedIntent, lines []models.OrderLineDraft, snap *menu.Snapshot, branches []models.Branch) models.Response {
	switch {
	case msg.Coordinates != nil:
		// A new pin at the confirmation step means the customer moved;
		// rerun branch selection and confirm against the new restaurant.
		m.log.Info("location updated at confirmation", map[string]interface{}{"customerId": sess.CustomerID})
		sess.SelectedBranch = nil
		// Fall back to the location stage so an unserviceable pin leaves
		// the session waiting for a usable one, not a branchless confirm.
		sess.Stage = models.StageAwaitingLocation
		return m.resolveBranch(sess, msg.Coordinates, branches)

	case parsed.Kind == models.IntentConfirm:
		order, err := orders.Assemble(*sess.Draft, *sess.SelectedBranch, snap, m.cfg.ETA)
		if err != nil {
			// The machine guarantees the assembler preconditions; reaching
			// this is a bug, not a customer problem.
			m.log.Error("order assembly rejected", map[string]interface{}{
				"customerId": sess.CustomerID,
				"error":      err.Error(),
			})
			return models.Response{Type: models.ResponseError, ErrKind: err.Error(),
				Prompt: "Something went wrong placing your order. Please try again."}
		}
		sess.Stage = models.StageCompleted
		m.log.Info("order confirmed", map[string]interface{}{
			"customerId": sess.CustomerID,
			"orderId":    order.OrderID,
			"branchId":   order.BranchID,
			"total":      order.TotalPrice,
		})
		m.markPrompt(sess, "confirmed")
		return models.Response{
			Type:   models.ResponseOrderConfirmed,
			Order:  &order,
			Prompt: fmt.Sprintf("Order placed! Total Rs. %.0f, arriving in about %d minutes.", order.TotalPrice, order.ETAMinutes),
		}

	case parsed.Kind == models.IntentPlaceOrder && hasResolved(lines):
		// A new order at the confirmation step replaces the pending draft
		// and re-enters the flow from the top.
		m.log.Info("draft overwritten at confirmation", map[string]interface{}{"customerId": sess.CustomerID})
		sess.Stage = models.StageAwaitingOrder
		sess.SelectedBranch = nil
		return m.startDraft(sess, lines)

	default:
		return m.prompt(sess, "confirm_retry",
			"Reply \"confirm\" to place the order, or \"cancel\" to stop.",
			"Your order is waiting. Say \"confirm\" and we will get cooking, or \"cancel\".")
	}
}

// prompt returns a Prompt response, rotating wording when the same prompt key
// repeats so the customer never sees the identical message twice in a row.
func (m *Machine) prompt(sess *models.ConversationSession, key string, variants ...string) models.Response {
	idx := 0
	if sess.LastPromptKey == key {
		sess.PromptRepeats++
		idx = sess.PromptRepeats % len(variants)
	} else {
		sess.LastPromptKey = key
		sess.PromptRepeats = 0
	}
	return models.Response{Type: models.ResponsePrompt, Prompt: variants[idx]}
}

// fixedPrompt returns a Prompt response whose wording does not rotate.
func (m *Machine) fixedPrompt(sess *models.ConversationSession, key, text string) models.Response {
	m.markPrompt(sess, key)
	return models.Response{Type: models.ResponsePrompt, Prompt: text}
}

func (m *Machine) markPrompt(sess *models.ConversationSession, key string) {
	if sess.LastPromptKey != key {
		sess.LastPromptKey = key
		sess.PromptRepeats = 0
	}
}

func hasResolved(lines []models.OrderLineDraft) bool {
	for _, l := range lines {
		if l.Resolved() {
			return true
		}
	}
	return false
}

// pickCandidate matches a reply against the numbered candidate list, by index
// first and then by fuzzy branch name.
func pickCandidate(candidates []models.BranchDistance, text string) (models.BranchDistance, bool) {
	trimmed := strings.TrimSpace(text)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}
		return models.BranchDistance{}, false
	}

	normalized := menu.Normalize(trimmed, menu.LanguageEnglish)
	best, bestScore := models.BranchDistance{}, 0.0
	for _, bd := range candidates {
		score := menu.Similarity(normalized, menu.Normalize(bd.Branch.Name, menu.LanguageEnglish))
		if score > bestScore {
			best, bestScore = bd, score
		}
	}
	if bestScore >= menu.AutoResolveThreshold {
		return best, true
	}
	return models.BranchDistance{}, false
}

func listChoices(candidates []models.BranchDistance) string {
	var b strings.Builder
	for i, bd := range candidates {
		fmt.Fprintf(&b, "%d. %s (%.1f km)\n", i+1, bd.Branch.Name, bd.DistanceKm)
	}
	return strings.TrimRight(b.String(), "\n")
}

func summarizeLines(lines []models.OrderLineDraft) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d x %s", l.Quantity, l.ItemName))
	}
	return strings.Join(parts, ", ")
}

func describeUnresolved(lines []models.OrderLineDraft) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.ItemName != "" {
			parts = append(parts, fmt.Sprintf("%q (did you mean %s?)", l.RawPhrase, l.ItemName))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q", l.RawPhrase))
	}
	return strings.Join(parts, ", ")
}
