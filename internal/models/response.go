// internal/models/response.go
package models

// ResponseType tags the variant of a state machine response.
type ResponseType string

const (
	ResponsePrompt         ResponseType = "prompt"
	ResponseOrderConfirmed ResponseType = "order_confirmed"
	ResponseBranchChoices  ResponseType = "branch_choices"
	ResponseError          ResponseType = "error"
)

// Response is the tagged result of handling one inbound message. Exactly one
// of Order or Choices is set, depending on Type; Prompt carries the reply
// text for prompt and error variants. Intent echoes the classified intent so
// the transport layer can enrich side-flow replies (e.g. fill in order status
// for track_order) without re-parsing the message.
type Response struct {
	Type    ResponseType     `json:"type"`
	Prompt  string           `json:"prompt,omitempty"`
	Order   *ResolvedOrder   `json:"order,omitempty"`
	Choices []BranchDistance `json:"choices,omitempty"`
	ErrKind string           `json:"errKind,omitempty"`
	Intent  IntentKind       `json:"intent,omitempty"`
}
