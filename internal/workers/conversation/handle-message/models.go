// internal/workers/conversation/handle-message/models.go
package handlemessage

import "foodexpress-workers/internal/models"

type Input struct {
	CustomerID   string `json:"customerId"`
	MessageID    string `json:"messageId"`
	Text         string `json:"text"`
	LanguageHint string `json:"languageHint,omitempty"`

	// Set when the message carried a location pin or a geocoded address.
	Latitude            *float64 `json:"latitude,omitempty"`
	Longitude           *float64 `json:"longitude,omitempty"`
	LocationUnavailable bool     `json:"locationUnavailable,omitempty"`

	// Set by the transcribe-voice worker for voice messages.
	Voice                   bool    `json:"voice,omitempty"`
	TranscriptionConfidence float64 `json:"transcriptionConfidence,omitempty"`
}

type Output struct {
	Response models.Response `json:"response"`
	Stage    models.Stage    `json:"stage"`

	// OrderConfirmed is set when the reply carries a freshly assembled order
	// so the process can branch into persistence and notification.
	OrderConfirmed bool `json:"orderConfirmed"`
}
