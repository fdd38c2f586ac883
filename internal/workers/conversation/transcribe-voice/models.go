// internal/workers/conversation/transcribe-voice/models.go
package transcribevoice

type Input struct {
	AudioURL string `json:"audioUrl"`
	Language string `json:"language,omitempty"`
}

type Output struct {
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"lowConfidence"`
}
