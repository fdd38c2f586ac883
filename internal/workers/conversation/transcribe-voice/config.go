// internal/workers/conversation/transcribe-voice/config.go
package transcribevoice

import "time"

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int

	// MinConfidence below which the transcript is flagged so the dialog can
	// ask for a text fallback instead of guessing.
	MinConfidence float64
}

func LoadConfig() *Config {
	return &Config{
		Model:         "whisper-1",
		Timeout:       60 * time.Second,
		MaxRetries:    2,
		MinConfidence: 0.6,
	}
}
