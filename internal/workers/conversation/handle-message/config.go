// internal/workers/conversation/handle-message/config.go
package handlemessage

import "time"

type Config struct {
	Timeout    time.Duration
	SessionTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		SessionTTL: 24 * time.Hour,
	}
}
