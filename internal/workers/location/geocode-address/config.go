// internal/workers/location/geocode-address/config.go
package geocodeaddress

import "time"

type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int

	// AmbiguityRadiusKm: when the top two geocoder hits are further apart
	// than this, the address is reported as ambiguous instead of silently
	// picking the first.
	AmbiguityRadiusKm float64
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:           "https://nominatim.openstreetmap.org",
		UserAgent:         "foodexpress-workers/1.0",
		Timeout:           10 * time.Second,
		MaxRetries:        2,
		AmbiguityRadiusKm: 10,
	}
}
