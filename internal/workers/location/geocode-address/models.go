// internal/workers/location/geocode-address/models.go
package geocodeaddress

type Input struct {
	Address string `json:"address"`
	// City biases the query and enables the offline fallback table.
	City string `json:"city,omitempty"`
}

type Output struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName,omitempty"`
	Source      string  `json:"source"` // "geocoder" or "city_fallback"

	Ambiguous  bool        `json:"ambiguous"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Candidate struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

const (
	SourceGeocoder     = "geocoder"
	SourceCityFallback = "city_fallback"
)
