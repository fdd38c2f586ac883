// internal/models/menu.go
package models

// MenuItem is a single orderable item on a branch menu. Items are immutable
// once loaded; menu updates rebuild the whole catalog snapshot.
type MenuItem struct {
	ID          int64    `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Aliases     []string `json:"aliases,omitempty" db:"aliases"`
	Category    string   `json:"category" db:"category"`
	Description string   `json:"description,omitempty" db:"description"`
	Price       float64  `json:"price" db:"price"`
	BranchID    int64    `json:"branchId" db:"branch_id"`
	IsAvailable bool     `json:"isAvailable" db:"is_available"`
}

// Branch is a physical restaurant location with a delivery service radius.
type Branch struct {
	ID              int64   `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	Address         string  `json:"address,omitempty" db:"address"`
	Phone           string  `json:"phone,omitempty" db:"phone"`
	Latitude        float64 `json:"latitude" db:"latitude"`
	Longitude       float64 `json:"longitude" db:"longitude"`
	ServiceRadiusKm float64 `json:"serviceRadiusKm" db:"service_radius_km"`
}

// BranchDistance pairs a branch with its great-circle distance from a
// customer's delivery point.
type BranchDistance struct {
	Branch     Branch  `json:"branch"`
	DistanceKm float64 `json:"distanceKm"`
}

// Coordinates is a resolved delivery point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
