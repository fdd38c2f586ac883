// internal/core/geo/resolver.go
package geo

import (
	"math"
	"sort"

	"foodexpress-workers/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Rank orders branches by distance from the origin, keeping only branches
// whose service radius covers the origin. Distances are non-decreasing; equal
// distances are broken by branch id ascending for determinism.
func Rank(originLat, originLon float64, branches []models.Branch) []models.BranchDistance {
	ranked := make([]models.BranchDistance, 0, len(branches))
	for _, b := range branches {
		dist := Haversine(originLat, originLon, b.Latitude, b.Longitude)
		if dist > b.ServiceRadiusKm {
			continue
		}
		ranked = append(ranked, models.BranchDistance{Branch: b, DistanceKm: dist})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Branch.ID < ranked[j].Branch.ID
	})
	return ranked
}
