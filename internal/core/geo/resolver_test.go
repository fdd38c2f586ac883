// internal/core/geo/resolver_test.go
package geo

import (
	"testing"

	"foodexpress-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference coordinates: Karachi, Lahore, Islamabad (the default branch
// cities).
const (
	karachiLat = 24.8607
	karachiLon = 67.0011
	lahoreLat  = 31.5204
	lahoreLon  = 74.3587
)

func TestHaversine_ZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(karachiLat, karachiLon, karachiLat, karachiLon))
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := Haversine(karachiLat, karachiLon, lahoreLat, lahoreLon)
	ba := Haversine(lahoreLat, lahoreLon, karachiLat, karachiLon)
	assert.InEpsilon(t, ab, ba, 1e-6)
}

func TestHaversine_ReferenceDistance(t *testing.T) {
	// Karachi to Lahore is roughly 1033 km great-circle.
	d := Haversine(karachiLat, karachiLon, lahoreLat, lahoreLon)
	assert.InEpsilon(t, 1032.9988323128148, d, 1e-6)

	// One degree of latitude at the equator under R=6371.0.
	d = Haversine(0, 0, 1, 0)
	assert.InEpsilon(t, 111.19492664455873, d, 1e-6)
}

func TestRank_FiltersByServiceRadius(t *testing.T) {
	branches := []models.Branch{
		{ID: 1, Name: "Near", Latitude: karachiLat + 0.01, Longitude: karachiLon, ServiceRadiusKm: 5},
		{ID: 2, Name: "Far", Latitude: lahoreLat, Longitude: lahoreLon, ServiceRadiusKm: 5},
		{ID: 3, Name: "Tight radius", Latitude: karachiLat + 0.05, Longitude: karachiLon, ServiceRadiusKm: 1},
	}

	ranked := Rank(karachiLat, karachiLon, branches)
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(1), ranked[0].Branch.ID)
	for _, r := range ranked {
		assert.LessOrEqual(t, r.DistanceKm, r.Branch.ServiceRadiusKm)
	}
}

func TestRank_DistancesNonDecreasing(t *testing.T) {
	branches := []models.Branch{
		{ID: 1, Latitude: karachiLat + 0.03, Longitude: karachiLon, ServiceRadiusKm: 50},
		{ID: 2, Latitude: karachiLat + 0.01, Longitude: karachiLon, ServiceRadiusKm: 50},
		{ID: 3, Latitude: karachiLat + 0.02, Longitude: karachiLon, ServiceRadiusKm: 50},
	}

	ranked := Rank(karachiLat, karachiLon, branches)
	require.Len(t, ranked, 3)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i].DistanceKm, ranked[i-1].DistanceKm)
	}
	assert.Equal(t, int64(2), ranked[0].Branch.ID)
}

func TestRank_TiesBrokenByBranchID(t *testing.T) {
	branches := []models.Branch{
		{ID: 7, Latitude: karachiLat + 0.01, Longitude: karachiLon, ServiceRadiusKm: 50},
		{ID: 3, Latitude: karachiLat + 0.01, Longitude: karachiLon, ServiceRadiusKm: 50},
	}

	ranked := Rank(karachiLat, karachiLon, branches)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(3), ranked[0].Branch.ID)
	assert.Equal(t, int64(7), ranked[1].Branch.ID)
}

func TestRank_EmptyWhenNothingServiceable(t *testing.T) {
	branches := []models.Branch{
		{ID: 1, Latitude: lahoreLat, Longitude: lahoreLon, ServiceRadiusKm: 10},
	}
	assert.Empty(t, Rank(karachiLat, karachiLon, branches))
}
