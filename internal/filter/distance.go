package filter

import (
	"math"

	"github.com/couchcryptid/cat-sightings-service/internal/domain"
)

// EarthRadiusMeters matches the sphere used by the Google Maps geometry
// library, so region circles drawn on the map agree with the filter.
const EarthRadiusMeters = 6378137.0

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula.
func Distance(a, b domain.Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
