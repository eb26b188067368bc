package geo

import (
	"math"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// coordinateEpsilon bounds float comparison against the (0, 0) sentinel.
// 1e-7 degrees is roughly a centimeter at the equator, well below the
// accuracy of any fix this package will ever see.
const coordinateEpsilon = 1e-7

// Distance returns the great-circle distance between two coordinates in
// meters, computed with the haversine formula.
//
// This is the shared primitive behind every geographic check: geofence
// containment, impossible movement, provider consistency and the
// secondary-source cross-check all reduce to a distance comparison.
func Distance(a, b models.Coordinate) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180.0)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180.0)

	lat1 := a.Latitude * (math.Pi / 180.0)
	lat2 := b.Latitude * (math.Pi / 180.0)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// WithinZone reports whether the coordinate lies inside the geofence,
// boundary included.
func WithinZone(c models.Coordinate, zone models.GeofenceZone) bool {
	return Distance(c, zone.Center) <= zone.RadiusMeters
}

// IsUnknown reports whether the coordinate is the (0, 0) sentinel meaning
// "no location available". Uses an epsilon comparison rather than direct
// float equality.
func IsUnknown(c models.Coordinate) bool {
	return math.Abs(c.Latitude) < coordinateEpsilon &&
		math.Abs(c.Longitude) < coordinateEpsilon
}
