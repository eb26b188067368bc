package authenticity

import (
	"github.com/gokaycavdar/go-trustguard/pkg/geo"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// IsMovementImpossible reports whether the transition from previous to
// current would require implausible speed.
//
// Returns false when previous is nil (a session's first sample has nothing
// to be compared against) and when less than MinElapsed passed between the
// samples - too little time is insufficient signal to judge, not evidence
// of tampering.
func IsMovementImpossible(previous, current *models.LocationSample, t Thresholds) bool {
	if previous == nil || current == nil {
		return false
	}

	elapsed := current.Timestamp.Sub(previous.Timestamp)
	if elapsed < t.MinElapsed {
		return false
	}

	distance := geo.Distance(previous.Coordinate, current.Coordinate)
	speedKmH := distance / elapsed.Seconds() * 3.6

	return speedKmH > t.MaxSpeedKmH
}

// AreProvidersConsistent cross-checks a GPS fix against a network fix.
//
// Consistent iff both are present and within MaxProviderDistanceMeters of
// each other. When either is absent there is nothing to compare, and the
// default is to trust.
func AreProvidersConsistent(gps, network *models.LocationSample, t Thresholds) bool {
	if gps == nil || network == nil {
		return true
	}
	return geo.Distance(gps.Coordinate, network.Coordinate) <= t.MaxProviderDistanceMeters
}

// IsSignalSuspicious applies the per-sample spoofing heuristics:
//
//   - accuracy of exactly 0, or below MinAccuracyMeters: real hardware
//     does not deliver perfect fixes, mock providers routinely do
//   - a satellite-based fix with no altitude: genuine GPS fixes carry one
//   - zero speed together with a non-zero bearing: a physically
//     inconsistent combination
//
// Missing optional fields alone never make a sample suspicious; only the
// combinations above do.
func IsSignalSuspicious(s *models.LocationSample, t Thresholds) bool {
	if s == nil {
		return false
	}

	if s.AccuracyMeters == 0 || s.AccuracyMeters < t.MinAccuracyMeters {
		return true
	}

	if s.Provider.SatelliteBased() && !s.HasAltitude {
		return true
	}

	if s.HasSpeed && s.Speed == 0 && s.HasBearing && s.Bearing != 0 {
		return true
	}

	return false
}

// ValidateAgainstSecondarySource compares the claimed position with a
// coarse secondary (IP-derived) position.
//
// True when secondary is nil - an unimplemented or failed lookup cannot
// judge, and the default is to trust. IP geolocation is city-grade at
// best, hence the generous distance bound.
func ValidateAgainstSecondarySource(primary models.Coordinate, secondary *models.Coordinate, t Thresholds) bool {
	if secondary == nil {
		return true
	}
	return geo.Distance(primary, *secondary) <= t.MaxSecondaryDistanceMeters
}
