package authenticity

import "time"

// Thresholds are the calibration constants of the authenticity checks.
//
// These model policy, not physics: 200 km/h is the fastest plausible
// ordinary terrestrial travel between attendance check-ins, not a law of
// nature. Deployments with different mobility assumptions (field staff on
// domestic flights, campuses next to high-speed rail) override them via
// configuration rather than forking the checks.
type Thresholds struct {
	// MaxSpeedKmH is the speed above which movement between two samples
	// is judged impossible.
	MaxSpeedKmH float64

	// MinElapsed is the minimum time between samples required before the
	// movement check can judge at all. Below it the signal is too noisy.
	MinElapsed time.Duration

	// MaxProviderDistanceMeters is the largest allowed disagreement
	// between a GPS fix and a network fix taken together.
	MaxProviderDistanceMeters float64

	// MaxSecondaryDistanceMeters is the largest allowed disagreement
	// between the claimed position and the coarse IP-derived position.
	MaxSecondaryDistanceMeters float64

	// MinAccuracyMeters is the reported accuracy below which a fix is
	// implausibly perfect. Mock providers often report 0 or sub-meter
	// accuracy that real hardware cannot deliver.
	MinAccuracyMeters float64
}

// DefaultThresholds returns the stock calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxSpeedKmH:                200,
		MinElapsed:                 10 * time.Second,
		MaxProviderDistanceMeters:  1000,
		MaxSecondaryDistanceMeters: 50000,
		MinAccuracyMeters:          1,
	}
}
