package authenticity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

var t0 = time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)

// goodSample returns a plausible GPS fix at the given position and time.
func goodSample(lat, lon float64, at time.Time) *models.LocationSample {
	return &models.LocationSample{
		Coordinate:     models.Coordinate{Latitude: lat, Longitude: lon},
		AccuracyMeters: 12.5,
		Timestamp:      at,
		Provider:       models.ProviderGPS,
		HasAltitude:    true,
	}
}

func TestIsMovementImpossibleReferenceExample(t *testing.T) {
	th := DefaultThresholds()

	// ~8.9 km across Manhattan in 60 seconds: ~540 km/h.
	prev := goodSample(40.7128, -74.0060, t0)
	cur := goodSample(40.7128, -73.9000, t0.Add(60*time.Second))

	assert.True(t, IsMovementImpossible(prev, cur, th))
}

func TestIsMovementImpossibleShortElapsed(t *testing.T) {
	th := DefaultThresholds()

	// Same teleport but under the 10 s judgment floor: cannot judge.
	prev := goodSample(40.7128, -74.0060, t0)
	cur := goodSample(40.7128, -73.9000, t0.Add(9*time.Second))

	assert.False(t, IsMovementImpossible(prev, cur, th))
}

func TestIsMovementImpossiblePlausibleWalk(t *testing.T) {
	th := DefaultThresholds()

	// ~100 m in 2 minutes.
	prev := goodSample(40.7128, -74.0060, t0)
	cur := goodSample(40.7128+100.0/111320.0, -74.0060, t0.Add(2*time.Minute))

	assert.False(t, IsMovementImpossible(prev, cur, th))
}

func TestIsMovementImpossibleNoPrevious(t *testing.T) {
	th := DefaultThresholds()
	cur := goodSample(40.7128, -74.0060, t0)

	assert.False(t, IsMovementImpossible(nil, cur, th))
}

func TestIsMovementImpossibleCustomThreshold(t *testing.T) {
	th := DefaultThresholds()
	th.MaxSpeedKmH = 1000

	prev := goodSample(40.7128, -74.0060, t0)
	cur := goodSample(40.7128, -73.9000, t0.Add(60*time.Second))

	// ~540 km/h is allowed under a 1000 km/h policy.
	assert.False(t, IsMovementImpossible(prev, cur, th))
}

func TestAreProvidersConsistent(t *testing.T) {
	th := DefaultThresholds()

	gps := goodSample(40.7128, -74.0060, t0)

	t.Run("close fixes agree", func(t *testing.T) {
		network := goodSample(40.7128+500.0/111320.0, -74.0060, t0)
		network.Provider = models.ProviderNetwork
		assert.True(t, AreProvidersConsistent(gps, network, th))
	})

	t.Run("distant fixes disagree", func(t *testing.T) {
		network := goodSample(40.7128+1500.0/111320.0, -74.0060, t0)
		network.Provider = models.ProviderNetwork
		assert.False(t, AreProvidersConsistent(gps, network, th))
	})

	t.Run("absent fix defaults to trust", func(t *testing.T) {
		assert.True(t, AreProvidersConsistent(gps, nil, th))
		assert.True(t, AreProvidersConsistent(nil, gps, th))
		assert.True(t, AreProvidersConsistent(nil, nil, th))
	})
}

func TestIsSignalSuspicious(t *testing.T) {
	th := DefaultThresholds()

	t.Run("plausible fix passes", func(t *testing.T) {
		assert.False(t, IsSignalSuspicious(goodSample(40.7, -74.0, t0), th))
	})

	t.Run("zero accuracy", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.AccuracyMeters = 0
		assert.True(t, IsSignalSuspicious(s, th))
	})

	t.Run("sub-meter accuracy", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.AccuracyMeters = 0.5
		assert.True(t, IsSignalSuspicious(s, th))
	})

	t.Run("gps fix without altitude", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.HasAltitude = false
		assert.True(t, IsSignalSuspicious(s, th))
	})

	t.Run("network fix without altitude is fine", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.Provider = models.ProviderNetwork
		s.HasAltitude = false
		assert.False(t, IsSignalSuspicious(s, th))
	})

	t.Run("zero speed with non-zero bearing", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.HasSpeed = true
		s.Speed = 0
		s.HasBearing = true
		s.Bearing = 135
		assert.True(t, IsSignalSuspicious(s, th))
	})

	t.Run("moving fix with bearing is fine", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.HasSpeed = true
		s.Speed = 1.4
		s.HasBearing = true
		s.Bearing = 135
		assert.False(t, IsSignalSuspicious(s, th))
	})

	t.Run("missing optional fields alone are fine", func(t *testing.T) {
		s := goodSample(40.7, -74.0, t0)
		s.HasSpeed = false
		s.HasBearing = false
		assert.False(t, IsSignalSuspicious(s, th))
	})
}

func TestValidateAgainstSecondarySource(t *testing.T) {
	th := DefaultThresholds()
	primary := models.Coordinate{Latitude: 41.0082, Longitude: 28.9784}

	t.Run("nil secondary defaults to trust", func(t *testing.T) {
		assert.True(t, ValidateAgainstSecondarySource(primary, nil, th))
	})

	t.Run("nearby secondary agrees", func(t *testing.T) {
		secondary := models.Coordinate{Latitude: 41.1, Longitude: 29.0}
		assert.True(t, ValidateAgainstSecondarySource(primary, &secondary, th))
	})

	t.Run("distant secondary disagrees", func(t *testing.T) {
		// Ankara is ~350 km from Istanbul, far past the 50 km bound.
		secondary := models.Coordinate{Latitude: 39.9334, Longitude: 32.8597}
		assert.False(t, ValidateAgainstSecondarySource(primary, &secondary, th))
	})
}
