package models

import "time"

// Provider identifies the positioning subsystem that produced a sample.
type Provider string

const (
	// ProviderGPS is a satellite-based fix.
	ProviderGPS Provider = "gps"

	// ProviderNetwork is a cell-tower/Wi-Fi derived fix.
	ProviderNetwork Provider = "network"

	// ProviderFused is the platform's blended provider.
	ProviderFused Provider = "fused"
)

// SatelliteBased reports whether samples from this provider are expected to
// carry satellite metadata such as altitude.
func (p Provider) SatelliteBased() bool {
	return p == ProviderGPS
}

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSample is a single observed position fix.
//
// Samples are produced by the platform location collaborator and are immutable
// once created: the evaluator only ever compares them, it never mutates them.
//
// Optional fields (Bearing, Speed) are only meaningful when the corresponding
// Has* flag is set. Absence of an optional field is informative, not
// disqualifying - the suspicion heuristics inspect the flags explicitly.
type LocationSample struct {
	Coordinate

	// AccuracyMeters is the reported 68%-confidence radius of the fix.
	AccuracyMeters float64 `json:"accuracy_meters"`

	// Timestamp is when the fix was obtained, per the producing collaborator.
	Timestamp time.Time `json:"timestamp"`

	// Provider is the positioning subsystem that produced the fix.
	Provider Provider `json:"provider"`

	HasAltitude bool `json:"has_altitude"`
	HasBearing  bool `json:"has_bearing"`
	HasSpeed    bool `json:"has_speed"`

	// Bearing in degrees from true north. Valid only when HasBearing.
	Bearing float64 `json:"bearing,omitempty"`

	// Speed in meters per second. Valid only when HasSpeed.
	Speed float64 `json:"speed,omitempty"`

	// IsFlaggedMock is the platform's own "this fix was injected" flag.
	// It is authoritative: when set, no further heuristics are consulted.
	IsFlaggedMock bool `json:"is_flagged_mock"`
}

// GeofenceZone is a circular allowed-region.
// Static configuration; RadiusMeters must be positive.
type GeofenceZone struct {
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}
