package models

import "time"

// IntegritySignals is a point-in-time snapshot of device-integrity indicators.
//
// Each flag is independently obtained by the platform collaborator; the
// snapshot has no identity beyond the moment it was taken at. How a flag is
// derived (which file paths, which package names) is the signal source's
// concern, never the aggregator's.
//
// A collaborator that cannot determine a flag reports the safe default for
// that flag. For the tamper-critical flags (Rooted, the platform mock flag)
// the safe default is "assume compromised"; for everything else it is the
// unflagged zero value.
type IntegritySignals struct {
	Rooted                          bool `json:"rooted"`
	DeveloperOptionsEnabled         bool `json:"developer_options_enabled"`
	USBDebuggingEnabled             bool `json:"usb_debugging_enabled"`
	UnknownSourcesEnabled           bool `json:"unknown_sources_enabled"`
	MockLocationAppPresent          bool `json:"mock_location_app_present"`
	InstrumentationFrameworkPresent bool `json:"instrumentation_framework_present"`
	RunningOnEmulator               bool `json:"running_on_emulator"`
	VPNActive                       bool `json:"vpn_active"`

	// TakenAt is when the snapshot was collected.
	TakenAt time.Time `json:"taken_at"`
}

// SecurityScore is a bounded device trust score derived from IntegritySignals.
// Invariant: always within [0, 100]; 100 means no integrity flag was raised.
type SecurityScore int

const (
	// MinSecurityScore is the floor of the score range.
	MinSecurityScore SecurityScore = 0

	// MaxSecurityScore is the score of a device with no flags raised.
	MaxSecurityScore SecurityScore = 100
)
