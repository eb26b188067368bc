package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the escalation tier of a violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ViolationType is the closed enumeration of detectable violations.
//
// Each type carries a fixed severity tier and a human description. Adding a
// type here requires extending Severity() and Description() below; the state
// machine dispatches on the tier, never on free-form strings.
type ViolationType string

const (
	ViolationMockLocation            ViolationType = "mock_location"
	ViolationRootAccess              ViolationType = "root_access"
	ViolationGpsSpoofing             ViolationType = "gps_spoofing"
	ViolationVpnDetected             ViolationType = "vpn_detected"
	ViolationLocationOutsideGeofence ViolationType = "location_outside_geofence"
	ViolationImpossibleMovement      ViolationType = "impossible_movement"
	ViolationDebuggingEnabled        ViolationType = "debugging_enabled"
	ViolationNetworkMismatch         ViolationType = "network_mismatch"
	ViolationEmulatorDetected        ViolationType = "emulator_detected"
	ViolationUnknownSources          ViolationType = "unknown_sources"
	ViolationUnknown                 ViolationType = "unknown"
)

// Severity returns the fixed escalation tier for the violation type.
// Unknown types fall through to the lowest tier.
func (t ViolationType) Severity() Severity {
	switch t {
	case ViolationMockLocation, ViolationRootAccess:
		return SeverityCritical
	case ViolationGpsSpoofing, ViolationVpnDetected,
		ViolationLocationOutsideGeofence, ViolationImpossibleMovement:
		return SeverityHigh
	case ViolationDebuggingEnabled, ViolationNetworkMismatch,
		ViolationEmulatorDetected:
		return SeverityMedium
	case ViolationUnknownSources, ViolationUnknown:
		return SeverityLow
	}
	return SeverityLow
}

// Description returns the human-readable explanation for the violation type.
func (t ViolationType) Description() string {
	switch t {
	case ViolationMockLocation:
		return "Mock location detected"
	case ViolationRootAccess:
		return "Root access detected on device"
	case ViolationGpsSpoofing:
		return "GPS signal characteristics indicate spoofing"
	case ViolationVpnDetected:
		return "Active VPN connection detected"
	case ViolationLocationOutsideGeofence:
		return "Location outside the allowed area"
	case ViolationImpossibleMovement:
		return "Physically impossible movement between samples"
	case ViolationDebuggingEnabled:
		return "Developer debugging options enabled"
	case ViolationNetworkMismatch:
		return "Network location inconsistent with reported position"
	case ViolationEmulatorDetected:
		return "Application running on an emulator"
	case ViolationUnknownSources:
		return "Installation from unknown sources enabled"
	case ViolationUnknown:
		return "Unclassified violation"
	}
	return "Unclassified violation"
}

// ViolationEvent records a single negative verdict.
//
// Events are immutable; once raised they are owned by the severity state
// machine, which appends them to the session's ordered violation log.
type ViolationEvent struct {
	// ID uniquely identifies the event for reporting and audit.
	ID string `json:"id"`

	// Type classifies the violation and fixes its severity tier.
	Type ViolationType `json:"type"`

	// Detail is the evaluator's message for this specific occurrence,
	// e.g. the computed speed for an impossible-movement verdict.
	Detail string `json:"detail"`

	// ObservedAt is when the evaluator produced the verdict.
	ObservedAt time.Time `json:"observed_at"`
}

// NewViolationEvent creates an event with a fresh ID.
func NewViolationEvent(t ViolationType, detail string, observedAt time.Time) ViolationEvent {
	return ViolationEvent{
		ID:         uuid.NewString(),
		Type:       t,
		Detail:     detail,
		ObservedAt: observedAt,
	}
}
