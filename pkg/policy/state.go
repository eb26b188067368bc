package policy

import "github.com/gokaycavdar/go-trustguard/pkg/models"

// TrustState is the session-scoped record of blocking flags and violation
// history.
//
// Owned exclusively by the StateMachine: all mutation funnels through
// Raise, Reset and SetLastSample. Everything else gets copies.
type TrustState struct {
	// ViolationCount is the running total of raised violations.
	ViolationCount int `json:"violation_count"`

	// AppBlocked gates the whole application. Sticky once set.
	AppBlocked     bool   `json:"app_blocked"`
	AppBlockReason string `json:"app_block_reason,omitempty"`

	// AttendanceBlocked gates the check-in action only; the app stays
	// usable. Sticky once set.
	AttendanceBlocked     bool   `json:"attendance_blocked"`
	AttendanceBlockReason string `json:"attendance_block_reason,omitempty"`

	// EnhancedMonitoring requests tighter cycle periods from the host.
	EnhancedMonitoring bool `json:"enhanced_monitoring"`

	// LastSample is the most recent retained location sample.
	LastSample *models.LocationSample `json:"last_sample,omitempty"`
}

// DefaultViolationCeiling is the cumulative violation count above which the
// app is blocked regardless of individual severities. Six small issues are
// treated as one big one.
const DefaultViolationCeiling = 5

// ExcessiveViolationsReason is the block reason applied when the ceiling is
// exceeded.
const ExcessiveViolationsReason = "excessive violations in monitoring session"
