package policy

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokaycavdar/go-trustguard/pkg/metrics"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
	"github.com/gokaycavdar/go-trustguard/pkg/storage"
)

// ReportSink receives raised violations for delivery to the external
// reporting collaborator. Implementations must not block: submission
// failures are the sink's own retry concern, never the state machine's.
type ReportSink interface {
	// Report enqueues an event for ordinary delivery.
	Report(event models.ViolationEvent)

	// ImmediateAlert requests out-of-band delivery for critical events.
	ImmediateAlert(event models.ViolationEvent)
}

// StateSink mirrors blocking decisions to the host application's own state
// store (the screen-level blocking surface lives outside the core).
type StateSink interface {
	SetAppBlocked(blocked bool, reason string)
	SetAttendanceBlocked(blocked bool, reason string)
	SetEnhancedMonitoring(enabled bool)
}

// StateMachine classifies raised violations by severity tier and applies the
// escalation policy over a single owned TrustState.
//
// Escalation ladder per tier:
//
//	critical -> app blocked + immediate alert
//	high     -> attendance blocked
//	medium   -> enhanced monitoring
//	low      -> logged only
//
// Independent of tier, a cumulative count above the ceiling blocks the app.
//
// Blocking is sticky: nothing here ever clears a block. Only the explicit
// Reset (an admin override, outside normal operation) starts a fresh state.
// Silent self-healing of a security block is a correctness hazard.
//
// All mutation is atomic per call: both monitoring cycles raise
// concurrently, and the counter must reflect every raise while a block set
// by one cycle can never be lost to a race with the other.
type StateMachine struct {
	mu      sync.Mutex
	state   TrustState
	ceiling int

	store    storage.HistoryStore
	reporter ReportSink
	sink     StateSink
	logger   zerolog.Logger
}

// NewStateMachine creates a machine with a fresh TrustState.
// A ceiling of 0 falls back to DefaultViolationCeiling.
func NewStateMachine(ceiling int, store storage.HistoryStore, reporter ReportSink, sink StateSink, logger zerolog.Logger) *StateMachine {
	if ceiling <= 0 {
		ceiling = DefaultViolationCeiling
	}
	return &StateMachine{
		ceiling:  ceiling,
		store:    store,
		reporter: reporter,
		sink:     sink,
		logger:   logger.With().Str("component", "policy").Logger(),
	}
}

// Raise records a violation and applies the escalation policy.
//
// The event is appended to the violation log, the counter is incremented,
// and the tier dispatch plus ceiling check run - all under one lock, so
// concurrent raises serialize. Side effects (report sink, state sink) fire
// after the state transition is complete.
func (m *StateMachine) Raise(event models.ViolationEvent) {
	severity := event.Type.Severity()

	m.mu.Lock()

	m.state.ViolationCount++

	var (
		appBlockReason        string
		attendanceBlockReason string
		enableMonitoring      bool
		alert                 bool
	)

	switch severity {
	case models.SeverityCritical:
		if !m.state.AppBlocked {
			m.state.AppBlocked = true
			m.state.AppBlockReason = event.Type.Description()
			appBlockReason = m.state.AppBlockReason
		}
		alert = true
	case models.SeverityHigh:
		if !m.state.AttendanceBlocked {
			m.state.AttendanceBlocked = true
			m.state.AttendanceBlockReason = event.Type.Description()
			attendanceBlockReason = m.state.AttendanceBlockReason
		}
	case models.SeverityMedium:
		if !m.state.EnhancedMonitoring {
			m.state.EnhancedMonitoring = true
			enableMonitoring = true
		}
	case models.SeverityLow:
		// Logged and counted only.
	}

	// Absolute ceiling, independent of individual severities.
	if m.state.ViolationCount > m.ceiling && !m.state.AppBlocked {
		m.state.AppBlocked = true
		m.state.AppBlockReason = ExcessiveViolationsReason
		appBlockReason = ExcessiveViolationsReason
	}

	count := m.state.ViolationCount
	appBlocked := m.state.AppBlocked
	attendanceBlocked := m.state.AttendanceBlocked

	m.mu.Unlock()

	if err := m.store.AppendViolation(event); err != nil {
		m.logger.Error().Err(err).Str("violation_id", event.ID).Msg("failed to append violation to log")
	}

	m.logger.Warn().
		Str("violation_id", event.ID).
		Str("type", string(event.Type)).
		Str("severity", string(severity)).
		Str("detail", event.Detail).
		Int("count", count).
		Msg("violation raised")

	metrics.ViolationsRaised.WithLabelValues(string(event.Type), string(severity)).Inc()
	metrics.SetBlockedState(appBlocked, attendanceBlocked)

	if m.sink != nil {
		if appBlockReason != "" {
			m.sink.SetAppBlocked(true, appBlockReason)
		}
		if attendanceBlockReason != "" {
			m.sink.SetAttendanceBlocked(true, attendanceBlockReason)
		}
		if enableMonitoring {
			m.sink.SetEnhancedMonitoring(true)
		}
	}

	if m.reporter != nil {
		m.reporter.Report(event)
		if alert {
			m.reporter.ImmediateAlert(event)
		}
	}
}

// AppBlocked reports whether the app-level block is in effect.
func (m *StateMachine) AppBlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AppBlocked
}

// AttendanceBlocked reports whether attendance actions are blocked.
// An app-level block implies an attendance block.
func (m *StateMachine) AttendanceBlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AttendanceBlocked || m.state.AppBlocked
}

// BlockingReason returns the most severe active block's reason.
// ok is false when nothing is blocked.
func (m *StateMachine) BlockingReason() (reason string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.AppBlocked {
		return m.state.AppBlockReason, true
	}
	if m.state.AttendanceBlocked {
		return m.state.AttendanceBlockReason, true
	}
	return "", false
}

// EnhancedMonitoring reports whether tighter monitoring was requested.
func (m *StateMachine) EnhancedMonitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.EnhancedMonitoring
}

// ViolationCount returns the running violation total.
func (m *StateMachine) ViolationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ViolationCount
}

// SetLastSample records the most recent retained location sample.
func (m *StateMachine) SetLastSample(sample *models.LocationSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastSample = sample
}

// LastSample returns the most recent retained location sample, nil when no
// sample has been retained this session.
func (m *StateMachine) LastSample() *models.LocationSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastSample
}

// Snapshot returns a copy of the current TrustState.
func (m *StateMachine) Snapshot() TrustState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset starts a fresh TrustState and clears the history store.
//
// This is the explicit external reset (admin override). It is the only way
// a block is ever cleared.
func (m *StateMachine) Reset() {
	m.mu.Lock()
	m.state = TrustState{}
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear history on reset")
	}

	metrics.SetBlockedState(false, false)

	if m.sink != nil {
		m.sink.SetAppBlocked(false, "")
		m.sink.SetAttendanceBlocked(false, "")
		m.sink.SetEnhancedMonitoring(false)
	}

	m.logger.Info().Msg("trust state reset")
}
