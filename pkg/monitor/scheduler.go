// Package monitor drives the periodic trust-evaluation cycles.
//
// Two independent cycles share one state machine: a short-period location
// authenticity cycle (the primary control, runs every period) and a
// longer-period device integrity cycle whose most expensive probe is
// throttled further still. Both are plain suture services; stopping the
// supervisor stops both at their next wake-up and releases the location
// subscription.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokaycavdar/go-trustguard/pkg/authenticity"
	"github.com/gokaycavdar/go-trustguard/pkg/config"
	"github.com/gokaycavdar/go-trustguard/pkg/geo"
	"github.com/gokaycavdar/go-trustguard/pkg/integrity"
	"github.com/gokaycavdar/go-trustguard/pkg/metrics"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
	"github.com/gokaycavdar/go-trustguard/pkg/policy"
	"github.com/gokaycavdar/go-trustguard/pkg/storage"
)

// Deps are the scheduler's collaborators. Location, Integrity, Machine and
// Store are required; Network and Secondary are optional and default to
// trust when absent.
type Deps struct {
	Location  LocationSource
	Integrity IntegritySource
	Network   NetworkSource
	Secondary SecondaryGeoSource
	Machine   *policy.StateMachine
	Store     storage.HistoryStore
	Logger    zerolog.Logger
}

// Scheduler owns the two evaluation cycles.
type Scheduler struct {
	cfg       config.MonitorConfig
	zone      models.GeofenceZone
	evaluator *authenticity.Evaluator
	deps      Deps
	logger    zerolog.Logger

	// now is injectable for tests; evaluation time always comes from
	// here, never from inside the evaluator.
	now func() time.Time

	mu              sync.Mutex
	integrityCycles int
	deepRooted      bool
	lastScore       models.SecurityScore
}

// New creates a scheduler.
func New(cfg config.MonitorConfig, zone models.GeofenceZone, thresholds authenticity.Thresholds, deps Deps) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		zone:      zone,
		evaluator: authenticity.NewEvaluator(thresholds),
		deps:      deps,
		logger:    deps.Logger.With().Str("component", "monitor").Logger(),
		now:       time.Now,
		lastScore: models.MaxSecurityScore,
	}
}

// AuthenticityCycle returns the short-period location cycle as a service.
func (s *Scheduler) AuthenticityCycle() *Cycle {
	return NewCycle("authenticity-cycle", s.cfg.AuthenticityPeriod, s.runAuthenticityCheck, s.logger)
}

// IntegrityCycle returns the long-period integrity cycle as a service.
func (s *Scheduler) IntegrityCycle() *Cycle {
	return NewCycle("integrity-cycle", s.cfg.IntegrityPeriod, s.runIntegrityCheck, s.logger)
}

// SecurityScore returns the most recently computed device security score.
// Before the first integrity cycle completes it reports the maximum.
func (s *Scheduler) SecurityScore() models.SecurityScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScore
}

// Release drops held collaborator resources (location subscriptions).
// Called once after the supervisor has stopped.
func (s *Scheduler) Release() {
	if s.deps.Location != nil {
		s.deps.Location.Release()
	}
}

// runAuthenticityCheck performs one location-authenticity iteration.
//
// A returned error means a collaborator failed and the cycle should back
// off; a negative verdict is not an error, it is raised and the iteration
// succeeds.
func (s *Scheduler) runAuthenticityCheck(ctx context.Context) error {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LocationTimeout)
	sample, err := s.deps.Location.CurrentSample(lctx)
	cancel()
	if err != nil {
		return fmt.Errorf("acquire location sample: %w", err)
	}
	if sample == nil {
		// No fix within the deadline: cannot judge, default trust.
		s.logger.Debug().Msg("no location fix available this cycle")
		return nil
	}

	previous, err := s.deps.Store.LastSample()
	if err != nil {
		return fmt.Errorf("read retained sample: %w", err)
	}

	// Cross-provider fix is best effort: its absence means "cannot
	// compare", never a violation.
	var network *models.LocationSample
	if sample.Provider != models.ProviderNetwork {
		network, err = s.deps.Location.SampleFromProvider(ctx, models.ProviderNetwork)
		if err != nil {
			s.logger.Debug().Err(err).Msg("network provider fix unavailable")
			network = nil
		}
	}

	now := s.now()
	verdict := s.evaluator.Evaluate(authenticity.Context{
		Current:       sample,
		Previous:      previous,
		NetworkSample: network,
		Now:           now,
	})

	if !verdict.Trusted {
		s.deps.Machine.Raise(*verdict.Violation)
		// A sample judged inauthentic is not retained: it must not
		// become the movement baseline for the next comparison.
		return nil
	}

	s.checkGeofence(sample, now)
	s.checkSecondarySource(ctx, sample, now)

	if err := s.deps.Store.SaveSample(sample); err != nil {
		return fmt.Errorf("retain sample: %w", err)
	}
	s.deps.Machine.SetLastSample(sample)
	return nil
}

func (s *Scheduler) checkGeofence(sample *models.LocationSample, now time.Time) {
	if geo.WithinZone(sample.Coordinate, s.zone) {
		return
	}
	d := geo.Distance(sample.Coordinate, s.zone.Center)
	s.deps.Machine.Raise(models.NewViolationEvent(
		models.ViolationLocationOutsideGeofence,
		fmt.Sprintf("%.0f m from zone center (radius %.0f m)", d, s.zone.RadiusMeters),
		now,
	))
}

func (s *Scheduler) checkSecondarySource(ctx context.Context, sample *models.LocationSample, now time.Time) {
	if s.deps.Secondary == nil {
		return
	}

	coord, err := s.deps.Secondary.Lookup(ctx)
	if err != nil {
		// Cannot validate: default trust.
		s.logger.Debug().Err(err).Msg("secondary location source unavailable")
		return
	}

	if authenticity.ValidateAgainstSecondarySource(sample.Coordinate, coord, s.evaluator.Thresholds()) {
		return
	}

	d := geo.Distance(sample.Coordinate, *coord)
	s.deps.Machine.Raise(models.NewViolationEvent(
		models.ViolationNetworkMismatch,
		fmt.Sprintf("ip-derived position %.0f m from claimed position", d),
		now,
	))
}

// runIntegrityCheck performs one device-integrity iteration.
func (s *Scheduler) runIntegrityCheck(ctx context.Context) error {
	signals, err := s.deps.Integrity.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("collect integrity snapshot: %w", err)
	}

	if s.shouldDeepProbe() {
		rooted, err := s.deps.Integrity.DeepRootCheck(ctx)
		if err != nil {
			// The tamper probe failing is itself a tamper signal.
			s.logger.Warn().Err(err).Msg("deep root probe failed, assuming compromised")
			rooted = true
		}
		s.setDeepRooted(rooted)
	}
	if s.deepRootVerdict() {
		signals.Rooted = true
	}

	if s.deps.Network != nil {
		vpn, err := s.deps.Network.IsVPNActive(ctx)
		if err != nil {
			// Cannot judge: default trust.
			s.logger.Debug().Err(err).Msg("vpn status unavailable")
			vpn = false
		}
		signals.VPNActive = signals.VPNActive || vpn
	}

	score := integrity.Score(signals)
	s.setScore(score)
	metrics.SecurityScore.Set(float64(score))

	s.raiseIntegrityViolations(signals)
	return nil
}

// raiseIntegrityViolations maps raised signal flags to violations.
func (s *Scheduler) raiseIntegrityViolations(signals models.IntegritySignals) {
	now := s.now()

	if signals.Rooted {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationRootAccess, "root access indicators present", now))
	}
	if signals.InstrumentationFrameworkPresent {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationRootAccess, "runtime instrumentation framework present", now))
	}
	if signals.MockLocationAppPresent {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationMockLocation, "known mock location app installed", now))
	}
	if signals.DeveloperOptionsEnabled || signals.USBDebuggingEnabled {
		detail := "developer options enabled"
		if signals.USBDebuggingEnabled {
			detail = "usb debugging enabled"
		}
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationDebuggingEnabled, detail, now))
	}
	if signals.RunningOnEmulator {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationEmulatorDetected, "emulator build fingerprint", now))
	}
	if signals.UnknownSourcesEnabled {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationUnknownSources, "installation from unknown sources enabled", now))
	}
	if signals.VPNActive {
		s.deps.Machine.Raise(models.NewViolationEvent(
			models.ViolationVpnDetected, "active vpn connection", now))
	}
}

// shouldDeepProbe throttles the expensive root probe to every N-th cycle,
// starting with the first.
func (s *Scheduler) shouldDeepProbe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.integrityCycles%s.cfg.DeepRootEvery == 0
	s.integrityCycles++
	return run
}

func (s *Scheduler) setDeepRooted(rooted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deepRooted = rooted
}

func (s *Scheduler) deepRootVerdict() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deepRooted
}

func (s *Scheduler) setScore(score models.SecurityScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScore = score
}
