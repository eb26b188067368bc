package authenticity

import (
	"fmt"
	"time"

	"github.com/gokaycavdar/go-trustguard/pkg/geo"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// Context carries the explicit inputs for one evaluation.
//
// The evaluator never reads an ambient clock or fetches collaborator data
// itself: the scheduler gathers everything, including "now", and hands it
// over. This keeps every evaluation deterministic and replayable.
type Context struct {
	// Current is the sample under judgment. Required.
	Current *models.LocationSample

	// Previous is the last retained sample, nil for a session's first
	// evaluation. Movement checks are skipped when nil.
	Previous *models.LocationSample

	// NetworkSample is an optional second fix from the network provider,
	// used for cross-provider consistency. Nil when unavailable.
	NetworkSample *models.LocationSample

	// Now is the caller-supplied evaluation time.
	Now time.Time
}

// Verdict is the outcome of one evaluation.
type Verdict struct {
	// Trusted is true when every check passed.
	Trusted bool

	// Violation describes the first failing check. Nil when Trusted.
	Violation *models.ViolationEvent
}

// trusted is the all-checks-passed verdict.
func trusted() Verdict {
	return Verdict{Trusted: true}
}

// Evaluator runs the ordered authenticity checks over location samples.
//
// Checks run in a fixed order and the first failure determines the verdict:
//
//  1. the platform's explicit mock flag - authoritative, short-circuits
//     every heuristic
//  2. cross-provider consistency
//  3. impossible movement against the previous retained sample
//  4. per-sample signal suspicion
//
// Each check's "cannot judge" case (missing previous sample, missing
// network fix, too little elapsed time) passes rather than fails; the
// evaluator only ever convicts on positive evidence.
type Evaluator struct {
	thresholds Thresholds
	checks     []check
}

// check is one ordered stage of the pipeline.
type check struct {
	name string
	run  func(Context) *models.ViolationEvent
}

// NewEvaluator creates an evaluator with the given calibration.
func NewEvaluator(t Thresholds) *Evaluator {
	e := &Evaluator{thresholds: t}
	e.checks = []check{
		{name: "mock-flag", run: e.checkMockFlag},
		{name: "provider-consistency", run: e.checkProviderConsistency},
		{name: "impossible-movement", run: e.checkImpossibleMovement},
		{name: "signal-suspicion", run: e.checkSignalSuspicion},
	}
	return e
}

// Thresholds returns the evaluator's calibration.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs the checks in order and returns the first failure, or a
// trusted verdict when every check passes.
func (e *Evaluator) Evaluate(ctx Context) Verdict {
	if ctx.Current == nil {
		// Nothing to judge; absence of a sample is a collaborator
		// availability matter, not a violation.
		return trusted()
	}

	for _, c := range e.checks {
		if v := c.run(ctx); v != nil {
			return Verdict{Trusted: false, Violation: v}
		}
	}
	return trusted()
}

func (e *Evaluator) checkMockFlag(ctx Context) *models.ViolationEvent {
	if !ctx.Current.IsFlaggedMock {
		return nil
	}
	ev := models.NewViolationEvent(
		models.ViolationMockLocation,
		fmt.Sprintf("platform flagged %s sample as injected", ctx.Current.Provider),
		ctx.Now,
	)
	return &ev
}

func (e *Evaluator) checkProviderConsistency(ctx Context) *models.ViolationEvent {
	if AreProvidersConsistent(ctx.Current, ctx.NetworkSample, e.thresholds) {
		return nil
	}
	d := geo.Distance(ctx.Current.Coordinate, ctx.NetworkSample.Coordinate)
	ev := models.NewViolationEvent(
		models.ViolationMockLocation,
		fmt.Sprintf("gps and network fixes disagree by %.0f m (limit %.0f m)",
			d, e.thresholds.MaxProviderDistanceMeters),
		ctx.Now,
	)
	return &ev
}

func (e *Evaluator) checkImpossibleMovement(ctx Context) *models.ViolationEvent {
	if !IsMovementImpossible(ctx.Previous, ctx.Current, e.thresholds) {
		return nil
	}
	distance := geo.Distance(ctx.Previous.Coordinate, ctx.Current.Coordinate)
	elapsed := ctx.Current.Timestamp.Sub(ctx.Previous.Timestamp)
	speed := distance / elapsed.Seconds() * 3.6
	ev := models.NewViolationEvent(
		models.ViolationImpossibleMovement,
		fmt.Sprintf("moved %.0f m in %.0f s (%.0f km/h, limit %.0f km/h)",
			distance, elapsed.Seconds(), speed, e.thresholds.MaxSpeedKmH),
		ctx.Now,
	)
	return &ev
}

func (e *Evaluator) checkSignalSuspicion(ctx Context) *models.ViolationEvent {
	if !IsSignalSuspicious(ctx.Current, e.thresholds) {
		return nil
	}
	ev := models.NewViolationEvent(
		models.ViolationGpsSpoofing,
		fmt.Sprintf("suspicious signal characteristics (accuracy %.1f m, provider %s)",
			ctx.Current.AccuracyMeters, ctx.Current.Provider),
		ctx.Now,
	)
	return &ev
}
