package monitor

import (
	"context"

	"github.com/gokaycavdar/go-trustguard/pkg/integrity"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// LocationSource is the platform location collaborator.
//
// Acquisition is a bounded-latency external call: the scheduler passes a
// deadline context, and a source that cannot produce a fix in time returns
// nil, nil ("no result") rather than hanging.
type LocationSource interface {
	// CurrentSample returns the freshest available fix, nil when none
	// could be obtained within the context deadline.
	CurrentSample(ctx context.Context) (*models.LocationSample, error)

	// SampleFromProvider returns a fix from one specific provider, nil
	// when that provider has nothing. Used for cross-provider checks.
	SampleFromProvider(ctx context.Context, provider models.Provider) (*models.LocationSample, error)

	// Release drops any outstanding location subscriptions. Called once
	// when monitoring stops.
	Release()
}

// IntegritySource is the platform integrity collaborator.
type IntegritySource interface {
	// Snapshot collects the cheap integrity signals.
	Snapshot(ctx context.Context) (models.IntegritySignals, error)

	// DeepRootCheck runs the expensive full root probe. The scheduler
	// throttles it to a coarse multiple of the integrity period; its
	// failure is treated as "rooted".
	DeepRootCheck(ctx context.Context) (bool, error)
}

// NetworkSource reports network-level signals.
type NetworkSource interface {
	IsVPNActive(ctx context.Context) (bool, error)
}

// SecondaryGeoSource supplies a coarse independent position (typically
// IP-derived). nil, nil means "no position available" and defaults to trust.
type SecondaryGeoSource interface {
	Lookup(ctx context.Context) (*models.Coordinate, error)
}

// ProbeIntegritySource adapts an integrity.Probe over a report supplier to
// the IntegritySource contract: the host gathers raw environment reports,
// the probe interprets them.
type ProbeIntegritySource struct {
	probe   *integrity.Probe
	reports ReportSupplier

	// deepRoot optionally runs the expensive probe; when nil the
	// snapshot's own root verdict stands.
	deepRoot func(ctx context.Context) (bool, error)
}

// ReportSupplier produces the current raw environment report.
type ReportSupplier interface {
	EnvironmentReport(ctx context.Context) (integrity.EnvironmentReport, error)
}

// NewProbeIntegritySource wires a probe to a report supplier.
func NewProbeIntegritySource(probe *integrity.Probe, reports ReportSupplier, deepRoot func(ctx context.Context) (bool, error)) *ProbeIntegritySource {
	return &ProbeIntegritySource{probe: probe, reports: reports, deepRoot: deepRoot}
}

// Snapshot implements IntegritySource.
func (p *ProbeIntegritySource) Snapshot(ctx context.Context) (models.IntegritySignals, error) {
	report, err := p.reports.EnvironmentReport(ctx)
	if err != nil {
		return models.IntegritySignals{}, err
	}
	return p.probe.Evaluate(report), nil
}

// DeepRootCheck implements IntegritySource.
func (p *ProbeIntegritySource) DeepRootCheck(ctx context.Context) (bool, error) {
	if p.deepRoot == nil {
		report, err := p.reports.EnvironmentReport(ctx)
		if err != nil {
			return true, err
		}
		return p.probe.Evaluate(report).Rooted, nil
	}
	return p.deepRoot(ctx)
}
