// Package source implements the host-fed collaborator boundary.
//
// The core never talks to platform APIs itself; the host pushes raw
// observations (location samples, environment reports) into an Inbox, and the
// monitoring cycles pull the freshest ones back out through the source
// contracts. A pull with nothing fresh to return is "no result", not an
// error, except for the integrity snapshot where an absent report means the
// collector is not feeding us and the cycle should back off.
package source

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/gokaycavdar/go-trustguard/pkg/integrity"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// ErrNoEnvironmentReport is returned when no environment report has been
// pushed yet.
var ErrNoEnvironmentReport = errors.New("source: no environment report received")

// Inbox buffers the latest host-pushed observations.
//
// It keeps one sample per provider plus the latest environment report; older
// pushes are overwritten. All methods are safe for concurrent use.
type Inbox struct {
	mu sync.Mutex

	samples  map[models.Provider]*models.LocationSample
	report   *integrity.EnvironmentReport
	publicIP net.IP
	released bool
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{
		samples: make(map[models.Provider]*models.LocationSample),
	}
}

// PushSample stores a location sample, replacing any previous sample from the
// same provider. Pushes after Release are ignored.
func (in *Inbox) PushSample(sample models.LocationSample) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.released {
		return
	}
	in.samples[sample.Provider] = &sample
}

// PushEnvironment stores the latest environment report.
func (in *Inbox) PushEnvironment(report integrity.EnvironmentReport) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.released {
		return
	}
	in.report = &report
}

// SetPublicIP records the device's current public address, typically taken
// from the transport the observations arrive over.
func (in *Inbox) SetPublicIP(ip net.IP) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.publicIP = ip
}

// PublicIP returns the last recorded public address, nil when unknown.
func (in *Inbox) PublicIP(_ context.Context) (net.IP, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.publicIP, nil
}

// CurrentSample returns the freshest sample across all providers, nil when
// nothing has been pushed.
func (in *Inbox) CurrentSample(_ context.Context) (*models.LocationSample, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	var freshest *models.LocationSample
	for _, s := range in.samples {
		if freshest == nil || s.Timestamp.After(freshest.Timestamp) {
			freshest = s
		}
	}
	if freshest == nil {
		return nil, nil
	}
	out := *freshest
	return &out, nil
}

// SampleFromProvider returns the latest sample from one provider, nil when
// that provider has not reported.
func (in *Inbox) SampleFromProvider(_ context.Context, provider models.Provider) (*models.LocationSample, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	s, ok := in.samples[provider]
	if !ok {
		return nil, nil
	}
	out := *s
	return &out, nil
}

// Release drops buffered samples and stops accepting new pushes.
func (in *Inbox) Release() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.released = true
	in.samples = make(map[models.Provider]*models.LocationSample)
}

// EnvironmentReport returns the latest pushed report.
func (in *Inbox) EnvironmentReport(_ context.Context) (integrity.EnvironmentReport, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.report == nil {
		return integrity.EnvironmentReport{}, ErrNoEnvironmentReport
	}
	return *in.report, nil
}

// IsVPNActive reads the VPN flag off the latest environment report.
func (in *Inbox) IsVPNActive(_ context.Context) (bool, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.report == nil {
		return false, ErrNoEnvironmentReport
	}
	return in.report.VPNActive, nil
}
