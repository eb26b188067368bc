package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// fakeSubmitter records submissions and can be told to fail.
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []Payload
	failing  bool
}

func (f *fakeSubmitter) Submit(_ context.Context, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return errors.New("backend unreachable")
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakeSubmitter) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *fakeSubmitter) submitted() []Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Payload, len(f.payloads))
	copy(out, f.payloads)
	return out
}

func newTestQueue(sub Submitter) *Queue {
	return NewQueue(sub, "device-1", "session-1", time.Hour, zerolog.Nop())
}

func ev(t models.ViolationType) models.ViolationEvent {
	return models.NewViolationEvent(t, t.Description(), time.Now())
}

func TestQueueFlushDelivers(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub)

	q.Report(ev(models.ViolationVpnDetected))
	q.Report(ev(models.ViolationUnknownSources))
	require.Equal(t, 2, q.Pending())

	q.Flush(context.Background())

	assert.Zero(t, q.Pending())
	got := sub.submitted()
	require.Len(t, got, 2)
	assert.Equal(t, models.ViolationVpnDetected, got[0].Event.Type)
	assert.Equal(t, "device-1", got[0].DeviceID)
	assert.Equal(t, "session-1", got[0].SessionID)
}

func TestQueueFailedSubmissionIsRequeued(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub)

	q.Report(ev(models.ViolationGpsSpoofing))

	sub.setFailing(true)
	q.Flush(context.Background())

	// Nothing delivered, nothing dropped.
	assert.Empty(t, sub.submitted())
	assert.Equal(t, 1, q.Pending())

	sub.setFailing(false)
	q.Flush(context.Background())

	assert.Zero(t, q.Pending())
	require.Len(t, sub.submitted(), 1)
}

func TestQueuePartialFailureKeepsOrder(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub)

	first := ev(models.ViolationVpnDetected)
	second := ev(models.ViolationImpossibleMovement)
	q.Report(first)
	q.Report(second)

	sub.setFailing(true)
	q.Flush(context.Background())
	require.Equal(t, 2, q.Pending())

	sub.setFailing(false)
	q.Flush(context.Background())

	got := sub.submitted()
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].Event.ID)
	assert.Equal(t, second.ID, got[1].Event.ID)
}

func TestImmediateAlertJumpsQueue(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub)

	q.Report(ev(models.ViolationUnknownSources))
	alert := ev(models.ViolationRootAccess)
	q.ImmediateAlert(alert)

	q.Flush(context.Background())

	got := sub.submitted()
	require.Len(t, got, 2)
	assert.Equal(t, alert.ID, got[0].Event.ID)
	assert.True(t, got[0].Alert)
}

func TestServeDrainsOnKick(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub) // hour-long ticker: only the kick can drain

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Serve(ctx) }()

	q.ImmediateAlert(ev(models.ViolationMockLocation))

	require.Eventually(t, func() bool {
		return len(sub.submitted()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop on cancellation")
	}
}

func TestServeFinalFlushOnShutdown(t *testing.T) {
	sub := &fakeSubmitter{}
	q := newTestQueue(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Serve(ctx) }()

	q.Report(ev(models.ViolationVpnDetected))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop on cancellation")
	}
	assert.Len(t, sub.submitted(), 1)
}
