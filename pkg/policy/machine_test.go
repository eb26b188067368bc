package policy

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
	"github.com/gokaycavdar/go-trustguard/pkg/storage"
)

// recordingSink captures ReportSink and StateSink calls.
type recordingSink struct {
	mu         sync.Mutex
	reported   []models.ViolationEvent
	alerted    []models.ViolationEvent
	appBlocked []bool
	monitoring []bool
}

func (r *recordingSink) Report(ev models.ViolationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, ev)
}

func (r *recordingSink) ImmediateAlert(ev models.ViolationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerted = append(r.alerted, ev)
}

func (r *recordingSink) SetAppBlocked(blocked bool, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appBlocked = append(r.appBlocked, blocked)
}

func (r *recordingSink) SetAttendanceBlocked(bool, string) {}

func (r *recordingSink) SetEnhancedMonitoring(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitoring = append(r.monitoring, enabled)
}

func newTestMachine(t *testing.T) (*StateMachine, *recordingSink, *storage.MemoryStore) {
	t.Helper()
	sink := &recordingSink{}
	store := storage.NewMemoryStore()
	m := NewStateMachine(DefaultViolationCeiling, store, sink, sink, zerolog.Nop())
	return m, sink, store
}

func event(t models.ViolationType) models.ViolationEvent {
	return models.NewViolationEvent(t, t.Description(), time.Now())
}

func TestRaiseCriticalBlocksApp(t *testing.T) {
	m, sink, _ := newTestMachine(t)

	m.Raise(event(models.ViolationMockLocation))

	assert.True(t, m.AppBlocked())
	assert.True(t, m.AttendanceBlocked(), "app block implies attendance block")

	reason, ok := m.BlockingReason()
	require.True(t, ok)
	assert.Equal(t, models.ViolationMockLocation.Description(), reason)

	require.Len(t, sink.alerted, 1, "critical violations trigger an immediate alert")
	require.Len(t, sink.reported, 1, "every violation is reported")
}

func TestRaiseCriticalBlockIsSticky(t *testing.T) {
	m, _, _ := newTestMachine(t)

	m.Raise(event(models.ViolationRootAccess))
	require.True(t, m.AppBlocked())

	// No number of subsequent non-resetting raises clears the block,
	// and the original reason is preserved.
	for i := 0; i < 10; i++ {
		m.Raise(event(models.ViolationUnknownSources))
	}
	assert.True(t, m.AppBlocked())
	reason, _ := m.BlockingReason()
	assert.Equal(t, models.ViolationRootAccess.Description(), reason)
}

func TestRaiseHighBlocksAttendanceOnly(t *testing.T) {
	m, sink, _ := newTestMachine(t)

	m.Raise(event(models.ViolationImpossibleMovement))

	assert.False(t, m.AppBlocked(), "high severity leaves the app usable")
	assert.True(t, m.AttendanceBlocked())
	assert.Empty(t, sink.alerted)

	reason, ok := m.BlockingReason()
	require.True(t, ok)
	assert.Equal(t, models.ViolationImpossibleMovement.Description(), reason)
}

func TestRaiseMediumEnablesEnhancedMonitoring(t *testing.T) {
	m, sink, _ := newTestMachine(t)

	m.Raise(event(models.ViolationEmulatorDetected))

	assert.False(t, m.AppBlocked())
	assert.False(t, m.AttendanceBlocked())
	assert.True(t, m.EnhancedMonitoring())
	require.Len(t, sink.monitoring, 1)
	assert.True(t, sink.monitoring[0])
}

func TestRaiseLowOnlyCounts(t *testing.T) {
	m, sink, store := newTestMachine(t)

	m.Raise(event(models.ViolationUnknownSources))

	assert.False(t, m.AppBlocked())
	assert.False(t, m.AttendanceBlocked())
	assert.False(t, m.EnhancedMonitoring())
	assert.Equal(t, 1, m.ViolationCount())

	log, err := store.Violations()
	require.NoError(t, err)
	assert.Len(t, log, 1)
	assert.Len(t, sink.reported, 1)
}

func TestRaiseCeilingBlocksRegardlessOfSeverity(t *testing.T) {
	m, _, _ := newTestMachine(t)

	// Five low raises stay under the ceiling.
	for i := 0; i < 5; i++ {
		m.Raise(event(models.ViolationUnknownSources))
	}
	assert.False(t, m.AppBlocked())

	// The sixth pushes the count past 5 and forces the app block.
	m.Raise(event(models.ViolationUnknownSources))
	assert.True(t, m.AppBlocked())

	reason, ok := m.BlockingReason()
	require.True(t, ok)
	assert.Equal(t, ExcessiveViolationsReason, reason)
}

func TestRaiseCustomCeiling(t *testing.T) {
	sink := &recordingSink{}
	m := NewStateMachine(2, storage.NewMemoryStore(), sink, sink, zerolog.Nop())

	m.Raise(event(models.ViolationUnknown))
	m.Raise(event(models.ViolationUnknown))
	assert.False(t, m.AppBlocked())

	m.Raise(event(models.ViolationUnknown))
	assert.True(t, m.AppBlocked())
}

func TestRaiseConcurrentCountsEveryRaise(t *testing.T) {
	m, _, store := newTestMachine(t)

	const raisers = 8
	const perRaiser = 25

	var wg sync.WaitGroup
	for i := 0; i < raisers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perRaiser; j++ {
				m.Raise(event(models.ViolationUnknownSources))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, raisers*perRaiser, m.ViolationCount())
	assert.True(t, m.AppBlocked(), "count far past ceiling must block")

	log, err := store.Violations()
	require.NoError(t, err)
	assert.Len(t, log, raisers*perRaiser)
}

func TestRaiseConcurrentBlockNeverLost(t *testing.T) {
	m, _, _ := newTestMachine(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Raise(event(models.ViolationRootAccess))
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			m.Raise(event(models.ViolationUnknownSources))
		}
	}()
	wg.Wait()

	assert.True(t, m.AppBlocked())
}

func TestResetClearsEverything(t *testing.T) {
	m, _, store := newTestMachine(t)

	m.Raise(event(models.ViolationMockLocation))
	m.SetLastSample(&models.LocationSample{Provider: models.ProviderGPS})
	require.True(t, m.AppBlocked())

	m.Reset()

	assert.False(t, m.AppBlocked())
	assert.False(t, m.AttendanceBlocked())
	assert.Equal(t, 0, m.ViolationCount())
	assert.Nil(t, m.LastSample())

	_, ok := m.BlockingReason()
	assert.False(t, ok)

	log, err := store.Violations()
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestSnapshotIsACopy(t *testing.T) {
	m, _, _ := newTestMachine(t)
	m.Raise(event(models.ViolationVpnDetected))

	snap := m.Snapshot()
	snap.AttendanceBlocked = false

	assert.True(t, m.AttendanceBlocked())
}

func TestLastSampleRoundTrip(t *testing.T) {
	m, _, _ := newTestMachine(t)
	assert.Nil(t, m.LastSample())

	s := &models.LocationSample{Provider: models.ProviderFused}
	m.SetLastSample(s)
	assert.Equal(t, s, m.LastSample())
}
