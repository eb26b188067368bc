package storage

import (
	"errors"
	"sync"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// MemoryStore is a thread-safe in-memory HistoryStore.
//
// Session-scoped by construction: history lives exactly as long as the
// process, matching the monitoring session lifecycle.
type MemoryStore struct {
	mu         sync.RWMutex
	lastSample *models.LocationSample
	violations []models.ViolationEvent
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LastSample returns the retained sample, or nil, nil before the first save.
func (m *MemoryStore) LastSample() (*models.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastSample == nil {
		return nil, nil
	}
	// Copy so callers cannot mutate the retained baseline.
	s := *m.lastSample
	return &s, nil
}

// SaveSample retains the sample as the new baseline.
func (m *MemoryStore) SaveSample(sample *models.LocationSample) error {
	if sample == nil {
		return errors.New("storage: sample must not be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := *sample
	m.lastSample = &s
	return nil
}

// AppendViolation appends to the ordered log.
func (m *MemoryStore) AppendViolation(event models.ViolationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.violations = append(m.violations, event)
	return nil
}

// Violations returns a copy of the log in raise order.
func (m *MemoryStore) Violations() ([]models.ViolationEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ViolationEvent, len(m.violations))
	copy(out, m.violations)
	return out, nil
}

// Clear drops all retained history.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSample = nil
	m.violations = nil
	return nil
}
