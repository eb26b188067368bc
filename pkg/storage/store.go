package storage

import "github.com/gokaycavdar/go-trustguard/pkg/models"

// HistoryStore defines retention of a monitoring session's history: the last
// trusted location sample and the ordered violation log.
//
// Implementations can use any backend; the in-memory store below matches the
// single-device, single-session lifecycle of the core. Both monitoring
// cycles access the store concurrently, so implementations must be safe for
// concurrent use.
type HistoryStore interface {
	// LastSample retrieves the most recently retained sample.
	// Returns nil, nil when no sample has been retained yet - a
	// session's first evaluation, not an error.
	LastSample() (*models.LocationSample, error)

	// SaveSample retains a sample as the new comparison baseline.
	SaveSample(sample *models.LocationSample) error

	// AppendViolation appends an event to the ordered violation log.
	AppendViolation(event models.ViolationEvent) error

	// Violations returns the violation log in raise order.
	Violations() ([]models.ViolationEvent, error)

	// Clear drops all retained history. Used by the explicit session
	// reset; nothing in the core calls it implicitly.
	Clear() error
}
