// Package report delivers violation events to the external reporting
// collaborator through a local pending queue.
//
// Submission failures are transient I/O, not data loss: a payload that could
// not be delivered goes back on the queue and is retried on the next flush.
// Nothing is ever dropped silently.
package report

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/gokaycavdar/go-trustguard/pkg/metrics"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// Submitter ships a serialized report to the backend. Implemented by the
// network collaborator (HTTPSubmitter here); the queue owns retries, the
// submitter owns transport.
type Submitter interface {
	Submit(ctx context.Context, payload []byte) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, payload []byte) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// Payload is the wire shape of one queued report.
type Payload struct {
	Event     models.ViolationEvent `json:"event"`
	DeviceID  string                `json:"device_id,omitempty"`
	SessionID string                `json:"session_id,omitempty"`

	// Alert marks payloads raised through the immediate-alert path.
	Alert bool `json:"alert,omitempty"`

	QueuedAt time.Time `json:"queued_at"`
}

// Queue is a thread-safe pending queue drained by a supervised loop.
//
// It implements policy.ReportSink: Report and ImmediateAlert never block the
// raising cycle. Immediate alerts jump the queue and trigger an early flush
// instead of waiting for the next tick.
type Queue struct {
	mu      sync.Mutex
	pending []Payload

	submitter     Submitter
	deviceID      string
	sessionID     string
	flushInterval time.Duration
	submitTimeout time.Duration
	logger        zerolog.Logger

	// kick wakes the drain loop ahead of the ticker.
	kick chan struct{}
}

// NewQueue creates a queue draining to the given submitter.
func NewQueue(submitter Submitter, deviceID, sessionID string, flushInterval time.Duration, logger zerolog.Logger) *Queue {
	if flushInterval <= 0 {
		flushInterval = 30 * time.Second
	}
	return &Queue{
		submitter:     submitter,
		deviceID:      deviceID,
		sessionID:     sessionID,
		flushInterval: flushInterval,
		submitTimeout: 10 * time.Second,
		logger:        logger.With().Str("component", "report").Logger(),
		kick:          make(chan struct{}, 1),
	}
}

// Report enqueues an event for ordinary delivery.
func (q *Queue) Report(event models.ViolationEvent) {
	q.enqueue(Payload{
		Event:     event,
		DeviceID:  q.deviceID,
		SessionID: q.sessionID,
		QueuedAt:  time.Now(),
	}, false)
}

// ImmediateAlert enqueues an event at the head of the queue and wakes the
// drain loop right away.
func (q *Queue) ImmediateAlert(event models.ViolationEvent) {
	q.enqueue(Payload{
		Event:     event,
		DeviceID:  q.deviceID,
		SessionID: q.sessionID,
		Alert:     true,
		QueuedAt:  time.Now(),
	}, true)

	select {
	case q.kick <- struct{}{}:
	default:
	}
}

func (q *Queue) enqueue(p Payload, front bool) {
	q.mu.Lock()
	if front {
		q.pending = append([]Payload{p}, q.pending...)
	} else {
		q.pending = append(q.pending, p)
	}
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.ReportQueueDepth.Set(float64(depth))
}

// Pending returns the number of payloads awaiting submission.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Serve implements suture.Service: it drains the queue on every flush
// interval (or earlier when kicked) until the context is canceled.
func (q *Queue) Serve(ctx context.Context) error {
	ticker := time.NewTicker(q.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// One final best-effort flush so a clean shutdown does
			// not strand delivered-able reports.
			q.Flush(context.Background())
			return ctx.Err()
		case <-ticker.C:
			q.Flush(ctx)
		case <-q.kick:
			q.Flush(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (q *Queue) String() string {
	return "report-queue"
}

// Flush attempts to submit every pending payload in order.
//
// On the first submission failure the unsent remainder (failed payload
// included) is put back at the head of the queue for the next flush.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	for i, p := range batch {
		if err := q.submit(ctx, p); err != nil {
			q.logger.Warn().Err(err).
				Str("violation_id", p.Event.ID).
				Int("requeued", len(batch)-i).
				Msg("report submission failed, re-queueing")
			metrics.ReportRetries.Inc()

			q.mu.Lock()
			q.pending = append(batch[i:], q.pending...)
			depth := len(q.pending)
			q.mu.Unlock()

			metrics.ReportQueueDepth.Set(float64(depth))
			return
		}
	}

	metrics.ReportQueueDepth.Set(float64(q.Pending()))
}

func (q *Queue) submit(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		// A payload that cannot serialize can never succeed; log it
		// rather than wedging the queue forever.
		q.logger.Error().Err(err).Str("violation_id", p.Event.ID).Msg("dropping unserializable report")
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, q.submitTimeout)
	defer cancel()

	return q.submitter.Submit(sctx, body)
}
