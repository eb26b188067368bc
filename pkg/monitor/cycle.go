package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokaycavdar/go-trustguard/pkg/metrics"
)

// Cycle runs one evaluation function on a fixed period.
//
// A collaborator error during an iteration never raises a violation; the
// cycle logs it and sleeps for double the nominal period before retrying - a
// backoff capped at one doubling, not unbounded. Crashes (panics, returned
// fatal errors) are the supervisor's concern, not the cycle's.
//
// Cancellation is prompt at the next wake-up: the in-flight iteration is
// allowed to finish, then Serve returns.
type Cycle struct {
	name    string
	period  time.Duration
	iterate func(ctx context.Context) error
	logger  zerolog.Logger
}

// NewCycle creates a periodic cycle.
func NewCycle(name string, period time.Duration, iterate func(ctx context.Context) error, logger zerolog.Logger) *Cycle {
	return &Cycle{
		name:    name,
		period:  period,
		iterate: iterate,
		logger:  logger.With().Str("cycle", name).Logger(),
	}
}

// nextDelay maps an iteration outcome to the sleep before the next one.
func (c *Cycle) nextDelay(err error) time.Duration {
	if err != nil {
		return 2 * c.period
	}
	return c.period
}

// Serve implements suture.Service.
func (c *Cycle) Serve(ctx context.Context) error {
	for {
		err := c.iterate(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Error().Err(err).Msg("cycle iteration failed, backing off")
			metrics.CycleErrors.WithLabelValues(c.name).Inc()
		} else {
			metrics.CycleIterations.WithLabelValues(c.name).Inc()
		}

		timer := time.NewTimer(c.nextDelay(err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (c *Cycle) String() string {
	return c.name
}
