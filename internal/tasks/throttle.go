package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// throttleWindow is the trailing interval the RPM limit applies to.
const throttleWindow = 60 * time.Second

// throttleMargin is added to computed waits so the oldest call has aged
// out by the time the next request leaves.
const throttleMargin = 100 * time.Millisecond

// Throttle bounds outbound categorization calls to at most rpm admissions
// within any trailing 60-second window.
//
// Unlike a token bucket, the window slides: before each admission the
// recorded timestamps are pruned to the window and, when the limit is
// reached, the caller blocks until the oldest recorded call falls out of
// it. State is process-local and resets every run.
type Throttle struct {
	rpm        int
	timestamps []time.Time
	logger     *log.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle creates a Throttle admitting at most rpm calls per minute.
func NewThrottle(rpm int, logger *log.Logger) *Throttle {
	return &Throttle{
		rpm:    rpm,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait blocks until the next call may proceed, then records its timestamp.
// Returns early with the context's error if ctx is cancelled while waiting.
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.now()

	kept := t.timestamps[:0]
	for _, ts := range t.timestamps {
		if now.Sub(ts) < throttleWindow {
			kept = append(kept, ts)
		}
	}
	t.timestamps = kept

	if len(t.timestamps) >= t.rpm {
		oldest := t.timestamps[0]
		wait := throttleWindow - now.Sub(oldest) + throttleMargin
		if wait < 0 {
			wait = 0
		}

		if wait > 0 {
			if t.logger != nil {
				t.logger.Info("throttling categorization requests", "rpm_limit", t.rpm, "wait", wait.Round(10*time.Millisecond))
			}
			if err := t.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	t.timestamps = append(t.timestamps, t.now())
	return nil
}

// sleepContext sleeps for d unless ctx is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// QuotaBreaker is a one-way latch tripped by the first quota-exhaustion
// failure in a run. While tripped, categorization is skipped entirely for
// the rest of the session; a new process starts fresh.
type QuotaBreaker struct {
	tripped bool
	logger  *log.Logger
}

// NewQuotaBreaker creates an untripped breaker.
func NewQuotaBreaker(logger *log.Logger) *QuotaBreaker {
	return &QuotaBreaker{logger: logger}
}

// Trip latches the breaker. Logs a warning on the first trip only.
func (b *QuotaBreaker) Trip() {
	if !b.tripped && b.logger != nil {
		b.logger.Warn("categorization quota exhausted, suppressing further calls for this session")
	}
	b.tripped = true
}

// Tripped reports whether the breaker has latched.
func (b *QuotaBreaker) Tripped() bool {
	return b.tripped
}
