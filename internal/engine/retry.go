package engine

import (
	"math/rand"
	"time"

	"github.com/obsidianstack/relayd/internal/config"
	"github.com/obsidianstack/relayd/internal/transport"
)

// RetryPolicy maps (attempt count, failure class) to the backoff before the
// next attempt, or to giving up. It holds no hidden state: the same inputs
// always produce the same decision, with jitter drawn from an injectable
// rand source so tests stay deterministic.
type RetryPolicy struct {
	initial     time.Duration
	max         time.Duration
	multiplier  float64
	maxAttempts int
	jitter      float64
	randFn      func() float64
}

// NewRetryPolicy builds a policy from the retry configuration.
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		initial:     cfg.InitialBackoff,
		max:         cfg.MaxBackoff,
		multiplier:  cfg.Multiplier,
		maxAttempts: cfg.MaxAttempts,
		jitter:      cfg.Jitter,
		randFn:      rand.Float64, //nolint:gosec // not crypto
	}
}

// NextDelay returns the backoff to apply after the given attempt count
// (counting the attempt that just failed) and failure class. ok is false
// when the bundle should be abandoned instead of retried: always for
// permanent failures, and for retryable ones once attemptCount exceeds the
// configured maximum.
func (p RetryPolicy) NextDelay(attemptCount int, class transport.Class) (delay time.Duration, ok bool) {
	if class != transport.Retryable {
		return 0, false
	}
	if attemptCount > p.maxAttempts {
		return 0, false
	}

	// Truncated exponential: initial × multiplier^(attemptCount-1), capped.
	d := float64(p.initial)
	for i := 1; i < attemptCount && d < float64(p.max); i++ {
		d *= p.multiplier
	}
	if d > float64(p.max) {
		d = float64(p.max)
	}

	delay = time.Duration(d)
	if p.jitter > 0 {
		delay += time.Duration(d * p.jitter * (p.randFn()*2 - 1))
		if delay < 0 {
			delay = 0
		}
	}
	return delay, true
}

// MaxAttempts returns the attempt bound, for logging and the admin surface.
func (p RetryPolicy) MaxAttempts() int { return p.maxAttempts }
