package ledger

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jtp184/eluent/internal/faketime"
)

// BaseBackoff, MaxBackoff, and JitterFactor are the claim-retry backoff
// parameters named in the ledger protocol: delay(attempt) =
// min(MaxBackoff, BaseBackoff * 2^(attempt-1)) scaled by a uniform
// jitter factor of ±JitterFactor.
const (
	BaseBackoff  = 100 * time.Millisecond
	MaxBackoff   = 5 * time.Second
	JitterFactor = 0.2
)

// MinRetries and MaxRetries bound the configurable retry ceiling.
const (
	MinRetries = 1
	MaxRetries = 100
)

// ClampRetries clamps n into [MinRetries, MaxRetries].
func ClampRetries(n int) int {
	if n < MinRetries {
		return MinRetries
	}
	if n > MaxRetries {
		return MaxRetries
	}
	return n
}

// clockAdapter satisfies backoff.Clock (a single Now() time.Time method)
// over our own Clock abstraction, so ExponentialBackOff's internal
// elapsed-time bookkeeping uses the same injected clock as the rest of
// the retry loop.
type clockAdapter struct{ clock faketime.Clock }

func (c clockAdapter) Now() time.Time { return c.clock.Now() }

// newExponentialBackoff builds a cenkalti/backoff ExponentialBackOff
// configured to reproduce delay(attempt) = min(MaxBackoff, BaseBackoff *
// 2^(attempt-1)) * (1 +/- JitterFactor): RandomizationFactor maps
// directly onto the spec's jitter factor, and MaxElapsedTime is disabled
// because the retry ceiling here is a retry *count*, not a wall-clock
// budget.
func newExponentialBackoff(clock faketime.Clock) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = BaseBackoff
	b.Multiplier = 2
	b.MaxInterval = MaxBackoff
	b.RandomizationFactor = JitterFactor
	b.MaxElapsedTime = 0
	b.Clock = clockAdapter{clock: clock}
	b.Reset()
	return b
}
