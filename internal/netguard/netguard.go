// Package netguard throttles outbound network probes against the ledger
// remote. A tight claim-retry loop can fire fetch/push/ls-remote calls far
// faster than a human operator would; Limiter caps how often this process
// issues them, independent of and in addition to ClaimFlow's jittered
// backoff between attempts.
package netguard

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultEventsPerSecond and DefaultBurst set the default steady-state
// ceiling: one network probe per
// 200ms, bursting up to 3, which comfortably allows a pull+push pair per
// claim attempt without throttling a single well-behaved caller while
// still capping a runaway retry loop.
const (
	DefaultEventsPerSecond = 5.0
	DefaultBurst           = 3
)

// Limiter wraps golang.org/x/time/rate.Limiter for network-bound
// GitGateway operations.
type Limiter struct {
	rl *rate.Limiter
}

// New creates a Limiter allowing eventsPerSecond steady-state with the
// given burst. A non-positive eventsPerSecond disables throttling.
func New(eventsPerSecond float64, burst int) *Limiter {
	if eventsPerSecond <= 0 {
		return &Limiter{rl: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

// Default returns a Limiter configured with DefaultEventsPerSecond and
// DefaultBurst.
func Default() *Limiter {
	return New(DefaultEventsPerSecond, DefaultBurst)
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}
