package stream

import (
	"math/rand"
	"time"
)

// Backoff defines reconnect delay growth between connection attempts.
type Backoff struct {
	// Min is the delay before the first retry.
	Min time.Duration
	// Max caps the delay.
	Max time.Duration
	// Factor multiplies the delay each attempt.
	Factor float64
	// Jitter randomizes the delay by this fraction (0-1).
	Jitter float64
}

// DefaultBackoff provides conservative reconnect defaults.
func DefaultBackoff() Backoff {
	return Backoff{
		Min:    250 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Next returns the delay for the given attempt (1-based).
func (b Backoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	minDelay := b.Min
	if minDelay <= 0 {
		minDelay = 100 * time.Millisecond
	}

	maxDelay := b.Max
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	factor := b.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := minDelay
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(wait) * factor)
		if next > maxDelay {
			wait = maxDelay
			break
		}

		wait = next
	}

	if b.Jitter <= 0 {
		return wait
	}

	jitter := b.Jitter
	if jitter > 1 {
		jitter = 1
	}

	delta := float64(wait) * jitter

	wait = wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
	if wait > maxDelay {
		wait = maxDelay
	}

	return wait
}
