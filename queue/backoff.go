package queue

import (
	"math/rand"
	"time"
)

// Backoff computes retry delays: min(maxDelay, base*2^(attempt-1)), then a
// uniform jitter multiplier in [1-jitter, 1+jitter]. The cap is applied to
// the pre-jitter base, so a jittered delay may exceed maxDelay by up to the
// jitter ratio; maxAttempts truncates the schedule entirely (a terminal
// failure computes no further delay).
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64

	rand *rand.Rand
}

// NewBackoff builds a Backoff seeded for jitter. A seed of 0 uses the
// current time.
func NewBackoff(base, max time.Duration, jitter float64, seed int64) *Backoff {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Backoff{
		Base:   base,
		Max:    max,
		Jitter: jitter,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// BaseDelay returns the pre-jitter delay for the given attempt (1-based).
func (b *Backoff) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.Max {
			return b.Max
		}
	}
	if delay > b.Max {
		return b.Max
	}
	return delay
}

// Delay returns the jittered delay for the given attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	base := b.BaseDelay(attempt)
	if b.Jitter <= 0 {
		return base
	}
	multiplier := 1 - b.Jitter + 2*b.Jitter*b.rand.Float64()
	return time.Duration(float64(base) * multiplier)
}
