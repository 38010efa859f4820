package usecase

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RefreshPolicy is the post-swap balance refresh retry policy: up to
// MaxAttempts reads, with a delay of n x BaseDelay before attempt n.
// Indexers and RPC nodes lag the chain head right after a transaction
// lands, so the first read often misses.
type RefreshPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewBackOff builds the delay schedule for one refresh run.
func (p RefreshPolicy) NewBackOff() backoff.BackOff {
	return &linearBackOff{base: p.BaseDelay, max: p.MaxAttempts}
}

var _ backoff.BackOff = (*linearBackOff)(nil)

// linearBackOff yields base, 2*base, ... up to max steps, then Stop.
type linearBackOff struct {
	base time.Duration
	max  int
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	if b.n >= b.max {
		return backoff.Stop
	}
	b.n++
	return time.Duration(b.n) * b.base
}

func (b *linearBackOff) Reset() { b.n = 0 }
