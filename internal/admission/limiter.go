package admission

import (
	"context"
	"time"
)

// Limiter bounds how many write operations may run at once. It is a permit
// pool: Acquire blocks until a permit frees, the configured timeout elapses,
// or ctx is done. The returned release must be called exactly once per
// successful acquire; a leaked permit permanently shrinks capacity.
type Limiter struct {
	sem     chan struct{}
	timeout time.Duration
}

// New creates a limiter with the given capacity. timeout <= 0 means Acquire
// waits until ctx is done.
func New(capacity int, timeout time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{sem: make(chan struct{}, capacity), timeout: timeout}
}

// Acquire returns (release, ok). ok=false means no permit was taken and the
// caller should treat the operation as "try again later".
func (l *Limiter) Acquire(ctx context.Context) (release func(), ok bool) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

// InUse reports how many permits are currently held.
func (l *Limiter) InUse() int { return len(l.sem) }

// Capacity reports the permit pool size.
func (l *Limiter) Capacity() int { return cap(l.sem) }
