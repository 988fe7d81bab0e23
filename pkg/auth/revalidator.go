package auth

import (
	"context"
	"time"
)

// Ticker delivers periodic ticks. *time.Ticker is adapted by realTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	*time.Ticker
}

func (t realTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func newRealTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

// revalidation is one running periodic check, bound to a session generation.
type revalidation struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// wait blocks until the loop goroutine has exited. Safe on nil.
func (r *revalidation) wait() {
	if r == nil {
		return
	}
	<-r.done
}

// startRevalidationLocked replaces any running loop with one checking the
// session of generation gen. Callers hold c.mu.
func (c *Controller) startRevalidationLocked(ctx context.Context, gen uint64, token string) {
	c.stopRevalidationLocked()
	if !c.revalidate || c.interval <= 0 || c.closed {
		return
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &revalidation{cancel: cancel, done: make(chan struct{})}
	c.loop = r

	ticker := c.newTicker(c.interval)
	go func() {
		defer close(r.done)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				// A tick and a cancellation may be ready together.
				if loopCtx.Err() != nil {
					return
				}
				_ = c.validate(loopCtx, gen, token)
			}
		}
	}()
}

// stopRevalidationLocked cancels the running loop and returns it so the
// caller can wait for it after releasing c.mu. Callers hold c.mu.
func (c *Controller) stopRevalidationLocked() *revalidation {
	r := c.loop
	if r != nil {
		r.cancel()
		c.loop = nil
	}
	return r
}
