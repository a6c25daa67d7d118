package backend

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff is a stateless retry schedule, handy for tests and custom policies.
type Backoff interface {
	// Next returns how long to wait before the attempt after the given failed one.
	// attempt is 1 after the first failed request.
	Next(attempt int) time.Duration
}

type BackoffFunc func(attempt int) time.Duration

func (f BackoffFunc) Next(attempt int) time.Duration {
	return f(attempt)
}

// attemptBackOff drives a Backoff from the retry loop, counting attempts itself.
type attemptBackOff struct {
	schedule Backoff
	attempt  int
}

func (a *attemptBackOff) NextBackOff() time.Duration {
	a.attempt++
	return a.schedule.Next(a.attempt)
}

func (a *attemptBackOff) Reset() { a.attempt = 0 }

// exponential waits base, then 2*base, 4*base and so on, never more than max when max is set.
// There is no jitter and no overall deadline; the attempt ceiling is applied by the caller.
func exponential(base, max time.Duration) backoff.BackOff {
	if max <= 0 {
		max = time.Duration(math.MaxInt64)
	}
	return backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(base),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(max),
		backoff.WithMaxElapsedTime(0),
	)
}

// SleepFunc blocks for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sleepTimer lets a SleepFunc stand in for the retry loop's timer. A sleep that ends early
// never fires, leaving the loop to notice the cancelled context.
type sleepTimer struct {
	ctx   context.Context
	sleep SleepFunc
	c     chan time.Time
}

func newSleepTimer(ctx context.Context, sleep SleepFunc) *sleepTimer {
	return &sleepTimer{
		ctx:   ctx,
		sleep: sleep,
		c:     make(chan time.Time, 1),
	}
}

func (t *sleepTimer) Start(d time.Duration) {
	go func() {
		if err := t.sleep(t.ctx, d); err == nil {
			t.c <- time.Now()
		}
	}()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time { return t.c }
