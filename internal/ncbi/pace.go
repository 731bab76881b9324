package ncbi

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used for pacing and failure delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	return sleepWithContext(ctx, d)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// IntervalPacer enforces a floor on the interval between consecutive
// requests of one paginated call. Call Mark when a request is issued and
// Pause before the next one.
type IntervalPacer struct {
	Interval time.Duration
	Clock    Clock

	mu   sync.Mutex
	last time.Time
}

// NewIntervalPacer returns a pacer for the given interval. A nil clock
// means the wall clock.
func NewIntervalPacer(interval time.Duration, clock Clock) *IntervalPacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &IntervalPacer{Interval: interval, Clock: clock}
}

// Mark records the current time as the start of a request.
func (p *IntervalPacer) Mark() {
	p.mu.Lock()
	p.last = p.Clock.Now()
	p.mu.Unlock()
}

// Pause sleeps for whatever remains of the interval since the last Mark.
// It returns how long it slept.
func (p *IntervalPacer) Pause(ctx context.Context) (time.Duration, error) {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last.IsZero() {
		return 0, nil
	}

	elapsed := p.Clock.Now().Sub(last)
	if elapsed >= p.Interval {
		return 0, nil
	}
	wait := p.Interval - elapsed
	if err := p.Clock.Sleep(ctx, wait); err != nil {
		return 0, err
	}
	return wait, nil
}
