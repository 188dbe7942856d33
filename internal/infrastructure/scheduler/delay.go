package scheduler

import (
	"context"
	"sync"
	"time"

	"LinkedLens/internal/ports"
)

// DelayScheduler fires the job once after a startup delay, then every
// interval when interval is positive.
type DelayScheduler struct {
	delay    time.Duration
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*DelayScheduler)(nil)

// NewDelayScheduler builds a scheduler; interval <= 0 means run once.
func NewDelayScheduler(delay, interval time.Duration) *DelayScheduler {
	return &DelayScheduler{delay: delay, interval: interval}
}

// Start arms the timer. Calling Start on a running scheduler is a no-op.
func (d *DelayScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop, d.done = stop, done

	go func() {
		defer close(done)

		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case t := <-timer.C:
			job(t)
		case <-ctx.Done():
			return
		case <-stop:
			return
		}

		if d.interval <= 0 {
			return
		}
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the timer goroutine and waits for a running job to return,
// or for ctx to expire.
func (d *DelayScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
