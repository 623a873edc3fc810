package scheduler

import (
	"context"
	"sync"
	"time"

	"StoryPress/internal/ports"
)

// IntervalDriver fires the reconciliation job on a fixed interval.
type IntervalDriver struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.TickDriver = (*IntervalDriver)(nil)

// NewIntervalDriver builds a driver ticking at the given interval.
func NewIntervalDriver(interval time.Duration) *IntervalDriver {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IntervalDriver{interval: interval}
}

// Start begins ticking; the job runs once immediately, then per interval.
func (d *IntervalDriver) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	d.stop = stop
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		job(time.Now())
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

// Stop halts the ticker goroutine.
func (d *IntervalDriver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}
