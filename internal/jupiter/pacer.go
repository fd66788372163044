package jupiter

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between quote requests. It is the single
// piece of process-wide mutable state in the probing core: one last-attempt
// timestamp shared across all pairs and directions, guarded by a mutex.
type Pacer struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous attempt, then records the new attempt. The mutex is held across
// the sleep so concurrent depth calculations queue behind each other instead
// of bursting at the oracle. Returns early with the context error on
// cancellation, without recording an attempt.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.last = time.Now()
	return nil
}

// LastAttempt returns the timestamp of the most recent request attempt.
func (p *Pacer) LastAttempt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
