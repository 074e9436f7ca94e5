// Package gate caps the number of in-flight calls to a shared remote service.
package gate

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is the number of permits used when none is configured.
const DefaultCapacity = 15

// Gate is a counting admission gate. A single Gate is meant to be shared by
// every caller of the remote service so the cap holds process-wide.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64

	inFlight atomic.Int64
	peak     atomic.Int64
}

// New creates a Gate with the given capacity. Non-positive capacities fall
// back to DefaultCapacity.
func New(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Do waits for a permit, runs fn and releases the permit when fn returns or
// panics. If ctx is done before a permit is available, fn is not run and the
// context error is returned.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return eris.Wrap(err, "gate: acquire permit")
	}
	n := g.inFlight.Add(1)
	g.recordPeak(n)
	defer func() {
		g.inFlight.Add(-1)
		g.sem.Release(1)
	}()

	return fn(ctx)
}

func (g *Gate) recordPeak(n int64) {
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

// Capacity returns the configured number of permits.
func (g *Gate) Capacity() int {
	return int(g.capacity)
}

// InFlight returns the number of permits currently held.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// Peak returns the highest number of permits held at once since creation.
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}
