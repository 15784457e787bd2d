package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"LottoSentinel/internal/model"
)

// Runner is the type-erased view of a Scheduler.
type Runner interface {
	StatusProvider
	Name() string
	Start(ctx context.Context)
	Stop()
	Wait()
	SetIntervals(min, max time.Duration) error
}

// Group starts and stops independent schedulers together.
type Group struct {
	runners []Runner
	started sync.WaitGroup
}

// NewGroup collects runners.
func NewGroup(runners ...Runner) *Group {
	return &Group{runners: runners}
}

// Providers returns the runners as status providers.
func (g *Group) Providers() []StatusProvider {
	out := make([]StatusProvider, len(g.runners))
	for i, r := range g.runners {
		out[i] = r
	}
	return out
}

// Statuses returns the status of every runner in order.
func (g *Group) Statuses() []model.SourceStatus {
	return Statuses(g.Providers())
}

// Start starts every runner in its own goroutine, so a slow first cycle of
// one source does not delay the others. It does not wait for them.
func (g *Group) Start(ctx context.Context) {
	for _, r := range g.runners {
		g.started.Add(1)
		go func() {
			defer g.started.Done()
			log.Printf("[INFO] starting %s scheduler", r.Name())
			r.Start(ctx)
		}()
	}
}

// SetIntervals applies new bounds to every runner.
func (g *Group) SetIntervals(min, max time.Duration) {
	for _, r := range g.runners {
		if err := r.SetIntervals(min, max); err != nil {
			log.Printf("[WARN] apply %s intervals: %v", r.Name(), err)
		}
	}
}

// Stop stops every runner and waits up to timeout for in-flight cycles.
// It reports whether everything finished in time.
func (g *Group) Stop(timeout time.Duration) bool {
	for _, r := range g.runners {
		r.Stop()
	}
	done := make(chan struct{})
	go func() {
		// A runner still in its first cycle arms its loop when Start
		// returns, so it is stopped again once every Start is done.
		g.started.Wait()
		for _, r := range g.runners {
			if r.Status().State == StateRunning {
				r.Stop()
			}
			r.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
