package scheduler

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default bounds of the delay between two cycles of one source.
const (
	DefaultMinInterval = 10 * time.Minute
	DefaultMaxInterval = 15 * time.Minute
)

var _ cron.Schedule = (*JitterSchedule)(nil)

// JitterSchedule is a cron.Schedule that fires after a uniformly random
// whole number of milliseconds in [min, max], both inclusive.
type JitterSchedule struct {
	mu     sync.Mutex
	min    time.Duration
	max    time.Duration
	int64n func(n int64) int64
}

// NewJitterSchedule creates a schedule with the given bounds.
func NewJitterSchedule(min, max time.Duration) (*JitterSchedule, error) {
	j := &JitterSchedule{int64n: rand.Int64N}
	if err := j.SetBounds(min, max); err != nil {
		return nil, err
	}
	return j, nil
}

// SetBounds replaces the delay bounds. The change applies to the next call
// of Next.
func (j *JitterSchedule) SetBounds(min, max time.Duration) error {
	if min <= 0 || max < min {
		return fmt.Errorf("invalid interval bounds [%v, %v]", min, max)
	}
	j.mu.Lock()
	j.min, j.max = min, max
	j.mu.Unlock()
	return nil
}

// Bounds returns the current delay bounds.
func (j *JitterSchedule) Bounds() (time.Duration, time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.min, j.max
}

// Delay draws the next delay.
func (j *JitterSchedule) Delay() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	lo := j.min.Milliseconds()
	span := j.max.Milliseconds() - lo + 1
	return time.Duration(lo+j.int64n(span)) * time.Millisecond
}

// Next implements cron.Schedule.
func (j *JitterSchedule) Next(t time.Time) time.Time {
	return t.Add(j.Delay())
}
