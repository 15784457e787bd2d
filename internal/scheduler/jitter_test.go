package scheduler

import (
	"testing"
	"time"
)

func TestJitterSchedule_BoundsInclusive(t *testing.T) {
	j, err := NewJitterSchedule(10*time.Minute, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	j.int64n = func(int64) int64 { return 0 }
	if got := j.Delay(); got != 10*time.Minute {
		t.Errorf("lowest draw: got %v, want 10m", got)
	}
	j.int64n = func(n int64) int64 { return n - 1 }
	if got := j.Delay(); got != 15*time.Minute {
		t.Errorf("highest draw: got %v, want 15m", got)
	}
}

func TestJitterSchedule_RandomWithinBounds(t *testing.T) {
	j, err := NewJitterSchedule(DefaultMinInterval, DefaultMaxInterval)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	for i := 0; i < 1000; i++ {
		next := j.Next(now)
		d := next.Sub(now)
		if d < DefaultMinInterval || d > DefaultMaxInterval {
			t.Fatalf("delay %v outside [%v, %v]", d, DefaultMinInterval, DefaultMaxInterval)
		}
		if d%time.Millisecond != 0 {
			t.Fatalf("delay %v is not a whole number of milliseconds", d)
		}
	}
}

func TestJitterSchedule_EqualBounds(t *testing.T) {
	j, err := NewJitterSchedule(time.Second, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got := j.Delay(); got != time.Second {
		t.Errorf("got %v, want 1s", got)
	}
}

func TestJitterSchedule_InvalidBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max time.Duration
	}{
		{"zero min", 0, time.Minute},
		{"negative", -time.Second, time.Minute},
		{"inverted", time.Minute, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJitterSchedule(tt.min, tt.max); err == nil {
				t.Error("expected error")
			}
		})
	}
}
