package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"LottoSentinel/internal/collector"
	"LottoSentinel/internal/diff"
	"LottoSentinel/internal/model"
	"LottoSentinel/internal/notifier"
	"LottoSentinel/internal/recorder"
	"LottoSentinel/internal/snapshot"

	"github.com/google/uuid"
)

// Scheduler states.
const (
	StateStopped = "stopped"
	StateRunning = "running"
)

// Options carries the optional collaborators of a Scheduler.
// Zero values fall back to the defaults.
type Options struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	Retry       collector.RetryPolicy
	Recorder    recorder.Recorder
	Notifier    notifier.Notifier
	Logger      *log.Logger
}

// Scheduler polls one source on a jittered interval and keeps its snapshot
// current. Each re-arm happens only after the previous cycle finished, so
// at most one cycle per source is ever in flight.
type Scheduler[T model.Record] struct {
	name     string
	fetcher  collector.Fetcher[T]
	store    *snapshot.Store[T]
	policy   model.Policy[T]
	schedule *JitterSchedule
	retry    collector.RetryPolicy
	rec      recorder.Recorder
	notify   notifier.Notifier
	logger   *log.Logger

	cycleMu sync.Mutex // serializes cycles

	mu      sync.Mutex
	state   string
	current []T
	cancel  context.CancelFunc
	done    chan struct{}
	status  model.SourceStatus
}

// New creates a stopped Scheduler for fetcher, persisting into store.
func New[T model.Record](fetcher collector.Fetcher[T], store *snapshot.Store[T], policy model.Policy[T], opts Options) (*Scheduler[T], error) {
	if opts.MinInterval == 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = collector.DefaultRetryPolicy
	}
	if opts.Recorder == nil {
		opts.Recorder = &recorder.NoopRecorder{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.NoopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	schedule, err := NewJitterSchedule(opts.MinInterval, opts.MaxInterval)
	if err != nil {
		return nil, fmt.Errorf("%s scheduler: %w", fetcher.Name(), err)
	}
	return &Scheduler[T]{
		name:     fetcher.Name(),
		fetcher:  fetcher,
		store:    store,
		policy:   policy,
		schedule: schedule,
		retry:    opts.Retry,
		rec:      opts.Recorder,
		notify:   opts.Notifier,
		logger:   opts.Logger,
		state:    StateStopped,
		status:   model.SourceStatus{Source: fetcher.Name()},
	}, nil
}

// Name returns the source name.
func (s *Scheduler[T]) Name() string { return s.name }

// Start loads the snapshot, runs one cycle synchronously and then keeps
// cycling in the background until Stop is called or ctx is cancelled.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler[T]) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		s.logger.Println("[INFO] scheduler already running")
		return
	}
	s.state = StateRunning
	s.mu.Unlock()

	snap := s.store.Load()
	s.mu.Lock()
	s.current = snap.Data
	s.status.RecordCount = len(snap.Data)
	s.mu.Unlock()
	s.logger.Printf("[INFO] scheduler started with %d records", len(snap.Data))

	s.guardedCycle(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Stop may have been called while the first cycle ran.
	if s.state != StateRunning {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.loop(loopCtx, done)
}

// Stop cancels the pending timer. A cycle that is already running is
// allowed to finish. Calling Stop on a stopped scheduler does nothing.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		s.logger.Println("[INFO] scheduler already stopped")
		return
	}
	s.state = StateStopped
	s.status.NextCycleAt = time.Time{}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.logger.Println("[INFO] scheduler stopped")
}

// Wait blocks until the background loop, including any in-flight cycle,
// has exited.
func (s *Scheduler[T]) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetIntervals changes the delay bounds used for the next arm.
func (s *Scheduler[T]) SetIntervals(min, max time.Duration) error {
	if err := s.schedule.SetBounds(min, max); err != nil {
		return err
	}
	s.logger.Printf("[INFO] interval set to [%v, %v]", min, max)
	return nil
}

// Status returns a snapshot of the scheduler's state and counters.
func (s *Scheduler[T]) Status() model.SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.State = s.state
	return st
}

// Current returns a copy of the in-memory record set.
func (s *Scheduler[T]) Current() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.current))
	copy(out, s.current)
	return out
}

func (s *Scheduler[T]) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.done != done {
			return
		}
		s.status.NextCycleAt = time.Time{}
		// The parent context ended without Stop being called.
		if s.state == StateRunning {
			s.state = StateStopped
			s.cancel()
			s.cancel = nil
		}
	}()
	for {
		if ctx.Err() != nil {
			return
		}
		next := s.schedule.Next(time.Now())
		s.mu.Lock()
		s.status.NextCycleAt = next
		s.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		// The cycle must survive Stop; only the next arm is prevented.
		s.guardedCycle(context.WithoutCancel(ctx))
	}
}

func (s *Scheduler[T]) guardedCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("[ERROR] cycle panicked: %v", r)
			s.mu.Lock()
			s.status.Failures++
			s.status.LastError = fmt.Sprint(r)
			s.mu.Unlock()
		}
	}()
	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.Printf("[ERROR] cycle failed: %v", err)
	}
}

// RunCycle performs one fetch → detect → persist pass and returns the
// changes it applied. A source with nothing to report yields an empty
// change set and no error. Fetch failures are returned after the retry
// budget is spent; the snapshot is left untouched either way.
func (s *Scheduler[T]) RunCycle(ctx context.Context) (model.ChangeSet[T], error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	evt := &recorder.CycleEvent{
		ID:        uuid.NewString(),
		Source:    s.name,
		StartedAt: time.Now().UTC(),
	}
	records, err := collector.Retry(ctx, s.retry, s.logger, s.fetcher.Fetch)
	evt.Duration = time.Since(evt.StartedAt)

	var cs model.ChangeSet[T]
	switch {
	case errors.Is(err, collector.ErrNoData):
		s.logger.Println("[WARN] source has no data yet, snapshot unchanged")
		evt.Status = recorder.StatusNoData
		err = nil
	case err != nil:
		evt.Status = recorder.StatusFailed
		evt.Error = err.Error()
	default:
		cs = s.Process(records)
		evt.Records = len(records)
		evt.Added, evt.Updated, evt.Removed = len(cs.Added), len(cs.Updated), len(cs.Removed)
		evt.Status = recorder.StatusUnchanged
		if !cs.Empty() {
			evt.Status = recorder.StatusChanged
		}
	}

	s.mu.Lock()
	s.status.Cycles++
	s.status.LastCycleAt = evt.StartedAt
	s.status.LastError = evt.Error
	if err != nil {
		s.status.Failures++
	}
	s.mu.Unlock()

	s.journal(evt, cs)
	if !cs.Empty() {
		if nerr := s.notify.Notify(ctx, notifier.FormatChanges(s.name, cs)); nerr != nil {
			s.logger.Printf("[ERROR] send change notification: %v", nerr)
		}
	}
	return cs, err
}

// Process compares records against the in-memory snapshot. A non-empty
// delta replaces the snapshot and persists it. Calling Process twice with
// the same records changes nothing the second time.
func (s *Scheduler[T]) Process(records []T) model.ChangeSet[T] {
	records = diff.Dedupe(records, s.policy.Key)

	s.mu.Lock()
	prev := s.current
	s.mu.Unlock()

	cs := diff.Detect(prev, records, s.policy)
	if cs.Empty() {
		s.logger.Printf("[INFO] no changes (%d records)", len(records))
		return cs
	}

	s.mu.Lock()
	s.current = records
	s.status.RecordCount = len(records)
	s.status.Changes += int64(cs.Total())
	s.status.LastChange = time.Now().UTC()
	s.mu.Unlock()

	s.logDelta(cs)
	if err := s.store.Save(records); err != nil {
		s.logger.Printf("[ERROR] save snapshot: %v", err)
	}
	return cs
}

func (s *Scheduler[T]) logDelta(cs model.ChangeSet[T]) {
	s.logger.Printf("[INFO] changes detected: %d added, %d updated, %d removed",
		len(cs.Added), len(cs.Updated), len(cs.Removed))
	for _, r := range cs.Added {
		s.logger.Printf("  + %s", r.Summary())
	}
	for _, u := range cs.Updated {
		s.logger.Printf("  ~ %s -> %s", u.Old.Summary(), u.New.Summary())
	}
	for _, r := range cs.Removed {
		s.logger.Printf("  - %s", r.Summary())
	}
}

func (s *Scheduler[T]) journal(evt *recorder.CycleEvent, cs model.ChangeSet[T]) {
	if err := s.rec.RecordCycle(evt); err != nil {
		s.logger.Printf("[ERROR] record cycle: %v", err)
		return
	}
	if cs.Empty() {
		return
	}
	events := make([]recorder.ChangeEvent, 0, cs.Total())
	add := func(kind, key string, old, cur *T) {
		e := recorder.ChangeEvent{CycleID: evt.ID, Source: s.name, Kind: kind, Key: key}
		if old != nil {
			e.OldJSON = encode(*old)
		}
		if cur != nil {
			e.NewJSON = encode(*cur)
		}
		events = append(events, e)
	}
	for i := range cs.Added {
		add(recorder.KindAdded, s.policy.Key(cs.Added[i]), nil, &cs.Added[i])
	}
	for i := range cs.Updated {
		u := &cs.Updated[i]
		add(recorder.KindUpdated, u.Key, &u.Old, &u.New)
	}
	for i := range cs.Removed {
		add(recorder.KindRemoved, s.policy.Key(cs.Removed[i]), &cs.Removed[i], nil)
	}
	if err := s.rec.RecordChanges(events); err != nil {
		s.logger.Printf("[ERROR] record changes: %v", err)
	}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
