package recorder

import "time"

// Cycle outcomes.
const (
	StatusUnchanged = "UNCHANGED"
	StatusChanged   = "CHANGED"
	StatusNoData    = "NO_DATA"
	StatusFailed    = "FAILED"
)

// Change kinds.
const (
	KindAdded   = "ADDED"
	KindUpdated = "UPDATED"
	KindRemoved = "REMOVED"
)

// CycleEvent describes one fetch → detect → persist pass.
type CycleEvent struct {
	ID        string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Status    string
	Records   int
	Added     int
	Updated   int
	Removed   int
	Error     string
}

// ChangeEvent is a single record-level change found by a cycle.
// OldJSON and NewJSON hold the encoded record; either may be empty.
type ChangeEvent struct {
	CycleID string
	Source  string
	Kind    string
	Key     string
	OldJSON string
	NewJSON string
}

// Recorder journals cycles and their changes.
type Recorder interface {
	RecordCycle(evt *CycleEvent) error
	RecordChanges(events []ChangeEvent) error
	Close() error
}
