package recorder

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "journal.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordCycle(t *testing.T) {
	r := openTestRecorder(t)

	evt := &CycleEvent{
		ID:        "cycle-1",
		Source:    "stock",
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Status:    StatusChanged,
		Records:   12,
		Added:     2,
		Updated:   1,
	}
	if err := r.RecordCycle(evt); err != nil {
		t.Fatalf("record cycle: %v", err)
	}

	var status string
	var added, durationMs int
	err := r.db.QueryRow(`SELECT status, added, duration_ms FROM cycles WHERE id = ?`, "cycle-1").Scan(&status, &added, &durationMs)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if status != StatusChanged || added != 2 || durationMs != 1500 {
		t.Errorf("got status=%s added=%d duration=%d", status, added, durationMs)
	}

	// Same ID twice violates the primary key.
	if err := r.RecordCycle(evt); err == nil {
		t.Error("expected duplicate cycle id to fail")
	}
}

func TestSQLiteRecorder_RecordChanges(t *testing.T) {
	r := openTestRecorder(t)

	events := []ChangeEvent{
		{CycleID: "c1", Source: "lottery", Kind: KindAdded, Key: "16 October 2026", NewJSON: `{"date":"16 October 2026"}`},
		{CycleID: "c1", Source: "lottery", Kind: KindRemoved, Key: "1 October 2026", OldJSON: `{"date":"1 October 2026"}`},
	}
	if err := r.RecordChanges(events); err != nil {
		t.Fatalf("record changes: %v", err)
	}
	if err := r.RecordChanges(nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM changes WHERE cycle_id = 'c1'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("changes: got %d, want 2", n)
	}

	var kind string
	r.db.QueryRow(`SELECT kind FROM changes WHERE record_key = ?`, "1 October 2026").Scan(&kind)
	if kind != KindRemoved {
		t.Errorf("kind: got %q, want %q", kind, KindRemoved)
	}
}

func TestSQLiteRecorder_Memory(t *testing.T) {
	r, err := NewSQLiteRecorder(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if err := r.RecordCycle(&CycleEvent{ID: "m", Source: "stock", StartedAt: time.Now(), Status: StatusUnchanged}); err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordCycle(&CycleEvent{}); err != nil {
		t.Error(err)
	}
	if err := r.RecordChanges([]ChangeEvent{{}}); err != nil {
		t.Error(err)
	}
	if err := r.Close(); err != nil {
		t.Error(err)
	}
}
