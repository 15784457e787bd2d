package model

import "time"

// Policy tells the engine how to identify and compare records of one type.
// Equal must only look at content fields; timestamps are never compared.
type Policy[T any] struct {
	Key   func(T) string
	Equal func(a, b T) bool
}

// Snapshot is the persisted form of the latest known record set.
type Snapshot[T any] struct {
	LastUpdated time.Time `json:"lastUpdated"`
	RecordCount int       `json:"recordCount"`
	Data        []T       `json:"data"`
}

// Update pairs the previous and current version of a record.
type Update[T any] struct {
	Key string `json:"key"`
	Old T      `json:"old"`
	New T      `json:"new"`
}

// ChangeSet is the delta between two versions of a record set.
type ChangeSet[T any] struct {
	Added   []T
	Updated []Update[T]
	Removed []T
}

// Empty reports whether the change set carries no changes at all.
func (c ChangeSet[T]) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Total returns the number of individual changes.
func (c ChangeSet[T]) Total() int {
	return len(c.Added) + len(c.Updated) + len(c.Removed)
}

// Record is implemented by every record type the engine tracks.
type Record interface {
	Summary() string
}
