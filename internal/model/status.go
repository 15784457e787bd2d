package model

import "time"

// SourceStatus is a point-in-time view of one source's scheduler.
type SourceStatus struct {
	Source      string    `json:"source"`
	State       string    `json:"state"`
	RecordCount int       `json:"record_count"`
	LastCycleAt time.Time `json:"last_cycle_at,omitzero"`
	LastChange  time.Time `json:"last_change_at,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	NextCycleAt time.Time `json:"next_cycle_at,omitzero"`
	Cycles      int64     `json:"cycles"`
	Changes     int64     `json:"changes"`
	Failures    int64     `json:"failures"`
}
