package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *CycleEvent) error      { return nil }
func (n *NoopRecorder) RecordChanges(_ []ChangeEvent) error { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
