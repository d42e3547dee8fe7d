package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(_ *EvaluationEvent) error { return nil }
func (n *NoopRecorder) RecordExecution(_ *ExecutionEvent) error   { return nil }
func (n *NoopRecorder) RecordStop(_ *StopEvent) error             { return nil }
func (n *NoopRecorder) Close() error                              { return nil }
