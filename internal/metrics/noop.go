package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(outcome string) {}

// IncKeyCreated is a no-op.
func (n *NoopRecorder) IncKeyCreated() {}

// IncKeyRevoked is a no-op.
func (n *NoopRecorder) IncKeyRevoked() {}

// IncKeyDeleted is a no-op.
func (n *NoopRecorder) IncKeyDeleted() {}

// IncValidationCacheHit is a no-op.
func (n *NoopRecorder) IncValidationCacheHit() {}

// IncValidationCacheMiss is a no-op.
func (n *NoopRecorder) IncValidationCacheMiss() {}

// IncValidation is a no-op.
func (n *NoopRecorder) IncValidation(outcome string) {}
