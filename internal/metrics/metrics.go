// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncSignup()
	IncLogin(outcome string) // outcome: "success" or "failure"

	// Key lifecycle metrics
	IncKeyCreated()
	IncKeyRevoked()
	IncKeyDeleted()

	// Validation path metrics
	IncValidationCacheHit()
	IncValidationCacheMiss()
	IncValidation(outcome string) // outcome: "success", "invalid", "expired"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
