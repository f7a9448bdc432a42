package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups               uint64
	LoginSuccesses        uint64
	LoginFailures         uint64
	KeysCreated           uint64
	KeysRevoked           uint64
	KeysDeleted           uint64
	ValidationCacheHits   uint64
	ValidationCacheMisses uint64
	ValidationSuccesses   uint64
	ValidationInvalid     uint64
	ValidationExpired     uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	signups               uint64
	loginSuccesses        uint64
	loginFailures         uint64
	keysCreated           uint64
	keysRevoked           uint64
	keysDeleted           uint64
	validationCacheHits   uint64
	validationCacheMisses uint64
	validationSuccesses   uint64
	validationInvalid     uint64
	validationExpired     uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Signups:               atomic.LoadUint64(&m.signups),
		LoginSuccesses:        atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:         atomic.LoadUint64(&m.loginFailures),
		KeysCreated:           atomic.LoadUint64(&m.keysCreated),
		KeysRevoked:           atomic.LoadUint64(&m.keysRevoked),
		KeysDeleted:           atomic.LoadUint64(&m.keysDeleted),
		ValidationCacheHits:   atomic.LoadUint64(&m.validationCacheHits),
		ValidationCacheMisses: atomic.LoadUint64(&m.validationCacheMisses),
		ValidationSuccesses:   atomic.LoadUint64(&m.validationSuccesses),
		ValidationInvalid:     atomic.LoadUint64(&m.validationInvalid),
		ValidationExpired:     atomic.LoadUint64(&m.validationExpired),
	}
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLogin increments the login counter for an outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	if outcome == "success" {
		atomic.AddUint64(&m.loginSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncKeyCreated increments the key created counter.
func (m *InMemoryRecorder) IncKeyCreated() {
	atomic.AddUint64(&m.keysCreated, 1)
}

// IncKeyRevoked increments the key revoked counter.
func (m *InMemoryRecorder) IncKeyRevoked() {
	atomic.AddUint64(&m.keysRevoked, 1)
}

// IncKeyDeleted increments the key deleted counter.
func (m *InMemoryRecorder) IncKeyDeleted() {
	atomic.AddUint64(&m.keysDeleted, 1)
}

// IncValidationCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncValidationCacheHit() {
	atomic.AddUint64(&m.validationCacheHits, 1)
}

// IncValidationCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncValidationCacheMiss() {
	atomic.AddUint64(&m.validationCacheMisses, 1)
}

// IncValidation increments the validation counter for an outcome.
func (m *InMemoryRecorder) IncValidation(outcome string) {
	switch outcome {
	case "success":
		atomic.AddUint64(&m.validationSuccesses, 1)
	case "expired":
		atomic.AddUint64(&m.validationExpired, 1)
	default:
		atomic.AddUint64(&m.validationInvalid, 1)
	}
}
