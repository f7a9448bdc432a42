// Package cache provides the in-process validation cache and the Redis
// rate-limit store.
package cache

import (
	"sync"
	"time"

	"github.com/keygate/keygate/internal/model"
)

// validationEntry is one cached validation result with its own absolute
// expiry. Entries are process-local, never persisted.
type validationEntry struct {
	identity  model.KeyIdentity
	expiresAt time.Time
}

// invalidation is the stamp and instant of the latest InvalidateKey for
// a key identity. Retained only long enough to catch an in-flight put.
type invalidation struct {
	seq uint64
	at  time.Time
}

// stampRetention bounds how long invalidation stamps are kept. A put
// can only race an invalidation for the duration of one store lookup,
// so anything older than this has no racing validator left to catch.
const stampRetention = time.Minute

// ValidationCache maps API key digests to validation results so that
// repeated key use inside the TTL window skips the store round trip.
//
// A hit is a genuine bypass of the revocation and expiry re-check: the
// staleness window is bounded by the entry TTL, except that an explicit
// invalidation is synchronous and forces the next lookup to miss.
type ValidationCache struct {
	mu      sync.Mutex
	entries map[string]validationEntry

	// seq and invalidated implement the anti-resurrection rule: a Put
	// racing an InvalidateKey for the same identity must lose. Begin
	// stamps a validation before its store lookup; Put drops the entry
	// if the identity was invalidated after that stamp.
	seq         uint64
	invalidated map[string]invalidation

	stampTTL time.Duration
}

// NewValidationCache creates an empty ValidationCache.
// Each registry owns its own instance; there is no process-wide map.
func NewValidationCache() *ValidationCache {
	return &ValidationCache{
		entries:     make(map[string]validationEntry),
		invalidated: make(map[string]invalidation),
		stampTTL:    stampRetention,
	}
}

// Begin returns a generation stamp to pass to Put after the store
// lookup completes. Take the stamp before consulting the store.
func (c *ValidationCache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Get returns the cached result for a digest, or nil on a miss.
// Entries past their expiry are removed lazily here.
func (c *ValidationCache) Get(digest string) *model.KeyIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[digest]
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, digest)
		return nil
	}

	identity := entry.identity
	return &identity
}

// Put stores a validation result under its digest with the given TTL.
// The write is dropped if the identity was invalidated after the since
// stamp was taken, so a slow validator cannot resurrect a revoked key.
// A validation begun after the invalidation carries a stamp at or past
// the invalidation's and is stored normally.
func (c *ValidationCache) Put(digest string, identity model.KeyIdentity, ttl time.Duration, since uint64) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if inv, ok := c.invalidated[identity.KeyID]; ok && inv.seq > since {
		return
	}

	c.entries[digest] = validationEntry{
		identity:  identity,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateKey removes every entry whose result references the given
// key ID. Once it returns, no subsequent Get serves the invalidated
// key. The linear scan is acceptable: the cache is bounded by recent
// traffic and invalidation is rare relative to lookups.
func (c *ValidationCache) InvalidateKey(keyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	c.seq++
	c.invalidated[keyID] = invalidation{seq: c.seq, at: now}

	// Expired stamps have no racing validator left; drop them here so
	// the map stays bounded by recent invalidations, not lifetime ones.
	for id, inv := range c.invalidated {
		if now.Sub(inv.at) > c.stampTTL {
			delete(c.invalidated, id)
		}
	}

	for digest, entry := range c.entries {
		if entry.identity.KeyID == keyID {
			delete(c.entries, digest)
		}
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *ValidationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
