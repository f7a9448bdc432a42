package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/keygate/keygate/internal/model"
)

func testIdentity(keyID string) model.KeyIdentity {
	return model.KeyIdentity{KeyID: keyID, UserID: "user-1", Name: "ci"}
}

func TestValidationCache_PutGet(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()

	if got := c.Get("digest-1"); got != nil {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("digest-1", testIdentity("key-1"), time.Minute, c.Begin())

	got := c.Get("digest-1")
	if got == nil {
		t.Fatal("expected hit after put")
	}
	if got.KeyID != "key-1" || got.UserID != "user-1" || got.Name != "ci" {
		t.Errorf("unexpected identity: %+v", got)
	}
}

func TestValidationCache_Expiry(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()
	c.Put("digest-1", testIdentity("key-1"), 10*time.Millisecond, c.Begin())

	if c.Get("digest-1") == nil {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if c.Get("digest-1") != nil {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be evicted on lookup")
	}
}

func TestValidationCache_ZeroTTLNotCached(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()
	c.Put("digest-1", testIdentity("key-1"), 0, c.Begin())

	if c.Get("digest-1") != nil {
		t.Fatal("zero TTL should not cache")
	}
}

func TestValidationCache_InvalidateKey(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()
	c.Put("digest-1", testIdentity("key-1"), time.Minute, c.Begin())
	c.Put("digest-2", testIdentity("key-2"), time.Minute, c.Begin())

	c.InvalidateKey("key-1")

	if c.Get("digest-1") != nil {
		t.Error("invalidated entry should be gone")
	}
	if c.Get("digest-2") == nil {
		t.Error("other entries should survive invalidation")
	}
}

func TestValidationCache_StalePutLosesToInvalidation(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()

	// A validator stamps before its store lookup...
	since := c.Begin()

	// ...a revoke lands while the lookup is in flight...
	c.InvalidateKey("key-1")

	// ...and the validator's late put must not resurrect the key.
	c.Put("digest-1", testIdentity("key-1"), time.Minute, since)

	if c.Get("digest-1") != nil {
		t.Fatal("stale put must not resurrect an invalidated identity")
	}
}

func TestValidationCache_PutAfterInvalidationSucceeds(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()
	c.InvalidateKey("key-1")

	// A fresh validation begun after the invalidation is allowed to cache.
	since := c.Begin()
	c.Put("digest-1", testIdentity("key-1"), time.Minute, since)

	if c.Get("digest-1") == nil {
		t.Fatal("put stamped after the invalidation should be stored")
	}
}

func TestValidationCache_InvalidationStampsPruned(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()
	c.stampTTL = time.Millisecond

	c.InvalidateKey("key-1")
	time.Sleep(5 * time.Millisecond)
	c.InvalidateKey("key-2")

	c.mu.Lock()
	_, staleKept := c.invalidated["key-1"]
	_, freshKept := c.invalidated["key-2"]
	c.mu.Unlock()

	if staleKept {
		t.Error("stamp past its retention window should be pruned")
	}
	if !freshKept {
		t.Error("fresh stamp should be retained")
	}
}

func TestValidationCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewValidationCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			keyID := fmt.Sprintf("key-%d", i)
			digest := fmt.Sprintf("digest-%d", i)
			for j := 0; j < 200; j++ {
				since := c.Begin()
				c.Put(digest, testIdentity(keyID), time.Minute, since)
				c.Get(digest)
				if j%10 == 0 {
					c.InvalidateKey(keyID)
				}
			}
		}()
	}
	wg.Wait()

	// Every goroutine ended with an invalidation-free put or an
	// invalidation; either way Get must not panic and entries must be
	// internally consistent.
	for i := 0; i < 8; i++ {
		c.Get(fmt.Sprintf("digest-%d", i))
	}
}
