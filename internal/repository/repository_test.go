package repository

import (
	"context"
	"testing"

	"github.com/keygate/keygate/internal/testutil"
)

// setupRepo connects to the integration database, serializes against
// other DB tests, and resets the schema. Skips when DATABASE_URL is not
// set.
func setupRepo(t *testing.T) *Repository {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "DATABASE_URL")
	ctx := context.Background()

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connecting to database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquiring DB lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("releasing DB lock: %v", err)
		}
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("resetting schema: %v", err)
	}

	return repo
}
