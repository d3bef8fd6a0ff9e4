package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
	"github.com/roach88/slidevalve/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun records a sweep of eng with a fixed ID and timestamp.
func createTestRun(t *testing.T, eng *engine.Engine, id string, createdAt time.Time, from, to, step float64) *sweep.Run {
	t.Helper()
	rec := sweep.NewRecorder(
		sweep.WithIDGenerator(sweep.NewFixedGenerator(id)),
		sweep.WithClock(func() time.Time { return createdAt }),
		sweep.WithLogger(testutil.QuietLogger()),
	)
	run, err := rec.Record(eng, from, to, step)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	return run
}
