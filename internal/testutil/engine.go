package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/slidevalve/internal/engine"
)

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewEngine builds an engine from DefaultParameters after applying mutate.
// The test fails immediately if the result is rejected.
func NewEngine(t testing.TB, mutate func(*engine.Parameters)) *engine.Engine {
	t.Helper()
	p := engine.DefaultParameters()
	if mutate != nil {
		mutate(&p)
	}
	eng, err := engine.New(p, engine.WithLogger(QuietLogger()))
	require.NoError(t, err)
	return eng
}
