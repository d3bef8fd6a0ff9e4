package sweep

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
)

// Run is a recorded sweep together with the geometry it was computed from.
type Run struct {
	ID           string                `json:"id"`
	ParametersID string                `json:"parameters_id"`
	Parameters   engine.Parameters     `json:"parameters"`
	Points       engine.CriticalPoints `json:"points"`
	From         float64               `json:"from"`
	To           float64               `json:"to"`
	Step         float64               `json:"step"`
	CreatedAt    time.Time             `json:"created_at"`
	Samples      []Sample              `json:"samples"`
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
// Panics if all IDs have been consumed.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Recorder turns sweeps into Runs.
type Recorder struct {
	ids    IDGenerator
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Recorder) {
		r.ids = g
	}
}

// WithClock sets the timestamp source. Default: time.Now in UTC.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder creates a Recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		ids:    UUIDv7Generator{},
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record sweeps eng and returns the result as a Run.
func (r *Recorder) Record(eng *engine.Engine, from, to, step float64) (*Run, error) {
	snap := eng.Snapshot()
	params, points := snap.State()

	pid, err := canon.ParametersID(params)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	samples, err := Sweep(snap, from, to, step)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:           r.ids.Generate(),
		ParametersID: pid,
		Parameters:   params,
		Points:       points,
		From:         from,
		To:           to,
		Step:         step,
		CreatedAt:    r.now(),
		Samples:      samples,
	}
	r.logger.Debug("sweep recorded",
		"run", run.ID,
		"parameters", pid[:12],
		"samples", len(samples),
	)
	return run, nil
}
