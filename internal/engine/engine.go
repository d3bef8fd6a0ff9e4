package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// snapshot pairs parameters with the critical points derived from them.
// A snapshot is never modified after it is published.
type snapshot struct {
	params    Parameters
	points    CriticalPoints
	defaulted bool
}

// Engine answers kinematic and phase queries for one parameter set.
//
// Thread-safety: queries are safe from any goroutine. SetParameters is the
// only writer; concurrent writers are serialized, and readers always see a
// complete (parameters, critical points) pair.
type Engine struct {
	mu     sync.Mutex // serializes writers
	state  atomic.Pointer[snapshot]
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for parameter updates.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func newEngine(opts []Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// build validates p and derives its critical points.
func build(p Parameters) (*snapshot, error) {
	if errs := Validate(p); len(errs) > 0 {
		return nil, &ParametersError{Errors: errs}
	}
	points, err := DeriveCriticalPoints(p)
	if err != nil {
		return nil, err
	}
	return &snapshot{params: p, points: points}, nil
}

// New creates an Engine for p. It returns a *ParametersError if p is invalid.
func New(p Parameters, opts ...Option) (*Engine, error) {
	snap, err := build(p)
	if err != nil {
		return nil, err
	}
	e := newEngine(opts)
	e.state.Store(snap)
	return e, nil
}

// NewDefault creates an Engine with DefaultParameters.
func NewDefault(opts ...Option) *Engine {
	snap, err := build(DefaultParameters())
	if err != nil {
		panic("engine: default parameters rejected: " + err.Error())
	}
	e := newEngine(opts)
	e.state.Store(snap)
	return e
}

// NewOrDefault creates an Engine for p, substituting DefaultParameters when p
// is rejected. The returned Engine is always usable. When defaults were
// substituted the error is a *FallbackError wrapping the validation failure,
// and Defaulted reports true.
func NewOrDefault(p Parameters, opts ...Option) (*Engine, error) {
	e, err := New(p, opts...)
	if err == nil {
		return e, nil
	}

	e = NewDefault(opts...)
	snap := *e.state.Load()
	snap.defaulted = true
	e.state.Store(&snap)
	e.logger.Warn("parameters rejected, using defaults", "error", err)
	return e, &FallbackError{Rejected: p, Err: err}
}

// SetParameters replaces the parameters and critical points together. On
// failure the previous state is kept and a *ParametersError is returned.
func (e *Engine) SetParameters(p Parameters) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := build(p)
	if err != nil {
		e.logger.Warn("parameter update rejected", "error", err)
		return err
	}
	e.state.Store(snap)
	e.logger.Debug("parameters updated",
		"forward", snap.points.Forward,
		"return", snap.points.Return,
	)
	return nil
}

// Snapshot returns an independent Engine that starts from e's current
// parameters and critical points. Later updates to either Engine do not
// affect the other, so a long computation can read a consistent state.
func (e *Engine) Snapshot() *Engine {
	s := &Engine{logger: e.logger}
	s.state.Store(e.load())
	return s
}

func (e *Engine) load() *snapshot {
	return e.state.Load()
}

// Parameters returns a copy of the current parameters.
func (e *Engine) Parameters() Parameters {
	return e.load().params
}

// State returns the parameters and critical points from a single snapshot.
func (e *Engine) State() (Parameters, CriticalPoints) {
	snap := e.load()
	return snap.params, snap.points
}

// Defaulted reports whether the current parameters were substituted by
// NewOrDefault. A successful SetParameters clears it.
func (e *Engine) Defaulted() bool {
	return e.load().defaulted
}

// CriticalPoints returns all eight critical points.
func (e *Engine) CriticalPoints() CriticalPoints {
	return e.load().points
}

// Points returns the four critical points of one stroke direction, indexed by
// Event.
func (e *Engine) Points(dir Direction) [4]float64 {
	return e.load().points.For(dir)
}

// Point returns a single critical point.
func (e *Engine) Point(ev Event, dir Direction) float64 {
	return e.Points(dir)[ev]
}

// Inlet returns the crank angle at which steam admission begins.
func (e *Engine) Inlet(dir Direction) float64 { return e.Point(EventInlet, dir) }

// Cutoff returns the crank angle at which admission ends.
func (e *Engine) Cutoff(dir Direction) float64 { return e.Point(EventCutoff, dir) }

// Release returns the crank angle at which the exhaust opens.
func (e *Engine) Release(dir Direction) float64 { return e.Point(EventRelease, dir) }

// Compression returns the crank angle at which the exhaust closes.
func (e *Engine) Compression(dir Direction) float64 { return e.Point(EventCompression, dir) }

// CrankToStroke returns the piston displacement from TDC at a crank angle.
func (e *Engine) CrankToStroke(deg float64) float64 {
	p := e.load().params
	return CrankToStroke(deg, p.Stroke, p.ConRod)
}

// StrokeFraction returns the displacement at deg as a fraction of the stroke.
func (e *Engine) StrokeFraction(deg float64) float64 {
	p := e.load().params
	return CrankToStroke(deg, p.Stroke, p.ConRod) / p.Stroke
}

// StrokeToCrank returns the crank angle at which the piston sits pos from TDC.
// Forward answers in [0,180]; Return answers the matching angle on the return
// half of the revolution.
func (e *Engine) StrokeToCrank(pos float64, dir Direction) float64 {
	p := e.load().params
	return StrokeToCrank(pos, p.Stroke, p.ConRod, dir)
}

// CrankToValve returns the valve offset from neutral at a crank angle,
// positive toward the head end.
func (e *Engine) CrankToValve(deg float64) float64 {
	return crankToValve(e.load().params, deg)
}

// ValveToCrank returns the crank angle at which the valve sits at offset.
// Forward selects the half-turn on which the offset is decreasing, Return the
// half-turn on which it is increasing. Offsets beyond the valve travel clamp
// to the nearest extreme.
func (e *Engine) ValveToCrank(offset float64, branch Direction) float64 {
	deg, _ := valveToCrank(e.load().params, offset, branch)
	return deg
}

// Phase returns the cycle phase of one cylinder end at a crank angle.
func (e *Engine) Phase(deg float64, dir Direction) Phase {
	return classify(e.load().points.For(dir), deg)
}

// NextBoundary returns the smallest crank angle greater than deg at which the
// phase advances to its successor. The result continues from deg, so it may
// exceed 360. A non-nil error is an *InternalError and is fatal.
func (e *Engine) NextBoundary(deg float64, dir Direction) (float64, error) {
	return nextBoundary(e.load().points.For(dir), deg, dir)
}
