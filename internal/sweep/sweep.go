package sweep

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/slidevalve/internal/engine"
)

// MaxSamples bounds the size of a single sweep.
const MaxSamples = 1_000_000

// ErrInvalidRange is returned for a sweep range that cannot be sampled.
var ErrInvalidRange = errors.New("invalid sweep range")

// Sample is the engine state at one crank angle.
type Sample struct {
	Angle        float64      `json:"angle"`
	Displacement float64      `json:"displacement"`
	Fraction     float64      `json:"fraction"`
	ValveOffset  float64      `json:"valve_offset"`
	Forward      engine.Phase `json:"forward"`
	Return       engine.Phase `json:"return"`
}

// At evaluates one sample. The angle is reported as given, so sweeps may run
// past a full turn or below zero.
func At(eng *engine.Engine, deg float64) Sample {
	return Sample{
		Angle:        deg,
		Displacement: eng.CrankToStroke(deg),
		Fraction:     eng.StrokeFraction(deg),
		ValveOffset:  eng.CrankToValve(deg),
		Forward:      eng.Phase(deg, engine.Forward),
		Return:       eng.Phase(deg, engine.Return),
	}
}

// Count returns the number of samples Sweep produces for the range.
func Count(from, to, step float64) (int, error) {
	if err := checkRange(from, to); err != nil {
		return 0, err
	}
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return 0, fmt.Errorf("%w: step %g must be positive", ErrInvalidRange, step)
	}
	n := math.Floor((to-from)/step+1e-9) + 1
	if n > MaxSamples {
		return 0, fmt.Errorf("%w: %g samples exceeds limit %d", ErrInvalidRange, n, MaxSamples)
	}
	return int(n), nil
}

// Sweep samples eng from `from` to `to` inclusive, every step degrees.
func Sweep(eng *engine.Engine, from, to, step float64) ([]Sample, error) {
	n, err := Count(from, to, step)
	if err != nil {
		return nil, err
	}

	snap := eng.Snapshot()
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = At(snap, from+float64(i)*step)
	}
	return samples, nil
}

func checkRange(from, to float64) error {
	for _, v := range []float64{from, to} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite", ErrInvalidRange)
		}
	}
	if to < from {
		return fmt.Errorf("%w: end %g before start %g", ErrInvalidRange, to, from)
	}
	return nil
}
