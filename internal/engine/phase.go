package engine

import (
	"fmt"
	"math"
)

// Phase is the thermodynamic state of one end of the cylinder.
type Phase int

const (
	Intake Phase = iota
	Expansion
	Exhaust
	Compression
)

var phaseNames = [4]string{"intake", "expansion", "exhaust", "compression"}

func (ph Phase) String() string {
	if ph < Intake || ph > Compression {
		return fmt.Sprintf("phase(%d)", int(ph))
	}
	return phaseNames[ph]
}

// Next returns the phase that follows ph in cycle order.
func (ph Phase) Next() Phase {
	return (ph + 1) % 4
}

// StartEvent returns the critical point that opens ph.
func (ph Phase) StartEvent() Event {
	return Event(ph)
}

// Phases lists the phases in cycle order.
var Phases = [4]Phase{Intake, Expansion, Exhaust, Compression}

// ParsePhase maps a phase name back to its Phase.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// MarshalText encodes ph by name.
func (ph Phase) MarshalText() ([]byte, error) {
	if ph < Intake || ph > Compression {
		return nil, fmt.Errorf("invalid phase %d", int(ph))
	}
	return []byte(phaseNames[ph]), nil
}

// UnmarshalText decodes a phase name.
func (ph *Phase) UnmarshalText(text []byte) error {
	p, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*ph = p
	return nil
}

// boundaryStep is the refinement increment, one arcsecond.
const boundaryStep = 1.0 / 3600.0

// maxRefineSteps bounds the refinement loop to one degree of drift.
const maxRefineSteps = 3600

// classify returns the phase whose half-open arc [points[i], points[i+1])
// contains deg. points must be normalized and in cycle order.
func classify(points [4]float64, deg float64) Phase {
	w := AddAngles(deg, 0)

	var diff [4]float64
	allAhead := true
	for i, cp := range points {
		diff[i] = cp - w
		if diff[i] == 0 {
			return Phase(i)
		}
		if diff[i] < 0 {
			allAhead = false
		}
	}

	best := -1
	if allAhead {
		// w precedes every point, so the last point of the previous turn
		// (largest angle) is the one most recently passed.
		for i := range diff {
			if best < 0 || diff[i] > diff[best] {
				best = i
			}
		}
		return Phase(best)
	}

	for i := range diff {
		if diff[i] < 0 && (best < 0 || diff[i] > diff[best]) {
			best = i
		}
	}
	return Phase(best)
}

// nextBoundary returns the smallest angle greater than deg at which the phase
// changes to its successor. The result is unwrapped: it continues from deg
// rather than being reduced into [0,360).
func nextBoundary(points [4]float64, deg float64, dir Direction) (float64, error) {
	cur := classify(points, deg)
	next := cur.Next()

	w := AddAngles(deg, 0)
	target := deg + AddAngles(points[next.StartEvent()], -w)
	if target <= deg {
		target = math.Nextafter(deg, math.Inf(1))
	}

	for i := 0; i <= maxRefineSteps; i++ {
		switch got := classify(points, target); got {
		case next:
			return target, nil
		case cur:
			// Rounding left the probe short of the boundary.
			stepped := target + boundaryStep
			if stepped <= target {
				stepped = math.Nextafter(target, math.Inf(1))
			}
			target = stepped
		default:
			return 0, newInconsistentPhaseError(deg, dir, cur, next, got)
		}
	}

	return 0, &InternalError{
		Code:    ErrCodeBoundaryNotFound,
		Message: fmt.Sprintf("no %s boundary within %d refinement steps", next, maxRefineSteps),
		Details: map[string]string{
			"angle":     fmt.Sprintf("%g", deg),
			"direction": dir.String(),
		},
	}
}
