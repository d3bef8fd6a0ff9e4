package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// Tolerances used by the whole-cycle assertions.
const (
	// roundTripTolerance bounds the angular error of StrokeToCrank after
	// CrankToStroke, in degrees. acos loses precision near the dead centres.
	roundTripTolerance = 1e-4

	// lapTolerance bounds the valve offset error at a critical point.
	lapTolerance = 1e-9

	// turnTolerance bounds how far four boundary steps may drift from one
	// full turn, in degrees.
	turnTolerance = 1e-6
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type      string           // Assertion type for categorization
	Direction engine.Direction // Cylinder end the failure was observed on
	Expected  string           // Human-readable expected outcome
	Actual    string           // Human-readable actual outcome
	Points    [4]float64       // Critical points of that end, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Direction)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nCritical points:\n")
	for _, ev := range engine.Events {
		fmt.Fprintf(&buf, "  %-11s %.6f\n", ev, e.Points[ev])
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against eng and returns the
// failure messages. An empty slice means all assertions held.
func EvaluateAssertions(eng *engine.Engine, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		dirs, err := a.directions()
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
			continue
		}
		for _, dir := range dirs {
			if err := evaluateAssertion(eng, a, dir); err != nil {
				errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
			}
		}
	}
	return errs
}

func evaluateAssertion(eng *engine.Engine, a Assertion, dir engine.Direction) error {
	switch a.Type {
	case AssertCycleOrder:
		return assertCycleOrder(eng, dir)
	case AssertPhasePartition:
		return assertPhasePartition(eng, dir, a.step())
	case AssertCutoffFraction:
		return assertCutoffFraction(eng, dir, a.Min, a.Max)
	case AssertStrokeRoundTrip:
		return assertStrokeRoundTrip(eng, dir, a.step())
	case AssertValveAtLap:
		return assertValveAtLap(eng, dir)
	case AssertBoundaryChain:
		return assertBoundaryChain(eng, dir)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertCycleOrder checks that, measured forward from inlet, the points are
// strictly increasing and all lie in [0,360).
func assertCycleOrder(eng *engine.Engine, dir engine.Direction) error {
	pts := eng.Points(dir)
	prev := -1.0
	for _, ev := range engine.Events {
		if pts[ev] < 0 || pts[ev] >= engine.FullTurn {
			return &AssertionError{
				Type:      AssertCycleOrder,
				Direction: dir,
				Expected:  fmt.Sprintf("%s in [0,360)", ev),
				Actual:    fmt.Sprintf("%s = %g", ev, pts[ev]),
				Points:    pts,
			}
		}
		rel := engine.AddAngles(pts[ev], -pts[engine.EventInlet])
		if rel <= prev {
			return &AssertionError{
				Type:      AssertCycleOrder,
				Direction: dir,
				Expected:  fmt.Sprintf("%s after %s", ev, ev-1),
				Actual:    fmt.Sprintf("%s is %.6f degrees past inlet, previous event %.6f", ev, rel, prev),
				Points:    pts,
			}
		}
		prev = rel
	}
	return nil
}

// assertPhasePartition samples one revolution and checks that phases only
// ever advance to their successor, and that the boundary segments of one
// revolution tile it exactly.
func assertPhasePartition(eng *engine.Engine, dir engine.Direction, step float64) error {
	pts := eng.Points(dir)

	samples, err := sweep.Sweep(eng, 0, engine.FullTurn, step)
	if err != nil {
		return err
	}
	seen := make(map[engine.Phase]bool, len(engine.Phases))
	for i, s := range samples {
		ph := samplePhase(s, dir)
		seen[ph] = true
		if i == 0 {
			continue
		}
		prev := samplePhase(samples[i-1], dir)
		if ph != prev && ph != prev.Next() {
			return &AssertionError{
				Type:      AssertPhasePartition,
				Direction: dir,
				Expected:  fmt.Sprintf("%s or %s at %g", prev, prev.Next(), s.Angle),
				Actual:    ph.String(),
				Points:    pts,
			}
		}
	}
	if len(seen) != len(engine.Phases) {
		return &AssertionError{
			Type:      AssertPhasePartition,
			Direction: dir,
			Expected:  fmt.Sprintf("all %d phases within one revolution", len(engine.Phases)),
			Actual:    fmt.Sprintf("%d phases at step %g", len(seen), step),
			Points:    pts,
		}
	}

	segs, err := sweep.Segments(eng, 0, engine.FullTurn, dir)
	if err != nil {
		return err
	}
	var total float64
	for _, seg := range segs {
		total += seg.Span()
	}
	if math.Abs(total-engine.FullTurn) > turnTolerance {
		return &AssertionError{
			Type:      AssertPhasePartition,
			Direction: dir,
			Expected:  "segments spanning 360 degrees",
			Actual:    fmt.Sprintf("%d segments spanning %.9f", len(segs), total),
			Points:    pts,
		}
	}
	return nil
}

func samplePhase(s sweep.Sample, dir engine.Direction) engine.Phase {
	if dir == engine.Return {
		return s.Return
	}
	return s.Forward
}

// assertCutoffFraction checks the share of its stroke the piston has covered
// when steam is cut off.
func assertCutoffFraction(eng *engine.Engine, dir engine.Direction, lo, hi float64) error {
	frac := CutoffFraction(eng, dir)
	if frac < lo || frac > hi {
		return &AssertionError{
			Type:      AssertCutoffFraction,
			Direction: dir,
			Expected:  fmt.Sprintf("cutoff between %.4f and %.4f of stroke", lo, hi),
			Actual:    fmt.Sprintf("%.6f", frac),
			Points:    eng.Points(dir),
		}
	}
	return nil
}

// CutoffFraction returns the fraction of its stroke the piston has travelled
// at cutoff. The forward stroke starts at TDC, the return stroke at BDC.
func CutoffFraction(eng *engine.Engine, dir engine.Direction) float64 {
	frac := eng.StrokeFraction(eng.Cutoff(dir))
	if dir == engine.Return {
		return 1 - frac
	}
	return frac
}

// assertStrokeRoundTrip checks that StrokeToCrank inverts CrankToStroke on
// the half-revolution belonging to dir.
func assertStrokeRoundTrip(eng *engine.Engine, dir engine.Direction, step float64) error {
	from := 0.0
	if dir == engine.Return {
		from = 180
	}
	samples, err := sweep.Sweep(eng, from, from+180, step)
	if err != nil {
		return err
	}
	for _, s := range samples {
		want := engine.AddAngles(s.Angle, 0)
		got := eng.StrokeToCrank(s.Displacement, dir)
		if d := angularDistance(got, want); d > roundTripTolerance {
			return &AssertionError{
				Type:      AssertStrokeRoundTrip,
				Direction: dir,
				Expected:  fmt.Sprintf("crank %.6f from displacement %.9f", want, s.Displacement),
				Actual:    fmt.Sprintf("crank %.6f (off by %g)", got, d),
				Points:    eng.Points(dir),
			}
		}
	}
	return nil
}

// assertValveAtLap checks that the valve sits exactly on the steam lap at
// inlet and cutoff and on the exhaust lap at release and compression.
func assertValveAtLap(eng *engine.Engine, dir engine.Direction) error {
	laps := eng.Parameters().Laps()
	steam, exhaust := laps.TopSteam, laps.TopExhaust
	if dir == engine.Return {
		steam, exhaust = laps.BottomSteam, laps.BottomExhaust
	}
	want := [4]float64{steam, steam, exhaust, exhaust}

	pts := eng.Points(dir)
	for _, ev := range engine.Events {
		got := eng.CrankToValve(pts[ev])
		if math.Abs(got-want[ev]) > lapTolerance {
			return &AssertionError{
				Type:      AssertValveAtLap,
				Direction: dir,
				Expected:  fmt.Sprintf("valve offset %g at %s", want[ev], ev),
				Actual:    fmt.Sprintf("%g", got),
				Points:    pts,
			}
		}
	}
	return nil
}

// assertBoundaryChain follows NextBoundary from TDC through five boundaries
// and checks that each enters the successor phase and that the fifth lands
// one full turn after the first.
func assertBoundaryChain(eng *engine.Engine, dir engine.Direction) error {
	pts := eng.Points(dir)
	var bounds [5]float64

	deg := 0.0
	for i := range bounds {
		cur := eng.Phase(deg, dir)
		next, err := eng.NextBoundary(deg, dir)
		if err != nil {
			return err
		}
		if next <= deg {
			return &AssertionError{
				Type:      AssertBoundaryChain,
				Direction: dir,
				Expected:  fmt.Sprintf("boundary after %g", deg),
				Actual:    fmt.Sprintf("%g", next),
				Points:    pts,
			}
		}
		if got := eng.Phase(next, dir); got != cur.Next() {
			return &AssertionError{
				Type:      AssertBoundaryChain,
				Direction: dir,
				Expected:  fmt.Sprintf("%s at %g", cur.Next(), next),
				Actual:    got.String(),
				Points:    pts,
			}
		}
		bounds[i] = next
		deg = next
	}

	if d := bounds[4] - bounds[0]; math.Abs(d-engine.FullTurn) > turnTolerance {
		return &AssertionError{
			Type:      AssertBoundaryChain,
			Direction: dir,
			Expected:  "four phases spanning 360 degrees",
			Actual:    fmt.Sprintf("%.9f", d),
			Points:    pts,
		}
	}
	return nil
}

// angularDistance returns the shorter arc between two angles in degrees.
func angularDistance(a, b float64) float64 {
	d := engine.AddAngles(a, -b)
	return math.Min(d, engine.FullTurn-d)
}
