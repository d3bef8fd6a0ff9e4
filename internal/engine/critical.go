package engine

import (
	"fmt"
	"math"
)

// Event names a critical point. Each event starts the phase of the same index.
type Event int

const (
	EventInlet Event = iota
	EventCutoff
	EventRelease
	EventCompression
)

var eventNames = [4]string{"inlet", "cutoff", "release", "compression"}

func (e Event) String() string {
	if e < EventInlet || e > EventCompression {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// Events lists the critical points in cycle order.
var Events = [4]Event{EventInlet, EventCutoff, EventRelease, EventCompression}

// CriticalPoints holds the crank angles, in [0,360), at which ports open and
// close. Each array is indexed by Event.
type CriticalPoints struct {
	Forward [4]float64 `json:"forward"`
	Return  [4]float64 `json:"return"`
}

// For returns the four points of one stroke direction.
func (c CriticalPoints) For(dir Direction) [4]float64 {
	if dir == Return {
		return c.Return
	}
	return c.Forward
}

// eventTrigger ties an event to the valve offset that triggers it and to the
// eccentric half-turn on which the crossing happens. On the Forward branch the
// valve offset decreases; on the Return branch it increases.
type eventTrigger struct {
	event  Event
	field  string
	offset float64
	branch Direction
}

func eventTriggers(p Parameters, dir Direction) [4]eventTrigger {
	laps := p.Laps()
	if dir == Return {
		return [4]eventTrigger{
			{EventInlet, "ports.bottom[1]", laps.BottomSteam, Return},
			{EventCutoff, "ports.bottom[1]", laps.BottomSteam, Forward},
			{EventRelease, "ports.bottom[0]", laps.BottomExhaust, Forward},
			{EventCompression, "ports.bottom[0]", laps.BottomExhaust, Return},
		}
	}
	return [4]eventTrigger{
		{EventInlet, "ports.top[1]", laps.TopSteam, Forward},
		{EventCutoff, "ports.top[1]", laps.TopSteam, Return},
		{EventRelease, "ports.top[0]", laps.TopExhaust, Return},
		{EventCompression, "ports.top[0]", laps.TopExhaust, Forward},
	}
}

// DeriveCriticalPoints computes the eight critical points for p. p must
// already pass Validate. A port edge the valve never reaches, a failure of
// the inverse-trig step, or events out of cycle order are reported as a
// *ParametersError.
func DeriveCriticalPoints(p Parameters) (CriticalPoints, error) {
	var cp CriticalPoints
	var errs []ValidationError

	for _, dir := range Directions {
		var points [4]float64
		complete := true
		for _, trig := range eventTriggers(p, dir) {
			deg, ve := eventAngle(p, dir, trig)
			if ve != nil {
				errs = append(errs, *ve)
				complete = false
				continue
			}
			points[trig.event] = deg
		}
		if !complete {
			continue
		}
		if ve := checkCycleOrder(points, dir); ve != nil {
			errs = append(errs, *ve)
			continue
		}
		if dir == Return {
			cp.Return = points
		} else {
			cp.Forward = points
		}
	}

	if len(errs) > 0 {
		return CriticalPoints{}, &ParametersError{Errors: errs}
	}
	return cp, nil
}

func eventAngle(p Parameters, dir Direction, trig eventTrigger) (float64, *ValidationError) {
	half := p.ValveTravel / 2
	if trig.offset >= half || trig.offset <= -half {
		return 0, &ValidationError{
			Field: trig.field,
			Message: fmt.Sprintf("%s %s needs valve offset %g outside travel ±%g",
				dir, trig.event, trig.offset, half),
			Code: ErrCodeUnreachableEvent,
		}
	}

	deg, ok := valveToCrank(p, trig.offset, trig.branch)
	if !ok || math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, &ValidationError{
			Field:   trig.field,
			Message: fmt.Sprintf("%s %s: valve offset %g has no crank solution", dir, trig.event, trig.offset),
			Code:    ErrCodeDomain,
		}
	}
	return deg, nil
}

// checkCycleOrder requires inlet, cutoff, release and compression to follow
// each other going forward around the circle.
func checkCycleOrder(points [4]float64, dir Direction) *ValidationError {
	prev := 0.0
	for i := 1; i < len(points); i++ {
		d := AddAngles(points[i], -points[EventInlet])
		if d <= prev {
			return &ValidationError{
				Field: "lands",
				Message: fmt.Sprintf("%s %s at %.4f° does not follow %s at %.4f°",
					dir, Event(i), points[i], Event(i-1), points[i-1]),
				Code: ErrCodeEventOrder,
			}
		}
		prev = d
	}
	return nil
}

// crankToValve returns the valve offset from neutral, positive toward the head
// end, for a crank angle in degrees.
func crankToValve(p Parameters, deg float64) float64 {
	eccentric := AddAngles(deg, p.EccentricAdvance)
	return p.ValveTravel/2 - CrankToStroke(eccentric, p.ValveTravel, p.ValveConRod)
}

// valveToCrank inverts crankToValve on the given eccentric branch and
// projects the eccentric angle back onto the crankshaft.
func valveToCrank(p Parameters, offset float64, branch Direction) (float64, bool) {
	rad, ok := strokeToCrankRad(p.ValveTravel/2-offset, p.ValveTravel, p.ValveConRod)
	if branch == Return {
		rad = 2*math.Pi - rad
	}
	return AddAngles(Degrees(rad), -p.EccentricAdvance), ok
}
