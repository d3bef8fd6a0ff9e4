package engine

import (
	"fmt"
	"math"
)

// FullTurn is one crankshaft revolution in degrees.
const FullTurn = 360.0

// acosSlack tolerates rounding just outside [-1,1] in the cosine-law argument.
const acosSlack = 1e-12

// Direction selects the stroke half. Forward is the head-end (top) stroke from
// TDC toward BDC, Return is the crank-end (bottom) stroke back to TDC.
type Direction int

const (
	Forward Direction = iota
	Return
)

// String returns "forward" or "return".
func (d Direction) String() string {
	if d == Return {
		return "return"
	}
	return "forward"
}

// Directions lists both stroke directions in evaluation order.
var Directions = [2]Direction{Forward, Return}

// ParseDirection accepts "forward" or "return".
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "forward":
		return Forward, nil
	case "return":
		return Return, nil
	}
	return Forward, fmt.Errorf("unknown direction %q", name)
}

// MarshalText encodes d by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// AddAngles adds two angles in degrees and reduces the sum into [0,360).
func AddAngles(a, b float64) float64 {
	s := math.Mod(a+b, FullTurn)
	if s < 0 {
		s += FullTurn
	}
	// -tiny + 360 rounds to exactly 360
	if s >= FullTurn {
		s = 0
	}
	return s
}

// CrankToStroke returns the piston displacement from TDC for a crank angle in
// degrees, given the stroke and the pin-to-pin connecting rod length.
func CrankToStroke(deg, stroke, rod float64) float64 {
	return crankRadToStroke(Radians(deg), stroke, rod)
}

func crankRadToStroke(rad, stroke, rod float64) float64 {
	r := stroke / 2.0
	rs := r * math.Sin(rad)
	x := r*math.Cos(rad) + math.Sqrt(rod*rod-rs*rs)
	return rod + r - x
}

// StrokeToCrank returns the crank angle in degrees whose displacement from TDC
// is pos. The forward solution lies in [0,180]; Return reflects it to 360-a.
// Positions at or beyond either end of the stroke clamp to TDC or BDC.
func StrokeToCrank(pos, stroke, rod float64, dir Direction) float64 {
	rad, _ := strokeToCrankRad(pos, stroke, rod)
	if dir == Return {
		rad = 2*math.Pi - rad
	}
	return AddAngles(Degrees(rad), 0)
}

// strokeToCrankRad solves the wrist pin / crank pin / crank center triangle by
// the law of cosines. ok is false when the cosine argument falls outside the
// inverse-trig domain; the returned angle is then clamped.
func strokeToCrankRad(pos, stroke, rod float64) (rad float64, ok bool) {
	if pos <= 0 {
		return 0, true
	}
	if pos >= stroke {
		return math.Pi, true
	}

	r := stroke / 2.0
	b := rod + r - pos // crank center to wrist pin
	c := (b*b + r*r - rod*rod) / (2 * r * b)
	if math.IsNaN(c) || c > 1+acosSlack || c < -1-acosSlack {
		return math.Acos(math.Max(-1, math.Min(1, c))), false
	}
	return math.Acos(math.Max(-1, math.Min(1, c))), true
}
