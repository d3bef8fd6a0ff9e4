package sweep

import (
	"fmt"
	"math"

	"github.com/roach88/slidevalve/internal/engine"
)

// Segment is an arc of crank angle over which one cylinder end stays in a
// single phase. Start is inclusive, End exclusive.
type Segment struct {
	Direction engine.Direction `json:"direction"`
	Phase     engine.Phase     `json:"phase"`
	Start     float64          `json:"start"`
	End       float64          `json:"end"`
}

// Span returns the arc length in degrees.
func (s Segment) Span() float64 {
	return s.End - s.Start
}

// Segments partitions [from, to) into phase arcs for one cylinder end by
// walking NextBoundary. The first and last arcs are clipped to the range. An
// *engine.InternalError from the boundary search is returned unchanged.
func Segments(eng *engine.Engine, from, to float64, dir engine.Direction) ([]Segment, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	snap := eng.Snapshot()
	// Four boundaries per turn, plus slack for the clipped ends.
	limit := 4*int(math.Ceil((to-from)/engine.FullTurn)) + 8

	var segs []Segment
	cur := from
	for cur < to {
		if len(segs) >= limit {
			return nil, fmt.Errorf("segments: more than %d arcs in [%g, %g)", limit, from, to)
		}
		ph := snap.Phase(cur, dir)
		next, err := snap.NextBoundary(cur, dir)
		if err != nil {
			return nil, err
		}
		segs = append(segs, Segment{
			Direction: dir,
			Phase:     ph,
			Start:     cur,
			End:       math.Min(next, to),
		})
		cur = next
	}
	return segs, nil
}

// Cycle returns the segments of both cylinder ends over [from, to).
func Cycle(eng *engine.Engine, from, to float64) (map[engine.Direction][]Segment, error) {
	snap := eng.Snapshot()
	out := make(map[engine.Direction][]Segment, len(engine.Directions))
	for _, dir := range engine.Directions {
		segs, err := Segments(snap, from, to, dir)
		if err != nil {
			return nil, err
		}
		out[dir] = segs
	}
	return out, nil
}
