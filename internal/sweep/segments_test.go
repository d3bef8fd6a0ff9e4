package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/testutil"
)

// One refinement step of the boundary search.
const arcsecond = 1.0 / 3600.0

func TestSegments_ForwardTurn(t *testing.T) {
	eng := testutil.NewEngine(t, nil)

	segs, err := Segments(eng, 0, 360, engine.Forward)
	require.NoError(t, err)
	require.Len(t, segs, 5)

	want := []struct {
		phase      engine.Phase
		start, end float64
	}{
		{engine.Compression, 0, 0.7350245552185584},
		{engine.Intake, 0.7350245552185584, 119.26497544478144},
		{engine.Expansion, 119.26497544478144, 151.98754727763037},
		{engine.Exhaust, 151.98754727763037, 328.01245272236963},
		{engine.Compression, 328.01245272236963, 360},
	}
	for i, w := range want {
		assert.Equal(t, w.phase, segs[i].Phase, "segment %d", i)
		assert.InDelta(t, w.start, segs[i].Start, arcsecond, "segment %d start", i)
		assert.InDelta(t, w.end, segs[i].End, arcsecond, "segment %d end", i)
		assert.Equal(t, engine.Forward, segs[i].Direction)
	}
}

func TestSegments_ReturnTurn(t *testing.T) {
	eng := testutil.NewEngine(t, nil)

	segs, err := Segments(eng, 0, 360, engine.Return)
	require.NoError(t, err)
	require.Len(t, segs, 5)

	phases := make([]engine.Phase, len(segs))
	for i, s := range segs {
		phases[i] = s.Phase
	}
	assert.Equal(t, []engine.Phase{
		engine.Exhaust, engine.Compression, engine.Intake, engine.Expansion, engine.Exhaust,
	}, phases)
	assert.InDelta(t, 142.9094107770906, segs[0].End, arcsecond)
	assert.InDelta(t, 183.25586211165023, segs[1].End, arcsecond)
	assert.InDelta(t, 296.74413788834977, segs[2].End, arcsecond)
	assert.InDelta(t, 337.0905892229094, segs[3].End, arcsecond)
}

func TestSegments_Contiguous(t *testing.T) {
	eng := testutil.NewEngine(t, nil)

	for _, dir := range engine.Directions {
		segs, err := Segments(eng, -180, 440, dir)
		require.NoError(t, err)
		require.NotEmpty(t, segs)

		assert.Equal(t, -180.0, segs[0].Start)
		assert.Equal(t, 440.0, segs[len(segs)-1].End)
		var total float64
		for i, s := range segs {
			assert.Greater(t, s.Span(), 0.0, "%s segment %d", dir, i)
			total += s.Span()
			if i > 0 {
				assert.Equal(t, segs[i-1].End, s.Start, "%s segment %d", dir, i)
				assert.Equal(t, segs[i-1].Phase.Next(), s.Phase, "%s segment %d", dir, i)
			}
			// Every arc is in the phase it claims throughout.
			mid := s.Start + s.Span()/2
			assert.Equal(t, s.Phase, eng.Phase(mid, dir), "%s segment %d midpoint", dir, i)
		}
		assert.InDelta(t, 620, total, 1e-9)
	}
}

func TestSegments_EmptyRange(t *testing.T) {
	eng := testutil.NewEngine(t, nil)
	segs, err := Segments(eng, 90, 90, engine.Forward)
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestSegments_InvalidRange(t *testing.T) {
	eng := testutil.NewEngine(t, nil)
	_, err := Segments(eng, 90, 0, engine.Forward)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCycle_BothEnds(t *testing.T) {
	eng := testutil.NewEngine(t, nil)

	cycle, err := Cycle(eng, 0, 360)
	require.NoError(t, err)
	assert.Len(t, cycle, 2)
	assert.Len(t, cycle[engine.Forward], 5)
	assert.Len(t, cycle[engine.Return], 5)
}
