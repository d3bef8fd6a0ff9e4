package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhase_Forward(t *testing.T) {
	e := NewDefault()

	tests := []struct {
		deg  float64
		want Phase
	}{
		{0, Compression}, // compression carries over TDC until admission
		{0.5, Compression},
		{1, Intake},
		{50, Intake},
		{130, Expansion},
		{160, Exhaust},
		{200, Exhaust},
		{330, Compression},
		{359.99, Compression},
		{-30, Compression},
		{410, Intake},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Phase(tt.deg, Forward), "deg=%g", tt.deg)
	}
}

func TestPhase_Return(t *testing.T) {
	e := NewDefault()

	tests := []struct {
		deg  float64
		want Phase
	}{
		{0, Exhaust},
		{100, Exhaust},
		{150, Compression},
		{200, Intake},
		{300, Expansion},
		{340, Exhaust},
		{-20, Exhaust},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Phase(tt.deg, Return), "deg=%g", tt.deg)
	}
}

func TestPhase_BoundaryBelongsToStartingPhase(t *testing.T) {
	e := NewDefault()

	for _, dir := range Directions {
		for i, cp := range e.Points(dir) {
			assert.Equal(t, Phase(i), e.Phase(cp, dir), "%s %s", dir, Event(i))
		}
	}
}

func TestPhase_WrapInvariant(t *testing.T) {
	e := NewDefault()

	for deg := -1000.0; deg <= 1000; deg += 0.37 {
		for _, dir := range Directions {
			assert.Equal(t, e.Phase(AddAngles(deg, 0), dir), e.Phase(deg, dir), "deg=%g %s", deg, dir)
		}
	}
}

func TestPhase_PartitionsCircle(t *testing.T) {
	e := NewDefault()

	for _, dir := range Directions {
		transitions := 0
		seen := map[Phase]bool{}
		prev := e.Phase(0, dir)
		for deg := 0.05; deg < 360; deg += 0.05 {
			cur := e.Phase(deg, dir)
			seen[cur] = true
			if cur != prev {
				assert.Equal(t, prev.Next(), cur, "%s transition at %g skips a phase", dir, deg)
				transitions++
			}
			prev = cur
		}
		if e.Phase(0, dir) != prev {
			transitions++
		}
		assert.Equal(t, 4, transitions, dir.String())
		assert.Len(t, seen, 4, dir.String())
	}
}

func TestClassify_AllAheadPicksLargest(t *testing.T) {
	points := [4]float64{100, 200, 300, 50}
	assert.Equal(t, Exhaust, classify(points, 20))
	assert.Equal(t, Compression, classify(points, 60))
	assert.Equal(t, Exhaust, classify(points, 320))
}

func TestNextBoundary_KnownValues(t *testing.T) {
	e := NewDefault()
	fwd := e.Points(Forward)

	tests := []struct {
		deg  float64
		want float64
	}{
		{0, fwd[EventInlet]},
		{50, fwd[EventCutoff]},
		{fwd[EventCutoff], fwd[EventRelease]},
		{330, 360 + fwd[EventInlet]},
		{-10, fwd[EventInlet]},
		{770, 720 + fwd[EventCutoff]},
	}
	for _, tt := range tests {
		got, err := e.NextBoundary(tt.deg, Forward)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, boundaryStep, "deg=%g", tt.deg)
	}
}

func TestNextBoundary_Properties(t *testing.T) {
	e := NewDefault()

	for _, dir := range Directions {
		points := e.Points(dir)
		for deg := -400.0; deg <= 400; deg += 3.7 {
			cur := e.Phase(deg, dir)
			nb, err := e.NextBoundary(deg, dir)
			require.NoError(t, err, "deg=%g %s", deg, dir)

			assert.Greater(t, nb, deg)
			assert.LessOrEqual(t, nb-deg, 360.0+boundaryStep)
			assert.Equal(t, cur.Next(), e.Phase(nb, dir), "deg=%g %s", deg, dir)
			assert.NotEqual(t, cur, e.Phase(nb, dir))

			want := points[cur.Next().StartEvent()]
			gap := math.Abs(AddAngles(nb, -want))
			if gap > 180 {
				gap = 360 - gap
			}
			assert.LessOrEqual(t, gap, boundaryStep+1e-9, "deg=%g %s", deg, dir)
		}
	}
}

func TestNextBoundary_FromEachBoundary(t *testing.T) {
	e := NewDefault()

	for _, dir := range Directions {
		deg := 0.0
		var phases []Phase
		for i := 0; i < 8; i++ {
			nb, err := e.NextBoundary(deg, dir)
			require.NoError(t, err)
			require.Greater(t, nb, deg)
			phases = append(phases, e.Phase(nb, dir))
			deg = nb
		}
		for i := 1; i < len(phases); i++ {
			assert.Equal(t, phases[i-1].Next(), phases[i], dir.String())
		}
		assert.Greater(t, deg, 720.0-360.0)
	}
}

func TestNextBoundary_InconsistentPoints(t *testing.T) {
	// Duplicate inlet and release points make the probe for exhaust land
	// on intake.
	_, err := nextBoundary([4]float64{10, 20, 10, 40}, 25, Forward)
	require.Error(t, err)
	assert.True(t, IsInternalError(err))
	assert.True(t, errors.Is(err, ErrInternal))

	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, ErrCodeInconsistentPhase, ie.Code)
	assert.Equal(t, "forward", ie.Details["direction"])
}

func TestNextBoundary_RefinementExhausted(t *testing.T) {
	_, err := nextBoundary([4]float64{10, 10, 30, 40}, 20, Return)
	require.Error(t, err)

	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, ErrCodeBoundaryNotFound, ie.Code)
}

func TestPhase_StringAndParse(t *testing.T) {
	for _, ph := range Phases {
		parsed, err := ParsePhase(ph.String())
		require.NoError(t, err)
		assert.Equal(t, ph, parsed)
	}
	_, err := ParsePhase("admission")
	assert.Error(t, err)
	assert.Equal(t, Intake, Compression.Next())
	assert.Equal(t, "phase(7)", Phase(7).String())
}

func TestPhase_TextRoundTrip(t *testing.T) {
	for _, ph := range Phases {
		text, err := ph.MarshalText()
		require.NoError(t, err)

		var got Phase
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, ph, got)
	}

	_, err := Phase(9).MarshalText()
	assert.Error(t, err)

	var ph Phase
	assert.Error(t, ph.UnmarshalText([]byte("admission")))
}
