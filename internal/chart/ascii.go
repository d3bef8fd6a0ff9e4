package chart

import (
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// Series selects which sample field an ASCII chart plots.
type Series int

const (
	SeriesDisplacement Series = iota
	SeriesValveOffset
)

func (s Series) String() string {
	if s == SeriesValveOffset {
		return "valve offset"
	}
	return "displacement"
}

func (s Series) value(smp sweep.Sample) float64 {
	if s == SeriesValveOffset {
		return smp.ValveOffset
	}
	return smp.Displacement
}

// phaseGlyphs are the PhaseStrip characters, indexed by phase.
var phaseGlyphs = [4]byte{'I', 'E', 'X', 'C'}

// ASCII plots one series of samples for a terminal. width and height are in
// character cells; a width of zero plots one column per sample.
func ASCII(samples []sweep.Sample, series Series, width, height int) string {
	if len(samples) == 0 {
		return ""
	}
	data := make([]float64, len(samples))
	for i, smp := range samples {
		data[i] = series.value(smp)
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.Caption(series.String()),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(data, opts...)
}

// PhaseStrip renders the phase of one cylinder end as a row of letters:
// I intake, E expansion, X exhaust, C compression. The samples are resampled
// to width columns; a width of zero uses one column per sample.
func PhaseStrip(samples []sweep.Sample, dir engine.Direction, width int) string {
	n := len(samples)
	if n == 0 {
		return ""
	}
	if width <= 0 {
		width = n
	}

	var b strings.Builder
	b.Grow(width)
	for col := 0; col < width; col++ {
		idx := 0
		if width > 1 {
			idx = (col*(n-1) + (width-1)/2) / (width - 1)
		}
		ph := samples[idx].Forward
		if dir == engine.Return {
			ph = samples[idx].Return
		}
		b.WriteByte(phaseGlyphs[ph])
	}
	return b.String()
}
