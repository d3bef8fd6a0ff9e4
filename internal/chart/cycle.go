package chart

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// PhaseColors maps each phase to its diagram colour.
var PhaseColors = map[engine.Phase]color.RGBA{
	engine.Intake:      {R: 0, G: 100, B: 0, A: 255},
	engine.Expansion:   {R: 144, G: 238, B: 144, A: 255},
	engine.Exhaust:     {R: 173, G: 216, B: 230, A: 255},
	engine.Compression: {R: 220, G: 20, B: 60, A: 255},
}

// Options controls a cycle diagram.
type Options struct {
	From, To   float64 // crank angle range, degrees
	Step       float64 // sampling interval along each arc, degrees
	Directions []engine.Direction
	Title      string
	Width      vg.Length
	Height     vg.Length
	DPI        int
}

// DefaultOptions returns the standard diagram: both cylinder ends from -180
// to 440 degrees.
func DefaultOptions() Options {
	return Options{
		From:       -180,
		To:         440,
		Step:       1,
		Directions: engine.Directions[:],
		Title:      "Slide valve cycle",
		Width:      8 * vg.Inch,
		Height:     4 * vg.Inch,
		DPI:        96,
	}
}

// endVolume is the swept volume of one cylinder end as a displacement: the
// head end grows with the piston, the crank end shrinks.
func endVolume(eng *engine.Engine, dir engine.Direction, deg float64) float64 {
	x := eng.CrankToStroke(deg)
	if dir == engine.Return {
		return eng.Parameters().Stroke - x
	}
	return x
}

// CycleDiagram builds the diagram for eng. Each phase arc becomes one line
// segment in its phase colour.
func CycleDiagram(eng *engine.Engine, opts Options) (*plot.Plot, error) {
	if opts.Step <= 0 || math.IsNaN(opts.Step) {
		return nil, fmt.Errorf("chart: step %g must be positive", opts.Step)
	}
	snap := eng.Snapshot()

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "crank angle (deg)"
	p.Y.Label.Text = "swept length"
	p.X.Min, p.X.Max = opts.From, opts.To
	p.Y.Min, p.Y.Max = 0, snap.Parameters().Stroke
	p.Legend.Top = true

	legend := make(map[engine.Phase]bool)
	for _, dir := range opts.Directions {
		segs, err := sweep.Segments(snap, opts.From, opts.To, dir)
		if err != nil {
			return nil, fmt.Errorf("chart: %s segments: %w", dir, err)
		}
		for _, seg := range segs {
			line, err := plotter.NewLine(arcPoints(snap, dir, seg, opts.Step))
			if err != nil {
				return nil, fmt.Errorf("chart: %w", err)
			}
			line.LineStyle.Width = vg.Points(3)
			line.LineStyle.Color = PhaseColors[seg.Phase]
			if dir == engine.Return {
				line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			}
			p.Add(line)
			if !legend[seg.Phase] {
				legend[seg.Phase] = true
				p.Legend.Add(seg.Phase.String(), line)
			}
		}
	}
	return p, nil
}

// arcPoints samples one segment, always including both ends.
func arcPoints(eng *engine.Engine, dir engine.Direction, seg sweep.Segment, step float64) plotter.XYs {
	n := int(math.Ceil(seg.Span()/step)) + 1
	if n < 2 {
		n = 2
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		deg := seg.Start + seg.Span()*float64(i)/float64(n-1)
		pts[i].X = deg
		pts[i].Y = endVolume(eng, dir, deg)
	}
	return pts
}

// WritePNG renders p as a PNG image.
func WritePNG(w io.Writer, p *plot.Plot, opts Options) error {
	c := vgimg.NewWith(
		vgimg.UseWH(opts.Width, opts.Height),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SavePNG writes the cycle diagram of eng to filename, creating parent
// directories as needed.
func SavePNG(eng *engine.Engine, opts Options, filename string) error {
	p, err := CycleDiagram(eng, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	if err := WritePNG(f, p, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
