package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/slidevalve/internal/chart"
	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Output string // PNG file
	ASCII  bool   // terminal chart instead of PNG
	From   float64
	To     float64
	Step   float64
	Series string // "displacement" | "valve"
	Width  int    // ASCII columns, or PNG width in points
	Height int    // ASCII rows, or PNG height in points
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the cycle diagram",
		Long: `Draw the piston path of both cylinder ends coloured by cycle phase:
intake dark green, expansion light green, exhaust light blue and
compression red. The return stroke is dashed.

--out writes a PNG. --ascii prints a terminal chart of one series with a
phase strip per cylinder end (I intake, E expansion, X exhaust,
C compression).

Examples:
  slidevalve plot --out cycle.png
  slidevalve plot --out cycle.png --from 0 --to 360
  slidevalve plot --ascii --series valve --width 72`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(opts, cmd)
		},
	}

	defaults := chart.DefaultOptions()
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write the diagram to this PNG file")
	cmd.Flags().BoolVar(&opts.ASCII, "ascii", false, "print a terminal chart")
	cmd.Flags().Float64Var(&opts.From, "from", defaults.From, "first crank angle in degrees")
	cmd.Flags().Float64Var(&opts.To, "to", defaults.To, "last crank angle in degrees")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "sampling interval in degrees (default 1 for PNG, 5 for ASCII)")
	cmd.Flags().StringVar(&opts.Series, "series", "displacement", "ASCII series (displacement|valve)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "ASCII columns or PNG width in points (default 72 columns, 8in)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "ASCII rows or PNG height in points (default 12 rows, 4in)")

	return cmd
}

func runPlot(opts *PlotOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if (opts.Output == "") == !opts.ASCII {
		msg := "exactly one of --out or --ascii is required"
		_ = formatter.Error(ErrCodeArgument, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	series, err := parseSeries(opts.Series)
	if err != nil {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid series", err)
	}

	eng, err := opts.engineOrFail(cmd, formatter)
	if err != nil {
		return err
	}

	if opts.ASCII {
		return plotASCII(opts, eng, series, formatter)
	}
	return plotPNG(opts, eng, formatter)
}

func parseSeries(name string) (chart.Series, error) {
	switch name {
	case "displacement":
		return chart.SeriesDisplacement, nil
	case "valve":
		return chart.SeriesValveOffset, nil
	default:
		return 0, fmt.Errorf("unknown series %q: must be displacement or valve", name)
	}
}

func plotPNG(opts *PlotOptions, eng *engine.Engine, formatter *OutputFormatter) error {
	copts := chart.DefaultOptions()
	copts.From, copts.To = opts.From, opts.To
	if opts.Step > 0 {
		copts.Step = opts.Step
	}
	if opts.Width > 0 {
		copts.Width = vg.Length(opts.Width)
	}
	if opts.Height > 0 {
		copts.Height = vg.Length(opts.Height)
	}

	if err := chart.SavePNG(eng, copts, opts.Output); err != nil {
		_ = formatter.Error(ErrCodeOutput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write chart", err)
	}
	formatter.VerboseLog("Plotted %g..%g every %g degrees", copts.From, copts.To, copts.Step)

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"output": opts.Output})
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote %s\n", opts.Output)
	return nil
}

func plotASCII(opts *PlotOptions, eng *engine.Engine, series chart.Series, formatter *OutputFormatter) error {
	step, width, height := opts.Step, opts.Width, opts.Height
	if step <= 0 {
		step = 5
	}
	if width <= 0 {
		width = 72
	}
	if height <= 0 {
		height = 12
	}

	samples, err := sweep.Sweep(eng, opts.From, opts.To, step)
	if err != nil {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid sweep range", err)
	}

	graph := chart.ASCII(samples, series, width, height)
	strips := make(map[string]string, len(engine.Directions))
	for _, dir := range engine.Directions {
		strips[dir.String()] = chart.PhaseStrip(samples, dir, width)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"series": series.String(),
			"chart":  graph,
			"phases": strips,
		})
	}

	w := formatter.Writer
	fmt.Fprintln(w, graph)
	fmt.Fprintln(w)
	for _, dir := range engine.Directions {
		fmt.Fprintf(w, "%-8s %s\n", title(dir), strips[dir.String()])
	}
	return nil
}
