package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
)

// EventReport describes one critical point.
type EventReport struct {
	Event          string  `json:"event"`
	Angle          float64 `json:"angle"`
	StrokeFraction float64 `json:"stroke_fraction"`
	ValveOffset    float64 `json:"valve_offset"`
}

// EndReport holds the valve events of one cylinder end.
type EndReport struct {
	Direction      string        `json:"direction"`
	SteamLap       float64       `json:"steam_lap"`
	ExhaustLap     float64       `json:"exhaust_lap"`
	CutoffFraction float64       `json:"cutoff_fraction"`
	Events         []EventReport `json:"events"`
}

// PointsResult is the output of the points command.
type PointsResult struct {
	ParametersID string      `json:"parameters_id"`
	Ends         []EndReport `json:"ends"`
}

// NewPointsCommand creates the points command.
func NewPointsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "Show the critical points of both cylinder ends",
		Long: `Show the crank angles at which steam is admitted and cut off and at which
the exhaust opens and closes, for the forward and return strokes.

Each event is reported with the share of the stroke the piston has covered
and the valve offset at that moment.

Examples:
  slidevalve points
  slidevalve points --config engines/mill.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoints(rootOpts, cmd)
		},
	}
}

func runPoints(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	eng, err := opts.engineOrFail(cmd, formatter)
	if err != nil {
		return err
	}

	result, err := buildPointsResult(eng)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot fingerprint parameters", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputPointsText(formatter.Writer, result)
	return nil
}

func buildPointsResult(eng *engine.Engine) (PointsResult, error) {
	params, points := eng.State()
	id, err := canon.ParametersID(params)
	if err != nil {
		return PointsResult{}, err
	}

	laps := params.Laps()
	result := PointsResult{ParametersID: id}
	for _, dir := range engine.Directions {
		end := EndReport{
			Direction:  dir.String(),
			SteamLap:   laps.TopSteam,
			ExhaustLap: laps.TopExhaust,
		}
		if dir == engine.Return {
			end.SteamLap, end.ExhaustLap = laps.BottomSteam, laps.BottomExhaust
		}

		pts := points.For(dir)
		for _, ev := range engine.Events {
			end.Events = append(end.Events, EventReport{
				Event:          ev.String(),
				Angle:          pts[ev],
				StrokeFraction: travelFraction(eng, dir, pts[ev]),
				ValveOffset:    eng.CrankToValve(pts[ev]),
			})
		}
		end.CutoffFraction = end.Events[engine.EventCutoff].StrokeFraction
		result.Ends = append(result.Ends, end)
	}
	return result, nil
}

// travelFraction is the share of its own stroke the piston has covered at
// deg. The forward stroke runs from TDC, the return stroke from BDC.
func travelFraction(eng *engine.Engine, dir engine.Direction, deg float64) float64 {
	frac := eng.StrokeFraction(deg)
	if dir == engine.Return {
		return 1 - frac
	}
	return frac
}

func outputPointsText(w io.Writer, result PointsResult) {
	fmt.Fprintf(w, "Parameters %s\n", result.ParametersID[:12])

	for _, end := range result.Ends {
		dir, _ := engine.ParseDirection(end.Direction)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s stroke (steam lap %.4f, exhaust lap %.4f)\n", title(dir), end.SteamLap, end.ExhaustLap)
		for i, ev := range end.Events {
			fmt.Fprintf(w, "  %-12s %8.3f°  %5.1f%%  valve %+.4f\n",
				title(engine.Events[i]), ev.Angle, ev.StrokeFraction*100, ev.ValveOffset)
		}
		fmt.Fprintf(w, "  Cutoff at %.1f%% of stroke\n", end.CutoffFraction*100)
	}
}
