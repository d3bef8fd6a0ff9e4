package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/sweep"
)

// EndState is the state of one cylinder end at the queried angle.
type EndState struct {
	Direction    string       `json:"direction"`
	Phase        engine.Phase `json:"phase"`
	NextPhase    engine.Phase `json:"next_phase"`
	NextBoundary float64      `json:"next_boundary"`
}

// QueryResult is the output of the query command.
type QueryResult struct {
	Angle          float64    `json:"angle"`
	Displacement   float64    `json:"displacement"`
	StrokeFraction float64    `json:"stroke_fraction"`
	ValveOffset    float64    `json:"valve_offset"`
	Ends           []EndState `json:"ends"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <angle>",
		Short: "Show piston, valve and phases at a crank angle",
		Long: `Show the piston displacement, valve offset and cycle phase of both
cylinder ends at a crank angle in degrees, with the angle at which each
end next changes phase.

Angles outside [0,360) are accepted; boundaries continue from the angle given.

Examples:
  slidevalve query 90
  slidevalve query -- -45
  slidevalve query 400 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	deg, err := parseAngle(arg)
	if err != nil {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid angle", err)
	}

	eng, err := opts.engineOrFail(cmd, formatter)
	if err != nil {
		return err
	}

	result, err := buildQueryResult(eng, deg)
	if err != nil {
		return formatter.Fail(ExitFailure, "engine consistency failure", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputQueryText(formatter.Writer, result)
	return nil
}

// parseAngle parses a finite angle in degrees.
func parseAngle(s string) (float64, error) {
	deg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("angle %q is not a number", s)
	}
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, fmt.Errorf("angle %q must be finite", s)
	}
	return deg, nil
}

func buildQueryResult(eng *engine.Engine, deg float64) (QueryResult, error) {
	smp := sweep.At(eng, deg)
	result := QueryResult{
		Angle:          smp.Angle,
		Displacement:   smp.Displacement,
		StrokeFraction: smp.Fraction,
		ValveOffset:    smp.ValveOffset,
	}

	for _, dir := range engine.Directions {
		next, err := eng.NextBoundary(deg, dir)
		if err != nil {
			return QueryResult{}, err
		}
		ph := smp.Forward
		if dir == engine.Return {
			ph = smp.Return
		}
		result.Ends = append(result.Ends, EndState{
			Direction:    dir.String(),
			Phase:        ph,
			NextPhase:    ph.Next(),
			NextBoundary: next,
		})
	}
	return result, nil
}

func outputQueryText(w io.Writer, result QueryResult) {
	fmt.Fprintf(w, "Crank %.3f°  displacement %.4f (%.1f%% of stroke)  valve %+.4f\n",
		result.Angle, result.Displacement, result.StrokeFraction*100, result.ValveOffset)
	for _, end := range result.Ends {
		dir, _ := engine.ParseDirection(end.Direction)
		fmt.Fprintf(w, "  %-8s %-12s next %s at %.3f°\n",
			title(dir), title(end.Phase), title(end.NextPhase), end.NextBoundary)
	}
}
