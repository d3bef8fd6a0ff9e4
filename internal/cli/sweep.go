package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/store"
	"github.com/roach88/slidevalve/internal/sweep"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	From     float64
	To       float64
	Step     float64
	Database string // optional - record the sweep as a run
}

// SweepResult is the output of the sweep command.
type SweepResult struct {
	RunID        string         `json:"run_id,omitempty"`
	ParametersID string         `json:"parameters_id"`
	Samples      []sweep.Sample `json:"samples"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Tabulate piston, valve and phases over a range of crank angles",
		Long: `Sample the engine at regular crank angle intervals.

With --db the sweep is also recorded as a run in a SQLite database, which
the runs command can list and show later.

Examples:
  slidevalve sweep
  slidevalve sweep --from -180 --to 440 --step 5
  slidevalve sweep --db ./sweeps.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.From, "from", 0, "first crank angle in degrees")
	cmd.Flags().Float64Var(&opts.To, "to", 360, "last crank angle in degrees")
	cmd.Flags().Float64Var(&opts.Step, "step", 10, "interval between samples in degrees")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the sweep in this SQLite database")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := sweep.Count(opts.From, opts.To, opts.Step); err != nil {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid sweep range", err)
	}

	eng, err := opts.engineOrFail(cmd, formatter)
	if err != nil {
		return err
	}

	var result SweepResult
	if opts.Database == "" {
		samples, err := sweep.Sweep(eng, opts.From, opts.To, opts.Step)
		if err != nil {
			return formatter.Fail(ExitCommandError, "sweep failed", err)
		}
		id, err := canon.ParametersID(eng.Parameters())
		if err != nil {
			return formatter.Fail(ExitCommandError, "cannot fingerprint parameters", err)
		}
		result = SweepResult{ParametersID: id, Samples: samples}
	} else {
		run, err := recordSweep(cmd.Context(), opts, eng, cmd)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record sweep", err)
		}
		result = SweepResult{RunID: run.ID, ParametersID: run.ParametersID, Samples: run.Samples}
		formatter.VerboseLog("Recorded run %s in %s", run.ID, opts.Database)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	outputSamplesText(w, result.Samples)
	if result.RunID != "" {
		fmt.Fprintf(w, "\nRecorded run %s (%d samples)\n", result.RunID, len(result.Samples))
	}
	return nil
}

func recordSweep(ctx context.Context, opts *SweepOptions, eng *engine.Engine, cmd *cobra.Command) (*sweep.Run, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.logger(cmd)))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	rec := sweep.NewRecorder(sweep.WithLogger(opts.logger(cmd)))
	run, err := rec.Record(eng, opts.From, opts.To, opts.Step)
	if err != nil {
		return nil, err
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to write run %s: %w", run.ID, err)
	}
	return run, nil
}

// outputSamplesText writes samples as an aligned table.
func outputSamplesText(w io.Writer, samples []sweep.Sample) {
	fmt.Fprintf(w, "%9s  %12s  %6s  %9s  %-12s %-12s\n",
		"angle", "displacement", "stroke", "valve", "forward", "return")
	for _, s := range samples {
		fmt.Fprintf(w, "%9.3f  %12.4f  %5.1f%%  %+9.4f  %-12s %-12s\n",
			s.Angle, s.Displacement, s.Fraction*100, s.ValveOffset, title(s.Forward), title(s.Return))
	}
}
