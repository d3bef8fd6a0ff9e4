package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/store"
	"github.com/roach88/slidevalve/internal/sweep"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database   string
	Parameters string // optional - filter to one parameter set
	Delete     bool
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List, show or delete recorded sweeps",
		Long: `Inspect sweeps recorded with sweep --db.

Without a run ID, lists every run oldest first. With a run ID, shows that
run's samples, or removes it when --delete is given.

Examples:
  slidevalve runs --db ./sweeps.db
  slidevalve runs --db ./sweeps.db --parameters 32ac3df6...
  slidevalve runs --db ./sweeps.db 0190a6c2-... --format json
  slidevalve runs --db ./sweeps.db 0190a6c2-... --delete`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runRuns(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Parameters, "parameters", "", "list only runs of this parameters ID")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "delete the given run")

	return cmd
}

func runRuns(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Delete && runID == "" {
		_ = formatter.Error(ErrCodeArgument, "--delete needs a run ID", nil)
		return NewExitError(ExitCommandError, "--delete needs a run ID")
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.logger(cmd)))
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Delete:
		return deleteRun(ctx, st, runID, formatter)
	case runID != "":
		return showRun(ctx, st, runID, formatter)
	default:
		return listRuns(ctx, st, opts.Parameters, formatter)
	}
}

func listRuns(ctx context.Context, st *store.Store, parametersID string, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, parametersID)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  params %s  %g..%g step %g  %d samples\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.ParametersID[:12], r.From, r.To, r.Step, r.SampleCount)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, runID string, formatter *OutputFormatter) error {
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}
	outputRunText(formatter.Writer, run)
	return nil
}

func outputRunText(w io.Writer, run *sweep.Run) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Recorded %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Parameters %s\n\n", run.ParametersID)
	outputSamplesText(w, run.Samples)
}

func deleteRun(ctx context.Context, st *store.Store, runID string, formatter *OutputFormatter) error {
	err := st.DeleteRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeArgument, err.Error(), nil)
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to delete run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": runID})
	}
	fmt.Fprintf(formatter.Writer, "Deleted run %s\n", runID)
	return nil
}
