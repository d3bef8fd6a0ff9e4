package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/config"
	"github.com/roach88/slidevalve/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // engine parameter file; empty uses the defaults
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slidevalve CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slidevalve",
		Short: "Slide valve steam engine timing",
		Long: `Compute the valve events and cycle phases of a double-acting slide valve
steam engine from its mechanical dimensions.

Parameters come from the built-in reference engine unless --config names a
.cue or .yaml parameter file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "engine parameter file (.cue or .yaml)")

	// Add subcommands
	cmd.AddCommand(NewPointsCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewPlotCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on stderr: Debug when verbose, Warn otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadEngine builds the engine selected by --config.
func (o *RootOptions) loadEngine(cmd *cobra.Command) (*engine.Engine, error) {
	logger := o.logger(cmd)
	if o.Config == "" {
		return engine.NewDefault(engine.WithLogger(logger)), nil
	}

	params, err := config.LoadFile(o.Config)
	if err != nil {
		return nil, err
	}
	logger.Debug("parameters loaded", "path", o.Config)
	return engine.New(params, engine.WithLogger(logger))
}

// engineOrFail loads the engine and reports a failure through f. Rejected
// parameters are a validation failure; anything else is a command error.
func (o *RootOptions) engineOrFail(cmd *cobra.Command, f *OutputFormatter) (*engine.Engine, error) {
	eng, err := o.loadEngine(cmd)
	if err == nil {
		return eng, nil
	}
	if engine.IsValidationError(err) {
		return nil, f.Fail(ExitFailure, "parameters rejected", err)
	}
	return nil, f.Fail(ExitCommandError, "cannot load parameters", err)
}
