package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/config"
	"github.com/roach88/slidevalve/internal/engine"
)

// ValidationIssue is one problem found in a parameter file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool              `json:"valid"`
	ParametersID string            `json:"parameters_id,omitempty"`
	Errors       []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a parameter file",
		Long: `Check a .cue or .yaml parameter file without computing anything else.

The file is checked against the parameter schema, then the engine geometry
is validated and the critical points derived. Every problem found is
reported, not just the first.

Examples:
  slidevalve validate engines/mill.cue
  slidevalve validate engines/mill.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	params, err := config.LoadFile(path)
	if err != nil {
		var le *config.LoadError
		if !errors.As(err, &le) {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		if le.Code == config.ErrCodeNotFound || le.Code == config.ErrCodeFormat {
			return outputValidateError(formatter, le.Code, le.Message, nil)
		}
		return outputValidationErrors(formatter, []ValidationIssue{{
			Code:    le.Code,
			Message: le.Message,
			Line:    lineOf(le),
		}})
	}
	formatter.VerboseLog("Loaded %s", path)

	if _, err := engine.New(params, engine.WithLogger(opts.logger(cmd))); err != nil {
		var pe *engine.ParametersError
		if !errors.As(err, &pe) {
			return outputValidateError(formatter, errorCode(err), err.Error(), nil)
		}
		issues := make([]ValidationIssue, len(pe.Errors))
		for i, ve := range pe.Errors {
			issues[i] = ValidationIssue{Code: ve.Code, Field: ve.Field, Message: ve.Message}
		}
		return outputValidationErrors(formatter, issues)
	}

	id, err := canon.ParametersID(params)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	return outputValidateSuccess(formatter, path, id)
}

// lineOf extracts the line number of a positioned load error.
func lineOf(le *config.LoadError) int {
	if le.Pos.IsValid() {
		return le.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path, id string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, ParametersID: id})
	}

	fmt.Fprintf(formatter.Writer, "✓ %s valid\n", path)
	fmt.Fprintf(formatter.Writer, "Parameters %s\n", id)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationIssue) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		if err.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
