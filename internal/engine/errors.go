package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrInvalidParameters is wrapped by every parameter validation failure.
	ErrInvalidParameters = errors.New("engine: invalid parameters")

	// ErrInternal is wrapped by unrecoverable consistency failures.
	ErrInternal = errors.New("engine: internal consistency failure")
)

// Validation error codes (E200-E299)
const (
	ErrCodeNonFinite        = "E201" // NaN or Inf parameter
	ErrCodeNonPositive      = "E202" // length must be positive
	ErrCodeRodTooShort      = "E203" // connecting rod not longer than stroke
	ErrCodeValveRodTooShort = "E204" // valve rod not longer than valve travel
	ErrCodePortReversed     = "E205" // port edges out of order
	ErrCodeBridgeWidth      = "E206" // bridge between ports has no width
	ErrCodeLandReversed     = "E207" // valve land edges out of order

	ErrCodeUnreachableEvent = "E210" // valve travel never reaches the event offset
	ErrCodeEventOrder       = "E211" // critical points out of cycle order
	ErrCodeDomain           = "E212" // inverse trig produced NaN
)

// ValidationError describes a single violated parameter constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ParametersError aggregates every violation found in one parameter set.
type ParametersError struct {
	Errors []ValidationError
}

func (e *ParametersError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid parameters: %s", e.Errors[0].Error())
	}
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid parameters (%d errors): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap lets errors.Is match ErrInvalidParameters.
func (e *ParametersError) Unwrap() error {
	return ErrInvalidParameters
}

// Codes returns the error codes in the order they were found.
func (e *ParametersError) Codes() []string {
	codes := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		codes[i] = ve.Code
	}
	return codes
}

// HasCode reports whether any violation carries the given code.
func (e *ParametersError) HasCode(code string) bool {
	for _, ve := range e.Errors {
		if ve.Code == code {
			return true
		}
	}
	return false
}

// FallbackError reports that NewOrDefault substituted DefaultParameters
// because the requested set was rejected.
type FallbackError struct {
	Rejected Parameters
	Err      error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("using default parameters: %v", e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// InternalErrorCode categorizes internal consistency failures.
type InternalErrorCode string

const (
	// ErrCodeInconsistentPhase means a boundary probe landed in a phase that
	// is neither the current nor the expected next phase.
	ErrCodeInconsistentPhase InternalErrorCode = "INCONSISTENT_PHASE"

	// ErrCodeBoundaryNotFound means refinement ran out of steps.
	ErrCodeBoundaryNotFound InternalErrorCode = "BOUNDARY_NOT_FOUND"
)

// InternalError is fatal. It indicates corrupted critical points or a
// disagreement between classification and the boundary search, and callers
// must not continue with the returned angle.
type InternalError struct {
	Code    InternalErrorCode
	Message string
	Details map[string]string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is match ErrInternal.
func (e *InternalError) Unwrap() error {
	return ErrInternal
}

// IsValidationError returns true if err is or wraps a ParametersError.
func IsValidationError(err error) bool {
	var pe *ParametersError
	return errors.As(err, &pe)
}

// IsInternalError returns true if err is or wraps an InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

func newInconsistentPhaseError(deg float64, dir Direction, from, want, got Phase) *InternalError {
	return &InternalError{
		Code:    ErrCodeInconsistentPhase,
		Message: fmt.Sprintf("boundary probe from %s expected %s but found %s", from, want, got),
		Details: map[string]string{
			"angle":     fmt.Sprintf("%g", deg),
			"direction": dir.String(),
		},
	}
}
