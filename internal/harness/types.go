package harness

import "github.com/roach88/slidevalve/internal/engine"

// CheckResult records what the engine reported at one probed angle.
type CheckResult struct {
	Angle        float64      `json:"angle"`
	Forward      engine.Phase `json:"forward"`
	Return       engine.Phase `json:"return"`
	Displacement float64      `json:"displacement"`
	ValveOffset  float64      `json:"valve_offset"`
	Pass         bool         `json:"pass"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every check and assertion held.
	Pass bool `json:"pass"`

	// Scenario is the name of the scenario that produced this result.
	Scenario string `json:"scenario"`

	// ParametersID is the content-addressed identity of the resolved
	// parameters, set even when the engine rejected them.
	ParametersID string `json:"parameters_id"`

	// Points holds the derived critical points. Nil when rejected.
	Points *engine.CriticalPoints `json:"points,omitempty"`

	// Rejected lists the validation codes reported when the engine refused
	// the parameters.
	Rejected []string `json:"rejected,omitempty"`

	// Checks records the engine's answers at every probed angle.
	Checks []CheckResult `json:"checks"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Checks:   []CheckResult{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
