package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/config"
	"github.com/roach88/slidevalve/internal/engine"
)

// Harness is the test execution engine.
type Harness struct {
	logger *slog.Logger
}

// New creates a Harness that logs to logger. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a test scenario with logging suppressed.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Each scenario gets its own engine, so results never depend on run order.
// The returned error reports a scenario that could not be executed at all,
// such as an unreadable parameter file; engine behaviour that contradicts the
// scenario is recorded in Result.Errors instead.
//
// Execution flow:
// 1. Resolve parameters from defaults, the parameter file and overrides
// 2. Build the engine, comparing any rejection with expect_invalid
// 3. Probe every check angle
// 4. Evaluate whole-cycle assertions
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	params, err := ResolveParameters(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	id, err := canon.ParametersID(params)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	result.ParametersID = id

	eng, err := engine.New(params, engine.WithLogger(h.logger))
	if err != nil {
		var pe *engine.ParametersError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Rejected = sortedCodes(pe.Codes())
		h.checkRejection(scenario, pe, result)
		h.logger.Info("scenario completed",
			"scenario", scenario.Name,
			"rejected", strings.Join(result.Rejected, ","),
			"pass", result.Pass,
		)
		return result, nil
	}

	points := eng.CriticalPoints()
	result.Points = &points

	if len(scenario.ExpectInvalid) > 0 {
		result.AddError(fmt.Sprintf("expected rejection with %s, but parameters were accepted",
			strings.Join(scenario.ExpectInvalid, ", ")))
	}

	for i, c := range scenario.Checks {
		result.Checks = append(result.Checks, h.runCheck(eng, i, c, result))
	}

	for _, msg := range EvaluateAssertions(eng, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"parameters", id[:12],
		"checks", len(result.Checks),
		"assertions", len(scenario.Assertions),
		"pass", result.Pass,
	)
	return result, nil
}

// ResolveParameters builds the parameter set a scenario runs with: the
// defaults, overlaid by the parameter file, overlaid by the overrides.
func ResolveParameters(scenario *Scenario) (engine.Parameters, error) {
	params := engine.DefaultParameters()
	if scenario.Parameters != "" {
		p, err := config.LoadFile(scenario.Parameters)
		if err != nil {
			return engine.Parameters{}, err
		}
		params = p
	}

	if len(scenario.Overrides) == 0 {
		return params, nil
	}

	// Overrides use the YAML parameter file schema, so re-encode them and let
	// the config loader apply them with the same strictness.
	data, err := yaml.Marshal(map[string]any{"engine": scenario.Overrides})
	if err != nil {
		return engine.Parameters{}, fmt.Errorf("failed to encode overrides: %w", err)
	}
	return config.Overlay(params, scenario.Name+" overrides", config.FormatYAML, data)
}

func (h *Harness) checkRejection(scenario *Scenario, pe *engine.ParametersError, result *Result) {
	if len(scenario.ExpectInvalid) == 0 {
		result.AddError(fmt.Sprintf("parameters rejected: %v", pe))
		return
	}
	for _, code := range scenario.ExpectInvalid {
		if !pe.HasCode(code) {
			result.AddError(fmt.Sprintf("expected validation code %s, got %s",
				code, strings.Join(result.Rejected, ", ")))
		}
	}
}

// runCheck probes eng at c.Angle and records every mismatch in result.
func (h *Harness) runCheck(eng *engine.Engine, index int, c Check, result *Result) CheckResult {
	cr := CheckResult{
		Angle:        c.Angle,
		Forward:      eng.Phase(c.Angle, engine.Forward),
		Return:       eng.Phase(c.Angle, engine.Return),
		Displacement: eng.CrankToStroke(c.Angle),
		ValveOffset:  eng.CrankToValve(c.Angle),
		Pass:         true,
	}
	fail := func(format string, args ...any) {
		cr.Pass = false
		result.AddError(fmt.Sprintf("check %d at %g: ", index, c.Angle) + fmt.Sprintf(format, args...))
	}
	tol := c.tolerance()

	if c.Forward != nil && *c.Forward != cr.Forward {
		fail("forward phase: expected %s, got %s", c.Forward, cr.Forward)
	}
	if c.Return != nil && *c.Return != cr.Return {
		fail("return phase: expected %s, got %s", c.Return, cr.Return)
	}
	if c.Displacement != nil && math.Abs(*c.Displacement-cr.Displacement) > tol {
		fail("displacement: expected %g, got %g", *c.Displacement, cr.Displacement)
	}
	if c.ValveOffset != nil && math.Abs(*c.ValveOffset-cr.ValveOffset) > tol {
		fail("valve offset: expected %g, got %g", *c.ValveOffset, cr.ValveOffset)
	}

	next := []struct {
		dir  engine.Direction
		want *float64
	}{
		{engine.Forward, c.NextForward},
		{engine.Return, c.NextReturn},
	}
	for _, n := range next {
		if n.want == nil {
			continue
		}
		got, err := eng.NextBoundary(c.Angle, n.dir)
		if err != nil {
			fail("next %s boundary: %v", n.dir, err)
			continue
		}
		if math.Abs(*n.want-got) > tol {
			fail("next %s boundary: expected %g, got %g", n.dir, *n.want, got)
		}
	}

	h.logger.Debug("check evaluated",
		"scenario", result.Scenario,
		"angle", c.Angle,
		"forward", cr.Forward,
		"return", cr.Return,
		"pass", cr.Pass,
	)
	return cr
}

func sortedCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
