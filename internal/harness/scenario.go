package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/slidevalve/internal/engine"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Parameters is an optional path to a .cue or .yaml parameter file.
	// Relative paths are resolved against the scenario file's directory.
	// Without it the scenario starts from the default parameters.
	Parameters string `yaml:"parameters,omitempty"`

	// Overrides replaces individual parameter fields, using the same keys as
	// the engine section of a YAML parameter file.
	Overrides map[string]any `yaml:"overrides,omitempty"`

	// ExpectInvalid lists validation codes the engine must report when it
	// rejects the parameters. When set, checks are not allowed.
	ExpectInvalid []string `yaml:"expect_invalid,omitempty"`

	// Checks are point probes at given crank angles.
	Checks []Check `yaml:"checks,omitempty"`

	// Assertions validate whole-cycle properties.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Check probes the engine at one crank angle. Only the fields that are set
// are compared.
type Check struct {
	Angle        float64       `yaml:"angle"`
	Forward      *engine.Phase `yaml:"forward,omitempty"`
	Return       *engine.Phase `yaml:"return,omitempty"`
	Displacement *float64      `yaml:"displacement,omitempty"`
	ValveOffset  *float64      `yaml:"valve_offset,omitempty"`
	NextForward  *float64      `yaml:"next_forward,omitempty"`
	NextReturn   *float64      `yaml:"next_return,omitempty"`

	// Tolerance applies to every numeric comparison. Default: 1e-6.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// DefaultTolerance is used when a check leaves Tolerance unset.
const DefaultTolerance = 1e-6

func (c Check) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return DefaultTolerance
}

// Assertion validates a property of the whole cycle.
type Assertion struct {
	// Type specifies the assertion type:
	// - "cycle_order": critical points are in strict circular order
	// - "phase_partition": every sampled angle has exactly one phase and
	//   phases advance in cycle order
	// - "cutoff_fraction": cutoff falls within [min, max] of the stroke
	// - "stroke_round_trip": StrokeToCrank inverts CrankToStroke
	// - "valve_at_lap": the valve sits on the matching lap at every event
	// - "boundary_chain": four NextBoundary steps complete one revolution
	Type string `yaml:"type"`

	// Direction restricts the assertion to one cylinder end. Empty means both.
	Direction string `yaml:"direction,omitempty"`

	// Min and Max bound cutoff_fraction.
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`

	// Step is the sampling interval in degrees for phase_partition and
	// stroke_round_trip. Default: 1.
	Step float64 `yaml:"step,omitempty"`
}

// Assertion type constants.
const (
	AssertCycleOrder      = "cycle_order"
	AssertPhasePartition  = "phase_partition"
	AssertCutoffFraction  = "cutoff_fraction"
	AssertStrokeRoundTrip = "stroke_round_trip"
	AssertValveAtLap      = "valve_at_lap"
	AssertBoundaryChain   = "boundary_chain"
)

// directions returns the cylinder ends an assertion applies to.
func (a Assertion) directions() ([]engine.Direction, error) {
	if a.Direction == "" {
		return engine.Directions[:], nil
	}
	d, err := engine.ParseDirection(a.Direction)
	if err != nil {
		return nil, err
	}
	return []engine.Direction{d}, nil
}

func (a Assertion) step() float64 {
	if a.Step > 0 {
		return a.Step
	}
	return 1
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The parameters path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the parameters path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "check:" vs "checks:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Parameters != "" && !filepath.IsAbs(scenario.Parameters) && basePath != "" {
		scenario.Parameters = filepath.Join(basePath, scenario.Parameters)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", name, s.Name, prev)
		}
		seen[s.Name] = name
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Parameters != "" {
		if _, err := os.Stat(s.Parameters); os.IsNotExist(err) {
			return fmt.Errorf("parameters file not found: %s", s.Parameters)
		}
	}

	if len(s.ExpectInvalid) > 0 {
		if len(s.Checks) > 0 || len(s.Assertions) > 0 {
			return fmt.Errorf("expect_invalid cannot be combined with checks or assertions")
		}
		return nil
	}

	if len(s.Checks) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one check or assertion is required")
	}

	for i, c := range s.Checks {
		if c.Forward == nil && c.Return == nil && c.Displacement == nil &&
			c.ValveOffset == nil && c.NextForward == nil && c.NextReturn == nil {
			return fmt.Errorf("checks[%d]: nothing to check at angle %g", i, c.Angle)
		}
		if c.Tolerance < 0 {
			return fmt.Errorf("checks[%d]: tolerance must be non-negative", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if _, err := a.directions(); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}
	if a.Step < 0 {
		return fmt.Errorf("assertions[%d]: step must be non-negative", index)
	}

	switch a.Type {
	case AssertCycleOrder, AssertPhasePartition, AssertStrokeRoundTrip, AssertValveAtLap, AssertBoundaryChain:
	case AssertCutoffFraction:
		if a.Max <= a.Min || a.Min < 0 || a.Max > 1 {
			return fmt.Errorf("assertions[%d]: cutoff_fraction needs 0 <= min < max <= 1", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
