package harness

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
)

// goldenPrecision is the rounding applied to critical points in reports, so
// the last-ulp behaviour of the platform's math library cannot change them.
const goldenPrecision = 1e6

// Report is the canonical JSON form of a result, for golden comparison.
// Check details are left out; they are asserted by the scenario itself.
func Report(result *Result) ([]byte, error) {
	obj := map[string]any{
		"scenario":      result.Scenario,
		"parameters_id": result.ParametersID,
		"pass":          result.Pass,
	}
	if result.Points != nil {
		obj["points"] = roundedPoints(*result.Points)
	}
	if len(result.Rejected) > 0 {
		obj["rejected"] = result.Rejected
	}
	return canon.Marshal(obj)
}

func roundedPoints(cp engine.CriticalPoints) map[string]any {
	obj := canon.PointsObject(cp)
	for _, dir := range obj {
		events := dir.(map[string]any)
		for name, v := range events {
			events[name] = math.Round(v.(float64)*goldenPrecision) / goldenPrecision
		}
	}
	return obj
}

// RunWithGolden executes a scenario and compares its report against a golden
// file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the report doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the report of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	report, err := Report(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, report)

	return nil
}
