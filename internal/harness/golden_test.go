package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_ScenarioFiles(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	// First run with -update to create golden files:
	//   go test ./internal/harness -run TestRunWithGolden -update
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestReport_RoundsPoints(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "default-engine",
		Description: "Reference engine",
		Assertions:  []Assertion{{Type: AssertCycleOrder}},
	})
	require.NoError(t, err)

	report, err := Report(result)
	require.NoError(t, err)
	assert.Contains(t, string(report), `"forward":{"compression":328.012453,"cutoff":119.264975,"inlet":0.735025,"release":151.987547}`)
	assert.NotContains(t, string(report), "checks")
}

func TestReport_Rejected(t *testing.T) {
	result := NewResult("bad")
	result.ParametersID = "abc"
	result.Rejected = []string{"E203"}

	report, err := Report(result)
	require.NoError(t, err)
	assert.Equal(t, `{"parameters_id":"abc","pass":true,"rejected":["E203"],"scenario":"bad"}`, string(report))
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	result, err := Run(scenarios[0])
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, scenarios[0].Name, result))
}
