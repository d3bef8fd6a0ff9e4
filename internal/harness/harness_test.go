package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/config"
	"github.com/roach88/slidevalve/internal/engine"
)

func phasePtr(p engine.Phase) *engine.Phase { return &p }
func floatPtr(f float64) *float64          { return &f }

func TestRun_DefaultEngineChecks(t *testing.T) {
	scenario := &Scenario{
		Name:        "tdc",
		Description: "Phases at TDC",
		Checks: []Check{
			{Angle: 0, Forward: phasePtr(engine.Compression), Return: phasePtr(engine.Exhaust)},
			{Angle: 90, Displacement: floatPtr(4.681217880337638)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "tdc", result.Scenario)
	assert.Equal(t, canon.MustParametersID(engine.DefaultParameters()), result.ParametersID)
	require.NotNil(t, result.Points)
	assert.InDelta(t, 0.7350245552185584, result.Points.Forward[engine.EventInlet], 1e-9)
	assert.Nil(t, result.Rejected)

	require.Len(t, result.Checks, 2)
	assert.Equal(t, engine.Intake, result.Checks[1].Forward)
	assert.Equal(t, engine.Exhaust, result.Checks[1].Return)
	assert.True(t, result.Checks[1].Pass)
}

func TestRun_CheckMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "Wrong expectations",
		Checks: []Check{
			{Angle: 90, Forward: phasePtr(engine.Exhaust), ValveOffset: floatPtr(0), NextForward: floatPtr(120)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "forward phase: expected exhaust, got intake")
	assert.Contains(t, result.Errors[1], "valve offset")
	assert.Contains(t, result.Errors[2], "next forward boundary")
	assert.False(t, result.Checks[0].Pass)
}

func TestRun_ToleranceWidensComparison(t *testing.T) {
	scenario := &Scenario{
		Name:        "loose",
		Description: "Rounded displacement",
		Checks: []Check{
			{Angle: 90, Displacement: floatPtr(4.68), Tolerance: 0.01},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Overrides(t *testing.T) {
	scenario := &Scenario{
		Name:        "advance",
		Description: "Advance override",
		Overrides:   map[string]any{"eccentric_advance": 115},
		Assertions:  []Assertion{{Type: AssertCycleOrder}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	want := engine.DefaultParameters()
	want.EccentricAdvance = 115
	assert.Equal(t, canon.MustParametersID(want), result.ParametersID)
	assert.InDelta(t, 5.735024555218558, result.Points.Forward[engine.EventInlet], 1e-9)
}

func TestRun_NestedOverridesKeepSiblings(t *testing.T) {
	scenario := &Scenario{
		Name:        "lands",
		Description: "Override one land",
		Overrides: map[string]any{
			"lands": map[string]any{"top": []any{1.06, 2.45}},
		},
		Assertions: []Assertion{{Type: AssertCycleOrder}},
	}

	params, err := ResolveParameters(scenario)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{1.06, 2.45}, params.Lands.Top)
	assert.Equal(t, engine.DefaultParameters().Lands.Bottom, params.Lands.Bottom)
	assert.Equal(t, engine.DefaultParameters().Ports, params.Ports)
}

func TestRun_BadOverrideIsExecutionError(t *testing.T) {
	scenario := &Scenario{
		Name:        "typo",
		Description: "Unknown override key",
		Overrides:   map[string]any{"con_rd": 20},
		Assertions:  []Assertion{{Type: AssertCycleOrder}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.True(t, config.IsLoadError(err))
}

func TestRun_ParametersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  eccentric_advance: 115\n"), 0644))

	scenario := &Scenario{
		Name:        "file",
		Description: "Parameters from file",
		Parameters:  path,
		Overrides:   map[string]any{"bore": 8},
		Assertions:  []Assertion{{Type: AssertCycleOrder}},
	}

	params, err := ResolveParameters(scenario)
	require.NoError(t, err)
	assert.Equal(t, 115.0, params.EccentricAdvance)
	assert.Equal(t, 8.0, params.Bore)
	assert.Equal(t, engine.DefaultParameters().Stroke, params.Stroke)
}

func TestRun_ExpectInvalid(t *testing.T) {
	scenario := &Scenario{
		Name:          "rod",
		Description:   "Short rod",
		Overrides:     map[string]any{"con_rod": 8},
		ExpectInvalid: []string{engine.ErrCodeRodTooShort},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{engine.ErrCodeRodTooShort}, result.Rejected)
	assert.Nil(t, result.Points)
	assert.NotEmpty(t, result.ParametersID)
}

func TestRun_ExpectInvalidWrongCode(t *testing.T) {
	scenario := &Scenario{
		Name:          "rod",
		Description:   "Short rod, wrong code",
		Overrides:     map[string]any{"con_rod": 8},
		ExpectInvalid: []string{engine.ErrCodeEventOrder},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected validation code E211, got E203")
}

func TestRun_ExpectInvalidButAccepted(t *testing.T) {
	scenario := &Scenario{
		Name:          "ok",
		Description:   "Defaults are valid",
		ExpectInvalid: []string{engine.ErrCodeRodTooShort},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "but parameters were accepted")
	assert.NotNil(t, result.Points)
}

func TestRun_UnexpectedRejection(t *testing.T) {
	scenario := &Scenario{
		Name:        "rod",
		Description: "Short rod with checks",
		Overrides:   map[string]any{"con_rod": 8},
		Checks:      []Check{{Angle: 0, Forward: phasePtr(engine.Intake)}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "parameters rejected")
	assert.Empty(t, result.Checks)
}

func TestRun_ScenarioFiles(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := New(nil).Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSortedCodes(t *testing.T) {
	assert.Equal(t, []string{"E203", "E210"}, sortedCodes([]string{"E210", "E203", "E210"}))
	assert.Equal(t, []string{}, sortedCodes(nil))
}
