package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slidevalve/internal/engine"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: probe
description: "Phases at TDC"
overrides:
  eccentric_advance: 115
checks:
  - angle: 0
    forward: compression
    return: exhaust
    displacement: 0
    tolerance: 1e-9
assertions:
  - type: cutoff_fraction
    direction: forward
    min: 0.5
    max: 0.9
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "probe", scenario.Name)
	assert.Equal(t, "Phases at TDC", scenario.Description)
	assert.Equal(t, 115, scenario.Overrides["eccentric_advance"])
	require.Len(t, scenario.Checks, 1)
	require.NotNil(t, scenario.Checks[0].Forward)
	assert.Equal(t, engine.Compression, *scenario.Checks[0].Forward)
	assert.Equal(t, engine.Exhaust, *scenario.Checks[0].Return)
	require.NotNil(t, scenario.Checks[0].Displacement)
	assert.Equal(t, 0.0, *scenario.Checks[0].Displacement)
	assert.Equal(t, 1e-9, scenario.Checks[0].tolerance())
	assert.Nil(t, scenario.Checks[0].ValveOffset)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertCutoffFraction, scenario.Assertions[0].Type)
	assert.Equal(t, 0.9, scenario.Assertions[0].Max)
}

func TestLoadScenario_DefaultTolerance(t *testing.T) {
	assert.Equal(t, DefaultTolerance, Check{}.tolerance())
	assert.Equal(t, 1.0, Assertion{}.step())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ResolvesParametersPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "engines"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engines", "e.cue"), []byte("engine: {}"), 0644))

	path := writeScenario(t, dir, `
name: relative
description: "Relative parameters path"
parameters: engines/e.cue
assertions:
  - type: cycle_order
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "engines", "e.cue"), scenario.Parameters)
}

func TestLoadScenario_InvalidFiles(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"typo.yaml", "failed to parse YAML"},
		{"bad_phase.yaml", "failed to parse YAML"},
		{"empty.yaml", "at least one check or assertion"},
		{"mixed.yaml", "expect_invalid cannot be combined"},
		{"bad_cutoff.yaml", "0 <= min < max <= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := LoadScenario(filepath.Join("testdata", "invalid", tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: x\nassertions:\n  - type: cycle_order\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nassertions:\n  - type: cycle_order\n",
			want:    "description is required",
		},
		{
			name:    "missing parameters file",
			content: "name: x\ndescription: x\nparameters: nope.cue\nassertions:\n  - type: cycle_order\n",
			want:    "parameters file not found",
		},
		{
			name:    "empty check",
			content: "name: x\ndescription: x\nchecks:\n  - angle: 10\n",
			want:    "nothing to check at angle 10",
		},
		{
			name:    "negative tolerance",
			content: "name: x\ndescription: x\nchecks:\n  - angle: 10\n    forward: intake\n    tolerance: -1\n",
			want:    "tolerance must be non-negative",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: x\nassertions:\n  - type: trace_contains\n",
			want:    `unknown assertion type "trace_contains"`,
		},
		{
			name:    "missing assertion type",
			content: "name: x\ndescription: x\nassertions:\n  - direction: forward\n",
			want:    "type is required",
		},
		{
			name:    "bad direction",
			content: "name: x\ndescription: x\nassertions:\n  - type: cycle_order\n    direction: sideways\n",
			want:    "assertions[0]",
		},
		{
			name:    "negative step",
			content: "name: x\ndescription: x\nassertions:\n  - type: phase_partition\n    step: -1\n",
			want:    "step must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_Directory(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"default-engine",
		"advance-115",
		"long-steam-lap",
		"short-con-rod",
		"unreachable-lap",
	}, names)
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := "name: same\ndescription: x\nassertions:\n  - type: cycle_order\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" already used by a.yaml`)
}

func TestLoadScenarios_MissingDirectory(t *testing.T) {
	_, err := LoadScenarios("/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario directory")
}
