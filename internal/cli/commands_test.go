package cli

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slidevalve/internal/canon"
	"github.com/roach88/slidevalve/internal/engine"
	"github.com/roach88/slidevalve/internal/store"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	resp := struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestPointsCommand_TextGolden(t *testing.T) {
	out, err := execute(t, "points")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "points_default", []byte(out))
}

func TestPointsCommand_JSON(t *testing.T) {
	out, err := execute(t, "points", "--format", "json")
	require.NoError(t, err)

	var result PointsResult
	decodeData(t, out, &result)

	assert.Equal(t, canon.MustParametersID(engine.DefaultParameters()), result.ParametersID)
	require.Len(t, result.Ends, 2)
	fwd := result.Ends[0]
	assert.Equal(t, "forward", fwd.Direction)
	assert.InDelta(t, -0.605, fwd.SteamLap, 1e-12)
	assert.InDelta(t, 0.78098794809811, fwd.CutoffFraction, 1e-9)
	require.Len(t, fwd.Events, 4)
	assert.Equal(t, "inlet", fwd.Events[0].Event)
	assert.InDelta(t, 0.7350245552185584, fwd.Events[0].Angle, 1e-9)
	assert.InDelta(t, fwd.SteamLap, fwd.Events[1].ValveOffset, 1e-9)

	ret := result.Ends[1]
	assert.Equal(t, "return", ret.Direction)
	assert.InDelta(t, 183.25586211165023, ret.Events[0].Angle, 1e-9)
	assert.InDelta(t, 0.686675164115438, ret.CutoffFraction, 1e-9)
}

func TestPointsCommand_Config(t *testing.T) {
	out, err := execute(t, "points", "--format", "json", "--config", filepath.Join("testdata", "engines", "advance-115.yaml"))
	require.NoError(t, err)

	var result PointsResult
	decodeData(t, out, &result)
	assert.InDelta(t, 5.735024555218558, result.Ends[0].Events[0].Angle, 1e-9)
}

func TestPointsCommand_RejectedConfig(t *testing.T) {
	out, err := execute(t, "points", "--config", filepath.Join("testdata", "engines", "short-rod.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E203]")
}

func TestPointsCommand_MissingConfig(t *testing.T) {
	out, err := execute(t, "points", "--config", "nope.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E301]")
}

func TestQueryCommand_TextGolden(t *testing.T) {
	out, err := execute(t, "query", "90")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "query_90", []byte(out))
}

func TestQueryCommand_JSON(t *testing.T) {
	out, err := execute(t, "query", "400", "--format", "json")
	require.NoError(t, err)

	var result QueryResult
	decodeData(t, out, &result)

	assert.Equal(t, 400.0, result.Angle)
	require.Len(t, result.Ends, 2)
	// 400 is 40 past TDC: forward intake until cutoff on this turn.
	assert.Equal(t, engine.Intake, result.Ends[0].Phase)
	assert.Equal(t, engine.Expansion, result.Ends[0].NextPhase)
	assert.InDelta(t, 360+119.26497544478144, result.Ends[0].NextBoundary, 1e-6)
	assert.Equal(t, engine.Exhaust, result.Ends[1].Phase)
}

func TestQueryCommand_NegativeAngle(t *testing.T) {
	out, err := execute(t, "query", "--format", "json", "--", "-90")
	require.NoError(t, err)

	var result QueryResult
	decodeData(t, out, &result)
	assert.Equal(t, engine.Exhaust, result.Ends[0].Phase)
	assert.Equal(t, engine.Intake, result.Ends[1].Phase)
}

func TestQueryCommand_BadAngle(t *testing.T) {
	for _, arg := range []string{"ninety", "NaN", "Inf"} {
		t.Run(arg, func(t *testing.T) {
			out, err := execute(t, "query", arg)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E002]")
		})
	}
}

func TestSweepCommand_Text(t *testing.T) {
	out, err := execute(t, "sweep", "--from", "0", "--to", "180", "--step", "90")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "displacement")
	assert.Contains(t, lines[1], "Compression")
	assert.Contains(t, lines[2], "Intake")
	assert.Contains(t, lines[2], "4.6812")
	assert.Contains(t, lines[3], "Exhaust")
}

func TestSweepCommand_JSON(t *testing.T) {
	out, err := execute(t, "sweep", "--step", "90", "--format", "json")
	require.NoError(t, err)

	var result SweepResult
	decodeData(t, out, &result)
	assert.Empty(t, result.RunID)
	require.Len(t, result.Samples, 5)
	assert.Equal(t, 270.0, result.Samples[3].Angle)
	assert.Equal(t, engine.Intake, result.Samples[3].Return)
}

func TestSweepCommand_InvalidRange(t *testing.T) {
	tests := [][]string{
		{"sweep", "--step", "0"},
		{"sweep", "--from", "10", "--to", "0"},
		{"sweep", "--step", "0.0001", "--to", "1000"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E002]")
		})
	}
}

func TestSweepAndRuns_Database(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sweeps.db")

	out, err := execute(t, "sweep", "--step", "45", "--db", db, "--format", "json")
	require.NoError(t, err)
	var recorded SweepResult
	decodeData(t, out, &recorded)
	require.NotEmpty(t, recorded.RunID)
	require.Len(t, recorded.Samples, 9)

	out, err = execute(t, "runs", "--db", db, "--format", "json")
	require.NoError(t, err)
	var runs []store.RunSummary
	decodeData(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, recorded.RunID, runs[0].ID)
	assert.Equal(t, 9, runs[0].SampleCount)
	assert.Equal(t, recorded.ParametersID, runs[0].ParametersID)

	out, err = execute(t, "runs", "--db", db, recorded.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+recorded.RunID)
	assert.Contains(t, out, "Compression")

	out, err = execute(t, "runs", "--db", db, "--parameters", "0000")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	out, err = execute(t, "runs", "--db", db, recorded.RunID, "--delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run "+recorded.RunID)

	_, err = execute(t, "runs", "--db", db, recorded.RunID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunsCommand_DeleteNeedsID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sweeps.db")
	_, err := execute(t, "runs", "--db", db, "--delete")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlotCommand_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "cycle.png")

	out, err := execute(t, "plot", "--out", path, "--from", "0", "--to", "360", "--step", "5", "--width", "288", "--height", "144")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	// 288pt x 144pt at 96 dpi.
	assert.Equal(t, 384, cfg.Width)
	assert.Equal(t, 192, cfg.Height)
}

func TestPlotCommand_ASCII(t *testing.T) {
	out, err := execute(t, "plot", "--ascii", "--from", "0", "--to", "360", "--step", "90", "--width", "5", "--height", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "displacement")
	assert.Contains(t, out, "Forward  CIXXC\n")
	assert.Contains(t, out, "Return   XXCIX\n")
}

func TestPlotCommand_ASCIIJSON(t *testing.T) {
	out, err := execute(t, "plot", "--ascii", "--series", "valve", "--from", "0", "--to", "360", "--step", "90", "--width", "5", "--format", "json")
	require.NoError(t, err)

	var result struct {
		Series string            `json:"series"`
		Chart  string            `json:"chart"`
		Phases map[string]string `json:"phases"`
	}
	decodeData(t, out, &result)
	assert.Equal(t, "valve offset", result.Series)
	assert.NotEmpty(t, result.Chart)
	assert.Equal(t, "CIXXC", result.Phases["forward"])
}

func TestPlotCommand_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"neither", []string{"plot"}},
		{"both", []string{"plot", "--ascii", "--out", "x.png"}},
		{"series", []string{"plot", "--ascii", "--series", "pressure"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E002]")
		})
	}
}

func TestVerboseLogsGoToStderr(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"sweep", "--step", "180", "--format", "json", "--verbose",
		"--db", filepath.Join(t.TempDir(), "s.db")})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Contains(t, errBuf.String(), "sweep recorded")
	assert.Contains(t, errBuf.String(), "Recorded run")
}
