package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bareGlassScenario = `name: bare_glass
description: uncoated glass in air
layers:
  - {name: air, n: 1.0}
  - {name: glass, n: 1.5}
cases:
  - name: normal
    wavelength: 500
    expect:
      reflectance: 0.04
      transmittance: 0.96
  - name: negative wavelength
    wavelength: -1
    expect:
      error: INVALID_INPUT
`

const bareGlassGolden = `scenario: bare_glass
[0] normal: R=0.040000 T=0.960000 A=0.000000
[1] negative wavelength: error INVALID_INPUT
`

const wrongScenario = `name: wrong
description: deliberately wrong expectation
layers:
  - {n: 1.0}
  - {n: 1.5}
cases:
  - name: normal
    wavelength: 500
    expect:
      reflectance: 0.5
`

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCmd(t, "text")
	require.Error(t, err)
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCmd(t, "text", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCmd(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCmd(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandPassing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bare_glass.yaml", bareGlassScenario)

	out, err := runTestCmd(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bare_glass (2 cases)")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bare_glass.yaml", bareGlassScenario)
	writeFile(t, dir, "wrong.yaml", wrongScenario)

	out, err := runTestCmd(t, "json", dir, "--workers", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	// FindScenarioFiles returns files sorted by path.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "wrong", resp.Data.Scenarios[1].Name)
	require.NotEmpty(t, resp.Data.Scenarios[1].Errors)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "reflectance")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bare_glass.yaml", bareGlassScenario)
	writeFile(t, dir, "wrong.yaml", wrongScenario)

	out, err := runTestCmd(t, "text", dir, "--filter", "bare_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bare_glass.yaml", bareGlassScenario)

	t.Run("matching", func(t *testing.T) {
		writeFile(t, dir, "golden/bare_glass.golden", bareGlassGolden)
		_, err := runTestCmd(t, "text", dir)
		require.NoError(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		writeFile(t, dir, "golden/bare_glass.golden", "scenario: stale\n")
		out, err := runTestCmd(t, "text", dir)
		require.Error(t, err)
		assert.Contains(t, out, "do not match golden file")
	})

	t.Run("update", func(t *testing.T) {
		out, err := runTestCmd(t, "text", dir, "--update")
		require.NoError(t, err)
		assert.Contains(t, out, "golden updated")

		got, err := os.ReadFile(filepath.Join(dir, "golden", "bare_glass.golden"))
		require.NoError(t, err)
		assert.Equal(t, bareGlassGolden, string(got))
	})
}

func TestTestCommandBadScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\ncases: [\n")

	out, err := runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestGoldenFilePath(t *testing.T) {
	tests := []struct {
		scenario string
		want     string
	}{
		{"scenarios/ar.yaml", filepath.Join("scenarios", "golden", "ar.golden")},
		{filepath.Join("a", "b", "tir.yml"), filepath.Join("a", "b", "golden", "tir.golden")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, goldenFilePath(tt.scenario))
	}
}
