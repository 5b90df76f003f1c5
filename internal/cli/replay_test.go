package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmm/internal/store"
)

func runReplayCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// tamper appends a record whose stored reflectance is off by delta.
func tamper(t *testing.T, dbPath string, delta float64) string {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.ReadSolve(t.Context(), "rec-1")
	require.NoError(t, err)
	rec.ID = "rec-tampered"
	rec.Reflectance += delta
	_, _, err = st.WriteSolve(t.Context(), rec)
	require.NoError(t, err)
	return rec.StackHash
}

func TestReplayMissingDatabaseFlag(t *testing.T) {
	_, err := runReplayCmd(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayNonExistentDatabase(t *testing.T) {
	_, err := runReplayCmd(t, &RootOptions{Format: "text"}, "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tmm.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	out, err := runReplayCmd(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No solves found")
}

func TestReplayReproduces(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runReplayCmd(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "All 2 stack(s) reproduce")
}

func TestReplayReproducesJSON(t *testing.T) {
	dbPath := seedDatabase(t)

	out, err := runReplayCmd(t, &RootOptions{Format: "json"}, "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	assert.Equal(t, 2, resp.Data.TotalStacks)
}

func TestReplayDetectsDrift(t *testing.T) {
	dbPath := seedDatabase(t)
	tamper(t, dbPath, 1e-6)

	out, err := runReplayCmd(t, &RootOptions{Format: "text", Verbose: true}, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "1 drifted")
	assert.Contains(t, out, "drift: rec-tampered")
}

func TestReplayDriftJSON(t *testing.T) {
	dbPath := seedDatabase(t)
	hash := tamper(t, dbPath, 1e-6)

	out, err := runReplayCmd(t, &RootOptions{Format: "json"}, "--db", dbPath, "--stack", hash)
	require.Error(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_REPLAY_DRIFT", resp.Error.Code)
	require.Len(t, resp.Data.Stacks, 1)
	assert.Equal(t, 3, resp.Data.Stacks[0].Solves)
	assert.Equal(t, []string{"rec-tampered"}, resp.Data.Stacks[0].Drift)
}

func TestReplayTolerance(t *testing.T) {
	dbPath := seedDatabase(t)
	tamper(t, dbPath, 1e-13)

	_, err := runReplayCmd(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.Error(t, err)

	_, err = runReplayCmd(t, &RootOptions{Format: "text"}, "--db", dbPath, "--tolerance", "1e-9")
	require.NoError(t, err)
}

func TestReproduces(t *testing.T) {
	ok := store.SolveRecord{
		Layers:        []float64{1, 0, 0, 1.5, 0, 0},
		Wavelength:    500,
		Polarization:  "te",
		Reflectance:   0.04000000000000001,
		Transmittance: 0.96,
	}

	tests := []struct {
		name string
		rec  func() store.SolveRecord
		tol  float64
		want bool
	}{
		{"tolerant_match", func() store.SolveRecord { return ok }, 1e-12, true},
		{"wrong_transmittance", func() store.SolveRecord {
			r := ok
			r.Transmittance = 0.5
			return r
		}, 1e-12, false},
		{"same_error", func() store.SolveRecord {
			r := ok
			r.Wavelength = 0
			r.ErrorCode = "INVALID_INPUT"
			return r
		}, 0, true},
		{"different_error", func() store.SolveRecord {
			r := ok
			r.Wavelength = 0
			r.ErrorCode = "NUMERICAL_INSTABILITY"
			return r
		}, 0, false},
		{"error_now_succeeds", func() store.SolveRecord {
			r := ok
			r.ErrorCode = "INVALID_INPUT"
			return r
		}, 0, false},
		{"success_now_fails", func() store.SolveRecord {
			r := ok
			r.Polarization = "circular"
			return r
		}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reproduces(tt.rec(), tt.tol))
		})
	}
}
