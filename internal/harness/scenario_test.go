package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "quarter_wave.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "quarter_wave", s.Name)
	assert.Len(t, s.Cases, 4)
	assert.Equal(t, "", s.StackName())

	layers := s.OpticsLayers()
	require.Len(t, layers, 3)
	assert.Equal(t, 100.0, layers[1].Thickness)

	require.NotNil(t, s.Cases[0].Expect.Reflectance)
	assert.InDelta(t, 25.0/169.0, *s.Cases[0].Expect.Reflectance, 1e-15)
	assert.Equal(t, "INVALID_INPUT", s.Cases[3].Expect.Error)
}

func TestLoadScenario_StackFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "tir.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "glass to air", s.StackName())
	assert.Len(t, s.OpticsLayers(), 2)
}

func TestLoadScenario_NotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {reflectance: 0.04}}]
`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: x
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {reflectance: 0.04}}]
`,
			want: "description is required",
		},
		{
			name: "no stack",
			yaml: `
name: x
description: d
cases: [{wavelength: 500, expect: {reflectance: 0.04}}]
`,
			want: "either stack or layers is required",
		},
		{
			name: "stack and layers",
			yaml: `
name: x
description: d
stack: s.yaml
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {reflectance: 0.04}}]
`,
			want: "mutually exclusive",
		},
		{
			name: "no cases",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
`,
			want: "cases list is required",
		},
		{
			name: "empty expect",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {}}]
`,
			want: "expect needs",
		},
		{
			name: "error and values",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {reflectance: 0.04, error: INVALID_INPUT}}]
`,
			want: "cannot set both",
		},
		{
			name: "unknown error code",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {error: OOPS}}]
`,
			want: `unknown error code "OOPS"`,
		},
		{
			name: "negative tolerance",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelength: 500, expect: {reflectance: 0.04, tolerance: -1}}]
`,
			want: "tolerance must be non-negative",
		},
		{
			name: "unknown field",
			yaml: `
name: x
description: d
layers: [{n: 1}, {n: 1.5}]
cases: [{wavelenght: 500, expect: {reflectance: 0.04}}]
`,
			want: "failed to parse YAML",
		},
		{
			name: "missing stack file",
			yaml: `
name: x
description: d
stack: nope.yaml
cases: [{wavelength: 500, expect: {reflectance: 0.04}}]
`,
			want: "failed to load stack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ar_one.yaml", "ar_two.yml", "tir.yaml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	all, err := FindScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ar, err := FindScenarioFiles(dir, "ar_*")
	require.NoError(t, err)
	assert.Len(t, ar, 2)

	_, err = FindScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
