package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tmm/internal/optics"
	"github.com/roach88/tmm/internal/stackfile"
)

// DefaultTolerance applies when a case sets no tolerance.
const DefaultTolerance = 1e-9

// Scenario defines a conformance test scenario: one stack, many incidences.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Stack is a path to a stack file, relative to the scenario file.
	// Mutually exclusive with Layers.
	Stack string `yaml:"stack,omitempty"`

	// Layers is an inline stack.
	Layers []stackfile.Layer `yaml:"layers,omitempty"`

	// Cases are the incidences to solve.
	Cases []Case `yaml:"cases"`

	// stack is the loaded stack file, nil for inline layers.
	stack *stackfile.Stack
}

// Case is one solve with its expected outcome.
type Case struct {
	Name string `yaml:"name,omitempty"`
	// Wavelength falls back to the stack file's when omitted. An explicit
	// value, including 0, is always used.
	Wavelength   *float64 `yaml:"wavelength,omitempty"`
	AngleDeg     float64  `yaml:"angle_deg,omitempty"`
	Polarization string   `yaml:"polarization,omitempty"`
	Expect       Expect   `yaml:"expect"`
}

// Expect specifies the expected outcome of a case.
// Either Error or at least one power quantity must be set.
type Expect struct {
	Reflectance   *float64 `yaml:"reflectance,omitempty"`
	Transmittance *float64 `yaml:"transmittance,omitempty"`
	Absorptance   *float64 `yaml:"absorptance,omitempty"`
	Tolerance     float64  `yaml:"tolerance,omitempty"`

	// Error is the expected error code (INVALID_INPUT, NUMERICAL_INSTABILITY).
	Error string `yaml:"error,omitempty"`
}

func (e Expect) tolerance() float64 {
	if e.Tolerance > 0 {
		return e.Tolerance
	}
	return DefaultTolerance
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative stack paths are resolved
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.Stack != "" {
		path := scenario.Stack
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		stack, err := stackfile.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load stack: %w", err)
		}
		scenario.stack = stack
	}

	return &scenario, nil
}

// OpticsLayers returns the scenario's stack in solver form.
func (s *Scenario) OpticsLayers() []optics.Layer {
	if s.stack != nil {
		return s.stack.OpticsLayers()
	}
	return stackfile.ToOptics(s.Layers)
}

// StackName is the stack file's name, if any.
func (s *Scenario) StackName() string {
	if s.stack != nil {
		return s.stack.Name
	}
	return ""
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Stack == "" && len(s.Layers) == 0 {
		return fmt.Errorf("either stack or layers is required")
	}
	if s.Stack != "" && len(s.Layers) > 0 {
		return fmt.Errorf("stack and layers are mutually exclusive")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i := range s.Cases {
		if err := validateExpect(i, &s.Cases[i].Expect); err != nil {
			return err
		}
	}

	return nil
}

// validateExpect validates a single expect clause.
func validateExpect(index int, e *Expect) error {
	hasPower := e.Reflectance != nil || e.Transmittance != nil || e.Absorptance != nil

	switch {
	case e.Error != "" && hasPower:
		return fmt.Errorf("cases[%d]: expect cannot set both error and power values", index)
	case e.Error == "" && !hasPower:
		return fmt.Errorf("cases[%d]: expect needs reflectance, transmittance, absorptance or error", index)
	case e.Tolerance < 0:
		return fmt.Errorf("cases[%d]: tolerance must be non-negative", index)
	}

	if e.Error != "" {
		switch optics.SolveErrorCode(e.Error) {
		case optics.ErrCodeInvalidInput, optics.ErrCodeNumericalInstability:
		default:
			return fmt.Errorf("cases[%d]: unknown error code %q", index, e.Error)
		}
	}
	return nil
}

// FindScenarioFiles finds all YAML scenario files under dir, optionally
// filtered by a glob matched against the file name without extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := filepath.Base(path)
			name = name[:len(name)-len(ext)]
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}
