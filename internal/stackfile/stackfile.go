package stackfile

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tmm/internal/optics"
)

// Layer is one entry of a stack file.
type Layer struct {
	Name      string   `yaml:"name,omitempty" json:"name,omitempty"`
	N         float64  `yaml:"n" json:"n"`
	K         float64  `yaml:"k,omitempty" json:"k,omitempty"`
	Thickness *float64 `yaml:"thickness,omitempty" json:"thickness,omitempty"`
}

// Stack is a parsed stack definition file.
type Stack struct {
	Name         string  `yaml:"name,omitempty" json:"name,omitempty"`
	Description  string  `yaml:"description,omitempty" json:"description,omitempty"`
	Wavelength   float64 `yaml:"wavelength,omitempty" json:"wavelength,omitempty"`
	AngleDeg     float64 `yaml:"angle_deg,omitempty" json:"angle_deg,omitempty"`
	Polarization string  `yaml:"polarization,omitempty" json:"polarization,omitempty"`
	Layers       []Layer `yaml:"layers" json:"layers"`
}

// Load reads and validates a stack file.
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse validates and decodes a stack document.
func Parse(data []byte) (*Stack, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}

	var s Stack
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode stack: %w", err)
	}
	s.normalize()

	if issues := s.check(); len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return &s, nil
}

// normalize NFC-normalises every user-supplied label.
func (s *Stack) normalize() {
	s.Name = norm.NFC.String(strings.TrimSpace(s.Name))
	for i := range s.Layers {
		s.Layers[i].Name = norm.NFC.String(strings.TrimSpace(s.Layers[i].Name))
	}
}

// check runs the checks the schema cannot express.
func (s *Stack) check() []Issue {
	var issues []Issue
	last := len(s.Layers) - 1
	for i, l := range s.Layers {
		if i == 0 || i == last {
			continue
		}
		if l.Thickness == nil {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("layers.%d.thickness", i),
				Message: "films between the ambient media need a thickness",
				Code:    CodeMissingThickness,
			})
		}
	}
	if len(issues) > 0 {
		return issues
	}

	if _, err := optics.ParsePolarization(s.Polarization); err != nil {
		issues = append(issues, Issue{Field: "polarization", Message: err.Error(), Code: CodeInvalidStack})
	}

	wavelength := s.Wavelength
	if wavelength == 0 {
		wavelength = 1 // unset; only the layers are checked here
	}
	if err := optics.Validate(s.OpticsLayers(), optics.Incidence{Wavelength: wavelength, Theta: deg2rad(s.AngleDeg)}); err != nil {
		issues = append(issues, Issue{Field: "layers", Message: err.Error(), Code: CodeInvalidStack})
	}
	return issues
}

// OpticsLayers converts the file layers for the solver. Ambient media get an
// infinite thickness.
func (s *Stack) OpticsLayers() []optics.Layer {
	return ToOptics(s.Layers)
}

// ToOptics converts file layers for the solver.
func ToOptics(layers []Layer) []optics.Layer {
	out := make([]optics.Layer, len(layers))
	last := len(layers) - 1
	for i, l := range layers {
		d := math.Inf(1)
		if i != 0 && i != last && l.Thickness != nil {
			d = *l.Thickness
		}
		out[i] = optics.Layer{Name: l.Name, N: complex(l.N, l.K), Thickness: d}
	}
	return out
}

// Overrides replace stack file defaults; nil or empty fields keep the file's
// value.
type Overrides struct {
	Wavelength   *float64
	AngleDeg     *float64
	Polarization string
}

// Incidence combines the file defaults with overrides.
func (s *Stack) Incidence(o Overrides) (optics.Incidence, error) {
	inc := optics.Incidence{Wavelength: s.Wavelength, Theta: deg2rad(s.AngleDeg)}
	wavelengthSet := s.Wavelength != 0
	if o.Wavelength != nil {
		inc.Wavelength = *o.Wavelength
		wavelengthSet = true
	}
	if o.AngleDeg != nil {
		inc.Theta = deg2rad(*o.AngleDeg)
	}
	polName := s.Polarization
	if o.Polarization != "" {
		polName = o.Polarization
	}
	pol, err := optics.ParsePolarization(polName)
	if err != nil {
		return optics.Incidence{}, err
	}
	inc.Polarization = pol
	if !wavelengthSet {
		return optics.Incidence{}, optics.NewInvalidInput("no wavelength: set it in the stack file or pass --wavelength", nil)
	}
	return inc, nil
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
