package optics

import (
	"fmt"
	"math"
	"strings"
)

// Layer is one planar medium of a stack.
type Layer struct {
	// Name is an optional label (e.g. "MgF2"); it does not affect the solve.
	Name string

	// N is the complex refractive index n + ik.
	N complex128

	// Thickness is the physical thickness in the wavelength's length unit.
	// It is ignored for the first and last layer of a stack.
	Thickness float64
}

// NewLayer builds a layer from its index components.
func NewLayer(n, k, thickness float64) Layer {
	return Layer{N: complex(n, k), Thickness: thickness}
}

// Ambient builds a semi-infinite medium.
func Ambient(n, k float64) Layer {
	return Layer{N: complex(n, k), Thickness: math.Inf(1)}
}

// internalIndex returns n − ik, the index in the kernel's sign convention.
func (l Layer) internalIndex() complex128 {
	return complex(real(l.N), -imag(l.N))
}

// Polarization selects the admittance used for oblique incidence.
type Polarization string

const (
	// TE is s-polarization, η = N cos θ. This is the default.
	TE Polarization = "te"

	// TM is p-polarization, η = N / cos θ.
	TM Polarization = "tm"

	// Unpolarized averages the TE and TM power results.
	Unpolarized Polarization = "unpolarized"
)

// ValidPolarizations lists the accepted polarization names.
var ValidPolarizations = []Polarization{TE, TM, Unpolarized}

// ParsePolarization accepts te|s, tm|p and unpolarized|u (case-insensitive).
// An empty string yields TE.
func ParsePolarization(s string) (Polarization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "te", "s":
		return TE, nil
	case "tm", "p":
		return TM, nil
	case "unpolarized", "u":
		return Unpolarized, nil
	}
	return "", NewInvalidInput(
		fmt.Sprintf("unknown polarization %q, want one of %v", s, ValidPolarizations),
		map[string]string{"polarization": s},
	)
}

// orDefault maps the zero value to TE.
func (p Polarization) orDefault() Polarization {
	if p == "" {
		return TE
	}
	return p
}

func (p Polarization) valid() bool {
	switch p.orDefault() {
	case TE, TM, Unpolarized:
		return true
	}
	return false
}

// Incidence describes the illumination of a stack.
type Incidence struct {
	// Wavelength is the vacuum wavelength λ0 (> 0).
	Wavelength float64

	// Theta is the angle of incidence in the incident medium, radians, in [0, π/2).
	Theta float64

	// Polarization defaults to TE when empty.
	Polarization Polarization
}

// Normal returns TE normal incidence at the given wavelength.
func Normal(wavelength float64) Incidence {
	return Incidence{Wavelength: wavelength, Polarization: TE}
}

// Result holds the power quantities of a solve.
type Result struct {
	Reflectance   float64 `json:"reflectance"`
	Transmittance float64 `json:"transmittance"`
}

// Absorptance is the fraction neither reflected nor transmitted.
func (r Result) Absorptance() float64 {
	return 1 - r.Reflectance - r.Transmittance
}

func (r Result) String() string {
	return fmt.Sprintf("R=%.6f T=%.6f A=%.6f", r.Reflectance, r.Transmittance, r.Absorptance())
}

// Amplitudes adds the complex reflection and transmission coefficients to a
// single-polarization Result.
type Amplitudes struct {
	Result

	// Reflection is r = (η0·B − C)/(η0·B + C).
	Reflection complex128

	// Transmission is t = 2·η0/(η0·B + C).
	Transmission complex128
}
