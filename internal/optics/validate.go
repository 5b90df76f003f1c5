package optics

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
)

// Validate checks a stack and incidence without solving.
// It returns an ErrCodeInvalidInput SolveError describing the first problem.
func Validate(layers []Layer, inc Incidence) error {
	if len(layers) < 2 {
		return NewInvalidInput(
			fmt.Sprintf("stack needs at least 2 layers (incident and exit media), got %d", len(layers)),
			map[string]string{"layers": strconv.Itoa(len(layers))},
		)
	}
	if !isFinite(inc.Wavelength) || inc.Wavelength <= 0 {
		return NewInvalidInput(
			fmt.Sprintf("wavelength must be > 0, got %v", inc.Wavelength),
			map[string]string{"wavelength": fmt.Sprintf("%v", inc.Wavelength)},
		)
	}
	if !isFinite(inc.Theta) || inc.Theta < 0 || inc.Theta >= math.Pi/2 {
		return NewInvalidInput(
			fmt.Sprintf("angle of incidence must be in [0, π/2), got %v", inc.Theta),
			map[string]string{"theta": fmt.Sprintf("%v", inc.Theta)},
		)
	}
	if !inc.Polarization.valid() {
		return NewInvalidInput(fmt.Sprintf("unknown polarization %q", inc.Polarization), nil)
	}

	last := len(layers) - 1
	for i, l := range layers {
		if cmplx.IsNaN(l.N) || cmplx.IsInf(l.N) {
			return layerError(i, l, fmt.Sprintf("refractive index must be finite, got %v", l.N))
		}
		if real(l.N) < 0 {
			return layerError(i, l, fmt.Sprintf("real part of refractive index must be >= 0, got %v", real(l.N)))
		}
		// Boundary media are semi-infinite; their thickness is never read.
		if i == 0 || i == last {
			continue
		}
		if !isFinite(l.Thickness) {
			return layerError(i, l, fmt.Sprintf("film thickness must be finite, got %v", l.Thickness))
		}
		if l.Thickness < 0 {
			return layerError(i, l, fmt.Sprintf("film thickness must be >= 0, got %v", l.Thickness))
		}
	}
	return nil
}

func layerError(i int, l Layer, msg string) *SolveError {
	details := map[string]string{"layer": strconv.Itoa(i)}
	if l.Name != "" {
		details["name"] = l.Name
	}
	return NewInvalidInput(fmt.Sprintf("layer %d: %s", i, msg), details)
}

func isFinite(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }
