// Package flat converts between optics layers and the flat numeric buffer
// used across host boundaries (WebAssembly, CLI flags, the store).
//
// A buffer is a sequence of (n, k, thickness) triples, one per layer, in
// stack order. The first and last triples are the ambient media; their
// thickness fields are carried but ignored by the solver.
package flat

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/tmm/internal/optics"
)

// Stride is the number of float64 fields per layer.
const Stride = 3

// Response is the fixed-shape record handed back to a host.
type Response struct {
	Reflectance   float64 `json:"reflectance"`
	Transmittance float64 `json:"transmittance"`
	Error         string  `json:"error,omitempty"`
	Code          string  `json:"code,omitempty"`
}

// Decode splits buf into layers.
func Decode(buf []float64) ([]optics.Layer, error) {
	if len(buf) == 0 || len(buf)%Stride != 0 {
		return nil, optics.NewInvalidInput(
			fmt.Sprintf("layer buffer length must be a positive multiple of %d, got %d", Stride, len(buf)),
			map[string]string{"length": strconv.Itoa(len(buf))},
		)
	}
	layers := make([]optics.Layer, 0, len(buf)/Stride)
	for i := 0; i < len(buf); i += Stride {
		layers = append(layers, optics.NewLayer(buf[i], buf[i+1], buf[i+2]))
	}
	return layers, nil
}

// Encode is the inverse of Decode. Infinite ambient thicknesses are written
// as 0 so the buffer stays JSON-safe.
func Encode(layers []optics.Layer) []float64 {
	buf := make([]float64, 0, len(layers)*Stride)
	for _, l := range layers {
		d := l.Thickness
		if math.IsInf(d, 0) {
			d = 0
		}
		buf = append(buf, real(l.N), imag(l.N), d)
	}
	return buf
}

// SolveFlat decodes buf and solves it at the given wavelength and angle.
func SolveFlat(buf []float64, wavelength, theta float64, pol optics.Polarization) (optics.Result, error) {
	layers, err := Decode(buf)
	if err != nil {
		return optics.Result{}, err
	}
	return optics.Solve(layers, optics.Incidence{
		Wavelength:   wavelength,
		Theta:        theta,
		Polarization: pol,
	})
}

// Respond runs SolveFlat and folds the outcome into a Response.
func Respond(buf []float64, wavelength, theta float64, pol optics.Polarization) Response {
	res, err := SolveFlat(buf, wavelength, theta, pol)
	if err != nil {
		return Response{Error: err.Error(), Code: string(optics.CodeOf(err))}
	}
	return Response{Reflectance: res.Reflectance, Transmittance: res.Transmittance}
}
