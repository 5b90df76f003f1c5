//go:build js && wasm

// Command wasm exposes the TMM solver to the browser via WebAssembly.
// After loading, it registers a global JavaScript function:
//
//	solve_tmm_js(layers, wavelength, theta[, polarization]) -> {reflectance, transmittance}
//
// layers is a Float64Array (or plain array) of (n, k, thickness) triples.
// On failure the returned object carries "error" and "code" instead.
package main

import (
	"fmt"
	"syscall/js"

	"github.com/roach88/tmm/internal/flat"
	"github.com/roach88/tmm/internal/optics"
)

func main() {
	js.Global().Set("solve_tmm_js", js.FuncOf(solveTMM))
	select {} // keep the WASM module alive until the page is closed
}

func solveTMM(_ js.Value, args []js.Value) any {
	if len(args) < 3 {
		return invalid("expected (layers, wavelength, theta[, polarization])")
	}

	layers, err := readFloats(args[0])
	if err != nil {
		return invalid(err.Error())
	}
	if args[1].Type() != js.TypeNumber || args[2].Type() != js.TypeNumber {
		return invalid("wavelength and theta must be numbers")
	}

	pol := optics.TE
	if len(args) > 3 {
		switch p := args[3]; p.Type() {
		case js.TypeUndefined, js.TypeNull:
		case js.TypeString:
			parsed, err := optics.ParsePolarization(p.String())
			if err != nil {
				return map[string]any{"error": err.Error(), "code": string(optics.CodeOf(err))}
			}
			pol = parsed
		default:
			return invalid(fmt.Sprintf("polarization must be a string, got %s", p.Type()))
		}
	}

	resp := flat.Respond(layers, args[1].Float(), args[2].Float(), pol)
	if resp.Error != "" {
		return map[string]any{"error": resp.Error, "code": resp.Code}
	}
	return map[string]any{
		"reflectance":   resp.Reflectance,
		"transmittance": resp.Transmittance,
	}
}

func invalid(msg string) map[string]any {
	return map[string]any{"error": msg, "code": string(optics.ErrCodeInvalidInput)}
}

// readFloats copies a typed or plain JS array of numbers.
func readFloats(v js.Value) ([]float64, error) {
	if v.Type() != js.TypeObject {
		return nil, fmt.Errorf("layers must be an array of numbers, got %s", v.Type())
	}
	length := v.Get("length")
	if length.Type() != js.TypeNumber {
		return nil, fmt.Errorf("layers must be an array of numbers")
	}
	n := length.Int()
	buf := make([]float64, n)
	for i := 0; i < n; i++ {
		e := v.Index(i)
		if e.Type() != js.TypeNumber {
			return nil, fmt.Errorf("layers[%d] is %s, not a number", i, e.Type())
		}
		buf[i] = e.Float()
	}
	return buf, nil
}
