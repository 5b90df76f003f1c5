package optics

import (
	"math"
	"math/cmplx"
)

// evanescentTol is the relative |Im(q)| below which a normal component is
// treated as real and its root picked by the sign of Re(q).
const evanescentTol = 1e-12

// Solve returns the power reflectance and transmittance of the stack.
//
// layers[0] is the incident medium and layers[len-1] the exit medium; both
// are semi-infinite. Unpolarized incidence averages the TE and TM results.
func Solve(layers []Layer, inc Incidence) (Result, error) {
	if err := Validate(layers, inc); err != nil {
		return Result{}, err
	}

	var res Result
	switch inc.Polarization.orDefault() {
	case Unpolarized:
		te := solve(layers, inc.Wavelength, inc.Theta, TE)
		tm := solve(layers, inc.Wavelength, inc.Theta, TM)
		res = Result{
			Reflectance:   (te.Reflectance + tm.Reflectance) / 2,
			Transmittance: (te.Transmittance + tm.Transmittance) / 2,
		}
	default:
		res = solve(layers, inc.Wavelength, inc.Theta, inc.Polarization.orDefault()).Result
	}

	if !isFinite(res.Reflectance) || !isFinite(res.Transmittance) {
		return Result{}, NewNumericalInstability(res)
	}
	return res, nil
}

// SolveAmplitudes is Solve for a single polarization, additionally returning
// the complex coefficients r and t. Unpolarized incidence is rejected since
// amplitudes are defined per polarization.
func SolveAmplitudes(layers []Layer, inc Incidence) (Amplitudes, error) {
	if err := Validate(layers, inc); err != nil {
		return Amplitudes{}, err
	}
	pol := inc.Polarization.orDefault()
	if pol == Unpolarized {
		return Amplitudes{}, NewInvalidInput("amplitudes need a single polarization (te or tm)", nil)
	}

	amp := solve(layers, inc.Wavelength, inc.Theta, pol)
	if !isFinite(amp.Reflectance) || !isFinite(amp.Transmittance) {
		return Amplitudes{}, NewNumericalInstability(amp.Result)
	}
	return amp, nil
}

// solve is the kernel. Inputs must already be validated.
func solve(layers []Layer, wavelength, theta float64, pol Polarization) Amplitudes {
	last := len(layers) - 1
	k0 := 2 * math.Pi / wavelength

	// Incident medium: the angle is given there, so q0 = N0 cos θ0 directly.
	n0 := layers[0].internalIndex()
	s := n0 * complex(math.Sin(theta), 0) // Snell invariant N sin θ
	q0 := n0 * complex(math.Cos(theta), 0)
	eta0 := admittance(n0, q0, pol)

	m := Identity2()
	for _, l := range layers[1:last] {
		if l.Thickness == 0 {
			continue
		}
		n := l.internalIndex()
		q := normalComponent(n, s)
		m = m.Mul(characteristic(complex(k0*l.Thickness, 0)*q, admittance(n, q, pol)))
	}

	nN := layers[last].internalIndex()
	etaN := admittance(nN, normalComponent(nN, s), pol)

	b, c := m.Apply(1, etaN)
	den := eta0*b + c
	r := (eta0*b - c) / den
	t := 2 * eta0 / den

	return Amplitudes{
		Result: Result{
			Reflectance:   sqAbs(r),
			Transmittance: real(etaN) / real(eta0) * sqAbs(t),
		},
		Reflection:   r,
		Transmission: t,
	}
}

// normalComponent returns q = N cos θ for a medium of index n given the Snell
// invariant s, i.e. a root of q² = n² − s². The root is the forward one: the
// wave decays (Im q < 0 in this sign convention) or, when q is real,
// propagates with Re q ≥ 0. Total internal reflection yields q = −i|q|.
func normalComponent(n, s complex128) complex128 {
	q := cmplx.Sqrt(n*n - s*s)
	if math.Abs(imag(q)) > evanescentTol*math.Max(1, cmplx.Abs(q)) {
		if imag(q) > 0 {
			q = -q
		}
	} else if real(q) < 0 {
		q = -q
	}
	return q
}

// admittance returns the tilted optical admittance of a medium.
func admittance(n, q complex128, pol Polarization) complex128 {
	if pol == TM {
		return n * n / q
	}
	return q
}

// characteristic returns the matrix of a film with phase thickness delta and
// admittance eta.
func characteristic(delta, eta complex128) Mat2 {
	cos := cmplx.Cos(delta)
	isin := complex(0, 1) * cmplx.Sin(delta)
	return Mat2{M: [2][2]complex128{
		{cos, isin / eta},
		{eta * isin, cos},
	}}
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
