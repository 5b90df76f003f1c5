// Package optics implements the transfer matrix method (TMM) for planar
// multilayer stacks.
//
// A stack is an ordered slice of Layers. The first and last entries are the
// semi-infinite incident and exit media; every entry in between is a finite
// film. Solve combines the per-film characteristic matrices in stack order and
// closes the system with the admittances of the two ambient media:
//
//	[B; C] = M1·M2·…·Mk · [1; ηN]
//	r = (η0·B − C) / (η0·B + C)
//	t = 2·η0 / (η0·B + C)
//	R = |r|²,  T = Re(ηN)/Re(η0)·|t|²
//
// # Conventions
//
//   - Indices are supplied as n + ik with k ≥ 0 for absorbing media. The
//     kernel works with the conjugate n − ik, the sign convention in which
//     the characteristic matrix [[cos δ, i sin δ/η], [iη sin δ, cos δ]]
//     attenuates the forward wave. R and T do not depend on this choice; the
//     complex amplitudes returned by SolveAmplitudes do.
//   - Admittances are in units of the free-space admittance:
//     TE (s) η = N cos θ, TM (p) η = N / cos θ.
//   - Thickness and wavelength share one length unit (nm by convention).
//   - Angles are radians, measured in the incident medium.
//
// # Errors
//
// Malformed arguments are rejected before computation with an
// ErrCodeInvalidInput SolveError. A non-finite R or T after computation is
// reported as ErrCodeNumericalInstability and is never clamped.
//
// All functions are pure and safe for concurrent use.
package optics
