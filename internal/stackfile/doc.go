// Package stackfile loads layer stacks from YAML definition files.
//
// # File Format
//
//	name: MgF2 AR on glass
//	wavelength: 550       # optional, default for solves
//	angle_deg: 0          # optional
//	polarization: te      # te | tm | unpolarized (s/p accepted)
//	layers:
//	  - {name: air, n: 1.0}
//	  - {name: MgF2, n: 1.38, thickness: 99.64}
//	  - {name: glass, n: 1.52, k: 0}
//
// The first and last layers are the semi-infinite ambient media and take no
// thickness; every layer in between must have one.
//
// # Validation
//
// Documents are checked in two passes:
//  1. Structure, against the embedded CUE schema (schema.cue). Definitions
//     are closed, so misspelled keys are rejected.
//  2. Physics, via optics.Validate on the converted stack.
//
// All problems found are returned together in a *ValidationError.
//
// # Identity
//
// Hash gives a stack a content address. Layer names are NFC-normalised on
// load so that visually identical names produce identical hashes.
package stackfile
