package optics

import (
	"errors"
	"fmt"
)

// SolveError is returned by Solve and SolveAmplitudes.
//
// Solve errors fall into two categories:
//   - Invalid input: detected before any computation
//   - Numerical instability: a non-finite R or T after computation
//
// Neither is retryable; the computation is deterministic.
type SolveError struct {
	// Code identifies the error category.
	Code SolveErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (layer index, offending value...).
	Details map[string]string
}

// SolveErrorCode categorizes solve errors.
type SolveErrorCode string

const (
	// ErrCodeInvalidInput indicates malformed or out-of-range arguments.
	ErrCodeInvalidInput SolveErrorCode = "INVALID_INPUT"

	// ErrCodeNumericalInstability indicates a non-finite R or T, typically
	// a singular boundary combination such as a zero admittance sum.
	ErrCodeNumericalInstability SolveErrorCode = "NUMERICAL_INSTABILITY"
)

// Error implements the error interface.
func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInput creates a SolveError for rejected arguments.
func NewInvalidInput(message string, details map[string]string) *SolveError {
	return &SolveError{Code: ErrCodeInvalidInput, Message: message, Details: details}
}

// NewNumericalInstability creates a SolveError for a non-finite result.
func NewNumericalInstability(res Result) *SolveError {
	return &SolveError{
		Code:    ErrCodeNumericalInstability,
		Message: fmt.Sprintf("non-finite result (R=%v, T=%v)", res.Reflectance, res.Transmittance),
		Details: map[string]string{
			"reflectance":   fmt.Sprintf("%v", res.Reflectance),
			"transmittance": fmt.Sprintf("%v", res.Transmittance),
		},
	}
}

// IsInvalidInput returns true if err is (or wraps) an invalid input error.
func IsInvalidInput(err error) bool {
	return codeOf(err) == ErrCodeInvalidInput
}

// IsNumericalInstability returns true if err is (or wraps) a numerical
// instability error.
func IsNumericalInstability(err error) bool {
	return codeOf(err) == ErrCodeNumericalInstability
}

// CodeOf returns the SolveErrorCode carried by err, or "" if err is not a
// SolveError.
func CodeOf(err error) SolveErrorCode {
	return codeOf(err)
}

func codeOf(err error) SolveErrorCode {
	var se *SolveError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
