package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/tmm/internal/optics"
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Store open/read/write error
	ErrCodeUsage       = "E009" // Conflicting or missing flags

	// Stack file validation (see stackfile.Code*)
	ErrCodeSchema = "E100"

	// Solver errors
	ErrCodeInvalidInput         = "E201"
	ErrCodeNumericalInstability = "E202"
)

// solveErrorCode maps a solver error to its CLI code and exit code.
// Invalid input is the caller's mistake; instability is a solve failure.
func solveErrorCode(err error) (string, int) {
	switch optics.CodeOf(err) {
	case optics.ErrCodeInvalidInput:
		return ErrCodeInvalidInput, ExitCommandError
	case optics.ErrCodeNumericalInstability:
		return ErrCodeNumericalInstability, ExitFailure
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// configureLogging installs the process-wide slog handler: text on w, debug
// level when verbose.
func configureLogging(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}
