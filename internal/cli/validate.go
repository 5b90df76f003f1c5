package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/tmm/internal/stackfile"
)

// FileValidation holds the validation result of one stack file.
type FileValidation struct {
	Path      string            `json:"path"`
	Valid     bool              `json:"valid"`
	StackHash string            `json:"stack_hash,omitempty"`
	Issues    []stackfile.Issue `json:"issues,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <stack-file>...",
		Short: "Validate stack files without solving",
		Long: `Validate stack files against the stack schema and the solver's
input rules without solving them.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		stack, err := stackfile.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("stack file not found: %s", path), nil)
			return WrapExitError(ExitCommandError, "stack file not found", err)
		}

		fv := FileValidation{Path: path, Valid: err == nil}
		if err != nil {
			var verr *stackfile.ValidationError
			if errors.As(err, &verr) {
				fv.Issues = verr.Issues
			} else {
				fv.Issues = []stackfile.Issue{{Field: "document", Message: err.Error(), Code: ErrCodeGeneric}}
			}
			result.Valid = false
		} else {
			fv.StackHash, _ = stackfile.Hash(stack.OpticsLayers())
		}
		result.Files = append(result.Files, fv)
	}

	return outputValidation(formatter, result)
}

// outputValidation outputs the per-file results.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	invalid := 0
	for _, f := range result.Files {
		if !f.Valid {
			invalid++
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if invalid > 0 {
			first := firstIssue(result)
			response.Status = "error"
			response.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := jsonEncode(formatter.Writer, response); err != nil {
			return err
		}
	} else {
		for _, f := range result.Files {
			if f.Valid {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", f.Path)
				if formatter.Verbose {
					fmt.Fprintf(formatter.Writer, "  hash %s\n", f.StackHash)
				}
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", f.Path)
			for _, is := range f.Issues {
				fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", is.Code, is.Field, is.Message)
			}
		}
	}

	if invalid > 0 {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d stack file(s) invalid", invalid, len(result.Files)))
	}
	return nil
}

func firstIssue(result ValidationResult) stackfile.Issue {
	for _, f := range result.Files {
		if len(f.Issues) > 0 {
			return f.Issues[0]
		}
	}
	return stackfile.Issue{Code: ErrCodeGeneric, Message: "validation failed"}
}
