package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/roach88/tmm/internal/flat"
	"github.com/roach88/tmm/internal/optics"
	"github.com/roach88/tmm/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	StackHash string  // optional - specific stack only
	Tolerance float64 // 0 demands bit-identical results
}

// ReplayStackResult holds the replay result for a single stack.
type ReplayStackResult struct {
	StackHash     string   `json:"stack_hash"`
	StackName     string   `json:"stack_name,omitempty"`
	Solves        int      `json:"solves"`
	Deterministic bool     `json:"deterministic"`
	Drift         []string `json:"drift,omitempty"` // record IDs whose re-solve differs
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Stacks           []ReplayStackResult `json:"stacks"`
	TotalStacks      int                 `json:"total_stacks"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-solve recorded solves and verify determinism",
		Long: `Re-solve every recorded solve from its stored inputs and compare the
outcome with the recorded one.

A record drifts if R or T differ (beyond --tolerance) or if the error
code changed. Records are replayed per stack in the order they were run.

Exit codes:
  0 - All records reproduce
  1 - Drift detected
  2 - Command error (database not found, etc.)

Examples:
  tmm replay --db ./tmm.db
  tmm replay --db ./tmm.db --stack 3f2a...
  tmm replay --db ./tmm.db --tolerance 1e-12 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.StackHash, "stack", "", "replay specific stack only")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "allowed absolute/relative difference")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	logger := configureLogging(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var stacks []store.StackSummary
	if opts.StackHash != "" {
		stacks = []store.StackSummary{{StackHash: opts.StackHash}}
	} else {
		stacks, err = st.ListStacks(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list stacks", err)
		}
	}

	result := ReplayResult{
		Stacks:           make([]ReplayStackResult, 0, len(stacks)),
		TotalStacks:      len(stacks),
		AllDeterministic: true,
	}

	for _, s := range stacks {
		records, err := st.SolvesByStack(ctx, s.StackHash)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read stack %s", s.StackHash), err)
		}

		sr := ReplayStackResult{StackHash: s.StackHash, StackName: s.StackName, Solves: len(records), Deterministic: true}
		for _, rec := range records {
			if sr.StackName == "" {
				sr.StackName = rec.StackName
			}
			if !reproduces(rec, opts.Tolerance) {
				logger.Debug("replay drift", "id", rec.ID, "seq", rec.Seq)
				sr.Deterministic = false
				sr.Drift = append(sr.Drift, rec.ID)
			}
		}

		result.Stacks = append(result.Stacks, sr)
		if !sr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// reproduces re-solves a record and compares it with the stored outcome.
func reproduces(rec store.SolveRecord, tol float64) bool {
	pol, err := optics.ParsePolarization(rec.Polarization)
	var res optics.Result
	if err == nil {
		res, err = flat.SolveFlat(rec.Layers, rec.Wavelength, rec.Theta, pol)
	}

	if err != nil || rec.Failed() {
		return err != nil && rec.Failed() && string(optics.CodeOf(err)) == rec.ErrorCode
	}
	return sameValue(res.Reflectance, rec.Reflectance, tol) &&
		sameValue(res.Transmittance, rec.Transmittance, tol)
}

func sameValue(got, want, tol float64) bool {
	if tol == 0 {
		return math.Float64bits(got) == math.Float64bits(want)
	}
	return scalar.EqualWithinAbsOrRel(got, want, tol, tol)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_REPLAY_DRIFT",
			Message: "recorded solves do not reproduce",
		}
	}

	if err := jsonEncode(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay drift detected")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalStacks == 0 {
		fmt.Fprintln(w, "No solves found in database.")
		return nil
	}

	for _, s := range result.Stacks {
		mark := "✓"
		if !s.Deterministic {
			mark = "✗"
		}
		name := s.StackName
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%s %s %s: %d solve(s)", mark, shortHash(s.StackHash), name, s.Solves)
		if len(s.Drift) > 0 {
			fmt.Fprintf(w, ", %d drifted", len(s.Drift))
		}
		fmt.Fprintln(w)
		if verbose {
			for _, id := range s.Drift {
				fmt.Fprintf(w, "  drift: %s\n", id)
			}
		}
	}

	fmt.Fprintln(w)
	if !result.AllDeterministic {
		fmt.Fprintln(w, "✗ Replay drift detected")
		return NewExitError(ExitFailure, "replay drift detected")
	}
	fmt.Fprintf(w, "✓ All %d stack(s) reproduce\n", result.TotalStacks)
	return nil
}
