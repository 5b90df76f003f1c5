package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/tmm/internal/flat"
	"github.com/roach88/tmm/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Limit     int
	StackHash string
	Stacks    bool
	ID        string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded solves",
		Long: `List solves recorded with "tmm solve --db".

By default the most recent solves are listed, newest first. With --stack,
every solve of one stack is listed in the order it was run. With --stacks,
one summary line per stack is shown instead. With --id, one record is shown
in full.

Examples:
  tmm history --db ./tmm.db
  tmm history --db ./tmm.db --limit 50
  tmm history --db ./tmm.db --stack 3f2a...
  tmm history --db ./tmm.db --stacks --format json
  tmm history --db ./tmm.db --id 01920b6e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum records to list (0 = all)")
	cmd.Flags().StringVar(&opts.StackHash, "stack", "", "list every solve of this stack hash")
	cmd.Flags().BoolVar(&opts.Stacks, "stacks", false, "summarise per stack")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single record")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer st.Close()

	if opts.ID != "" {
		return showRecord(ctx, st, opts.ID, formatter)
	}

	if opts.Stacks {
		stacks, err := st.ListStacks(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list stacks", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(stacks)
		}
		if len(stacks) == 0 {
			fmt.Fprintln(formatter.Writer, "No solves recorded.")
			return nil
		}
		for _, s := range stacks {
			fmt.Fprintf(formatter.Writer, "%s  %-24s %4d solve(s) %3d failed  last #%d\n",
				shortHash(s.StackHash), orUnnamed(s.StackName), s.Solves, s.Failures, s.LastSeq)
		}
		return nil
	}

	var records []store.SolveRecord
	if opts.StackHash != "" {
		records, err = st.SolvesByStack(ctx, opts.StackHash)
	} else {
		records, err = st.ListSolves(ctx, opts.Limit)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read solves", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No solves recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintln(formatter.Writer, formatRecord(r, formatter.Verbose))
	}
	return nil
}

// showRecord prints one record with its inputs.
func showRecord(ctx context.Context, st *store.Store, id string, formatter *OutputFormatter) error {
	rec, err := st.ReadSolve(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no solve with id %s", id), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("solve not found: %s", id))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read solve", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(rec)
	}
	fmt.Fprintln(formatter.Writer, formatRecord(rec, true))
	if rec.Failed() {
		fmt.Fprintf(formatter.Writer, "       %s\n", rec.ErrorMessage)
	}
	return nil
}

// formatRecord renders one record as a single line (two when verbose).
func formatRecord(r store.SolveRecord, verbose bool) string {
	outcome := fmt.Sprintf("R=%.6f T=%.6f", r.Reflectance, r.Transmittance)
	if r.Failed() {
		outcome = "error " + r.ErrorCode
	}
	line := fmt.Sprintf("#%-5d %s  %-20s λ=%-8g θ=%7.3f° %-11s %s",
		r.Seq, shortHash(r.StackHash), orUnnamed(r.StackName),
		r.Wavelength, r.Theta*180/math.Pi, r.Polarization, outcome)
	if verbose {
		line += fmt.Sprintf("\n       id=%s layers=%q", r.ID, flat.Format(r.Layers))
	}
	return line
}

func orUnnamed(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// openExisting opens a store that must already exist.
func openExisting(path string) (*store.Store, error) {
	st, err := store.OpenExisting(path)
	if errors.Is(err, store.ErrNotFound) {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
