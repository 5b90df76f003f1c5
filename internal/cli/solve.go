package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tmm/internal/flat"
	"github.com/roach88/tmm/internal/optics"
	"github.com/roach88/tmm/internal/stackfile"
	"github.com/roach88/tmm/internal/store"
	"github.com/roach88/tmm/internal/watch"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Layers       string
	Wavelength   float64
	Angle        float64 // radians
	AngleDeg     float64
	Polarization string
	Amplitudes   bool
	Database     string
	Watch        bool

	// IDGenerator allows overriding record IDs (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// SolveOutput is the solve command's result payload.
type SolveOutput struct {
	Stack         string            `json:"stack,omitempty"`
	StackHash     string            `json:"stack_hash"`
	Layers        int               `json:"layers"`
	Wavelength    float64           `json:"wavelength"`
	Theta         float64           `json:"theta"`
	AngleDeg      float64           `json:"angle_deg"`
	Polarization  string            `json:"polarization"`
	Reflectance   float64           `json:"reflectance"`
	Transmittance float64           `json:"transmittance"`
	Absorptance   float64           `json:"absorptance"`
	Amplitudes    *AmplitudesOutput `json:"amplitudes,omitempty"`
}

// AmplitudesOutput carries complex r and t as (re, im) pairs.
type AmplitudesOutput struct {
	Reflection   [2]float64 `json:"r"`
	Transmission [2]float64 `json:"t"`
}

func (o SolveOutput) String() string {
	var b strings.Builder
	name := o.Stack
	if name == "" {
		name = "(inline)"
	}
	fmt.Fprintf(&b, "stack:  %s, %d layers, %s\n", name, o.Layers, shortHash(o.StackHash))
	fmt.Fprintf(&b, "light:  λ=%g θ=%.4f° %s\n", o.Wavelength, o.AngleDeg, o.Polarization)
	fmt.Fprintf(&b, "R=%.6f T=%.6f A=%.6f", o.Reflectance, o.Transmittance, o.Absorptance)
	if a := o.Amplitudes; a != nil {
		fmt.Fprintf(&b, "\nr=%.6f%+.6fi t=%.6f%+.6fi",
			a.Reflection[0], a.Reflection[1], a.Transmission[0], a.Transmission[1])
	}
	return b.String()
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	return newSolveCommand(&SolveOptions{RootOptions: rootOpts})
}

func newSolveCommand(opts *SolveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [stack-file]",
		Short: "Compute R and T for a layer stack",
		Long: `Compute the reflectance and transmittance of a layer stack.

The stack comes either from a YAML stack file or from --layers, a list of
"n,k,thickness" triples separated by ';'. The first and last triples are
the ambient media (their thickness is ignored).

Wavelength, angle and polarization default to the stack file's values;
flags override them. Wavelength and thickness share one length unit.

Exit codes:
  0 - Solved
  1 - Numerical instability
  2 - Invalid input or command error

Examples:
  tmm solve ar.yaml
  tmm solve ar.yaml --wavelength 600 --angle-deg 30 --polarization unpolarized
  tmm solve --layers "1,0,0; 2,0,100; 1.5,0,0" --wavelength 500
  tmm solve ar.yaml --db ./tmm.db
  tmm solve ar.yaml --watch`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSolve(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Layers, "layers", "", `inline stack: "n,k,d; n,k,d; ..."`)
	cmd.Flags().Float64Var(&opts.Wavelength, "wavelength", 0, "vacuum wavelength (overrides stack file)")
	cmd.Flags().Float64Var(&opts.Angle, "angle", 0, "angle of incidence in radians")
	cmd.Flags().Float64Var(&opts.AngleDeg, "angle-deg", 0, "angle of incidence in degrees")
	cmd.Flags().StringVar(&opts.Polarization, "polarization", "", "te|tm|unpolarized (default te)")
	cmd.Flags().BoolVar(&opts.Amplitudes, "amplitudes", false, "also report complex r and t")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the solve in this SQLite database")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-solve whenever the stack file changes")

	return cmd
}

// solveRequest is a fully resolved solve.
type solveRequest struct {
	name   string
	layers []optics.Layer
	inc    optics.Incidence
}

func runSolve(opts *SolveOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := configureLogging(opts.RootOptions, cmd.ErrOrStderr())

	if err := checkSolveFlags(opts, path, cmd); err != nil {
		_ = formatter.Error(ErrCodeUsage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		logger.Debug("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	ids := opts.IDGenerator
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}

	if !opts.Watch {
		return solveOnce(cmd.Context(), opts, path, cmd, formatter, logger, st, ids)
	}
	return solveWatch(opts, path, cmd, formatter, logger, st, ids)
}

// checkSolveFlags rejects flag combinations that cannot be resolved.
func checkSolveFlags(opts *SolveOptions, path string, cmd *cobra.Command) error {
	switch {
	case path == "" && opts.Layers == "":
		return fmt.Errorf("a stack file or --layers is required")
	case path != "" && opts.Layers != "":
		return fmt.Errorf("stack file and --layers are mutually exclusive")
	case cmd.Flags().Changed("angle") && cmd.Flags().Changed("angle-deg"):
		return fmt.Errorf("--angle and --angle-deg are mutually exclusive")
	case opts.Watch && path == "":
		return fmt.Errorf("--watch needs a stack file")
	}
	return nil
}

// resolve builds the solve request from the stack source and flags.
func resolve(opts *SolveOptions, path string, cmd *cobra.Command) (solveRequest, error) {
	var angleDeg *float64
	switch {
	case cmd.Flags().Changed("angle-deg"):
		d := opts.AngleDeg
		angleDeg = &d
	case cmd.Flags().Changed("angle"):
		d := opts.Angle * 180 / math.Pi
		angleDeg = &d
	}

	if path != "" {
		stack, err := stackfile.Load(path)
		if err != nil {
			return solveRequest{}, err
		}
		var wavelength *float64
		if cmd.Flags().Changed("wavelength") {
			wavelength = &opts.Wavelength
		}
		inc, err := stack.Incidence(stackfile.Overrides{
			Wavelength:   wavelength,
			AngleDeg:     angleDeg,
			Polarization: opts.Polarization,
		})
		if err != nil {
			return solveRequest{}, err
		}
		if cmd.Flags().Changed("angle") {
			inc.Theta = opts.Angle // keep radians exact
		}
		return solveRequest{name: stack.Name, layers: stack.OpticsLayers(), inc: inc}, nil
	}

	buf, err := flat.Parse(opts.Layers)
	if err != nil {
		return solveRequest{}, optics.NewInvalidInput(fmt.Sprintf("--layers: %v", err), nil)
	}
	layers, err := flat.Decode(buf)
	if err != nil {
		return solveRequest{}, err
	}
	pol, err := optics.ParsePolarization(opts.Polarization)
	if err != nil {
		return solveRequest{}, err
	}
	theta := opts.Angle
	if angleDeg != nil && !cmd.Flags().Changed("angle") {
		theta = *angleDeg * math.Pi / 180
	}
	return solveRequest{
		layers: layers,
		inc:    optics.Incidence{Wavelength: opts.Wavelength, Theta: theta, Polarization: pol},
	}, nil
}

func solveOnce(
	ctx context.Context,
	opts *SolveOptions,
	path string,
	cmd *cobra.Command,
	formatter *OutputFormatter,
	logger *slog.Logger,
	st *store.Store,
	ids store.IDGenerator,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := resolve(opts, path, cmd)
	if err == nil && opts.Amplitudes && req.inc.Polarization == optics.Unpolarized {
		err = optics.NewInvalidInput("--amplitudes needs a single polarization (te or tm)", nil)
	}
	if err != nil {
		return reportResolveError(formatter, err)
	}

	hash, hashErr := stackfile.Hash(req.layers)
	if hashErr != nil {
		logger.Debug("stack not hashable", "error", hashErr)
	}

	out := SolveOutput{
		Stack:        req.name,
		StackHash:    hash,
		Layers:       len(req.layers),
		Wavelength:   req.inc.Wavelength,
		Theta:        req.inc.Theta,
		AngleDeg:     req.inc.Theta * 180 / math.Pi,
		Polarization: string(req.inc.Polarization),
	}

	var solveErr error
	if opts.Amplitudes {
		var amp optics.Amplitudes
		amp, solveErr = optics.SolveAmplitudes(req.layers, req.inc)
		if solveErr == nil {
			out.Reflectance, out.Transmittance = amp.Reflectance, amp.Transmittance
			out.Amplitudes = &AmplitudesOutput{
				Reflection:   [2]float64{real(amp.Reflection), imag(amp.Reflection)},
				Transmission: [2]float64{real(amp.Transmission), imag(amp.Transmission)},
			}
		}
	} else {
		var res optics.Result
		res, solveErr = optics.Solve(req.layers, req.inc)
		out.Reflectance, out.Transmittance = res.Reflectance, res.Transmittance
	}
	out.Absorptance = 1 - out.Reflectance - out.Transmittance

	recordID := ""
	if st != nil {
		recordID = record(ctx, st, ids, logger, req, hash, out, solveErr)
	}

	if solveErr != nil {
		code, exit := solveErrorCode(solveErr)
		details := map[string]string{}
		var se *optics.SolveError
		if errors.As(solveErr, &se) {
			for k, v := range se.Details {
				details[k] = v
			}
		}
		if recordID != "" {
			details["record_id"] = recordID
		}
		_ = formatter.Error(code, solveErr.Error(), details)
		return WrapExitError(exit, "solve failed", solveErr)
	}

	logger.Debug("solved",
		"stack_hash", hash,
		"wavelength", out.Wavelength,
		"theta", out.Theta,
		"polarization", out.Polarization,
		"reflectance", out.Reflectance,
		"transmittance", out.Transmittance,
	)

	if formatter.Format == "json" {
		return jsonEncode(formatter.Writer, CLIResponse{Status: "ok", Data: out, RecordID: recordID})
	}
	fmt.Fprintln(formatter.Writer, out.String())
	if recordID != "" {
		formatter.VerboseLog("recorded %s", recordID)
	}
	return nil
}

// record stores a solve and returns its ID, or "" if it could not be stored.
// Storage problems are logged, not fatal: the solve itself succeeded.
func record(
	ctx context.Context,
	st *store.Store,
	ids store.IDGenerator,
	logger *slog.Logger,
	req solveRequest,
	hash string,
	out SolveOutput,
	solveErr error,
) string {
	rec := store.SolveRecord{
		ID:            ids.Generate(),
		StackHash:     hash,
		StackName:     req.name,
		Layers:        flat.Encode(req.layers),
		Wavelength:    req.inc.Wavelength,
		Theta:         req.inc.Theta,
		Polarization:  string(req.inc.Polarization),
		Reflectance:   out.Reflectance,
		Transmittance: out.Transmittance,
	}
	if solveErr != nil {
		rec.Reflectance, rec.Transmittance = 0, 0
		rec.ErrorCode = string(optics.CodeOf(solveErr))
		if rec.ErrorCode == "" {
			rec.ErrorCode = "UNKNOWN"
		}
		rec.ErrorMessage = solveErr.Error()
	}

	seq, _, err := st.WriteSolve(ctx, rec)
	if err != nil {
		logger.Warn("solve not recorded", "error", err)
		return ""
	}
	logger.Debug("solve recorded", "id", rec.ID, "seq", seq)
	return rec.ID
}

// reportResolveError outputs a failure to build the solve request.
func reportResolveError(formatter *OutputFormatter, err error) error {
	var verr *stackfile.ValidationError
	if errors.As(err, &verr) {
		_ = formatter.Error(ErrCodeSchema, err.Error(), verr.Issues)
		return WrapExitError(ExitCommandError, "invalid stack file", err)
	}
	if optics.CodeOf(err) != "" {
		code, exit := solveErrorCode(err)
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(exit, "invalid input", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "stack file not found", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load stack", err)
}

// solveWatch solves, then re-solves on every change to the stack file
// until interrupted. Solve failures are reported and watching continues.
func solveWatch(
	opts *SolveOptions,
	path string,
	cmd *cobra.Command,
	formatter *OutputFormatter,
	logger *slog.Logger,
	st *store.Store,
	ids store.IDGenerator,
) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	w, err := watch.New(path, 0, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch stack file", err)
	}
	defer w.Close()

	events, err := w.Watch(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to watch stack file", err)
	}

	logger.Info("watching stack file", "path", w.Path())
	if err := solveOnce(ctx, opts, path, cmd, formatter, logger, st, ids); err != nil {
		logger.Debug("initial solve failed", "error", err)
	}

	for range events {
		logger.Info("stack file changed", "path", w.Path())
		if err := solveOnce(ctx, opts, path, cmd, formatter, logger, st, ids); err != nil {
			logger.Debug("solve failed", "error", err)
		}
	}

	logger.Info("watch stopped")
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "unhashed"
	}
	return h
}
