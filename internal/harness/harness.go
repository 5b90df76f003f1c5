package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/roach88/tmm/internal/optics"
)

// Runner executes scenarios.
type Runner struct {
	// Workers bounds the number of concurrent solves. Zero means
	// runtime.NumCPU().
	Workers int

	// Logger receives per-case debug output. Nil discards.
	Logger *slog.Logger
}

// Run executes a scenario with default settings.
func Run(scenario *Scenario) (*Result, error) {
	return (&Runner{}).Run(context.Background(), scenario)
}

type job struct {
	index int
	c     Case
}

// Run executes every case of the scenario and returns the result.
// It returns an error only if ctx is cancelled; solver failures are
// case outcomes.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := r.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(scenario.Cases) {
		workers = len(scenario.Cases)
	}

	layers := scenario.OpticsLayers()
	defaultWavelength := 0.0
	if scenario.stack != nil {
		defaultWavelength = scenario.stack.Wavelength
	}

	results := make([]CaseResult, len(scenario.Cases))
	jobs := make(chan job)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				cr := runCase(layers, j.c, defaultWavelength)
				cr.Index = j.index
				logger.Debug("case finished",
					"scenario", scenario.Name,
					"case", j.index,
					"name", j.c.Name,
					"pass", cr.Pass,
					"error_code", cr.ErrorCode,
				)
				results[j.index] = cr
			}
		}()
	}

	var cancelled error
feed:
	for i, c := range scenario.Cases {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- job{index: i, c: c}:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, cancelled)
	}

	result := &Result{Scenario: scenario.Name, Pass: true, Cases: results}
	for _, c := range results {
		if !c.Pass {
			result.Pass = false
		}
	}
	return result, nil
}

// runCase solves one case and checks it against its expect clause.
func runCase(layers []optics.Layer, c Case, defaultWavelength float64) CaseResult {
	cr := CaseResult{Name: c.Name, Pass: true}

	wavelength := defaultWavelength
	if c.Wavelength != nil {
		wavelength = *c.Wavelength
	}

	res, err := solveCase(layers, wavelength, c.AngleDeg, c.Polarization)
	if err != nil {
		cr.ErrorCode = string(optics.CodeOf(err))
		if cr.ErrorCode == "" {
			cr.ErrorCode = "UNKNOWN"
		}
		cr.ErrorMessage = err.Error()
	} else {
		cr.Reflectance = res.Reflectance
		cr.Transmittance = res.Transmittance
		cr.Absorptance = res.Absorptance()
	}

	checkExpect(&cr, c.Expect)
	return cr
}

func solveCase(layers []optics.Layer, wavelength, angleDeg float64, polarization string) (optics.Result, error) {
	pol, err := optics.ParsePolarization(polarization)
	if err != nil {
		return optics.Result{}, err
	}
	return optics.Solve(layers, optics.Incidence{
		Wavelength:   wavelength,
		Theta:        angleDeg * math.Pi / 180,
		Polarization: pol,
	})
}

// checkExpect records every mismatch between cr and e.
func checkExpect(cr *CaseResult, e Expect) {
	if e.Error != "" {
		switch {
		case cr.ErrorCode == "":
			cr.addError(fmt.Sprintf("expected error %s, got R=%.9g T=%.9g", e.Error, cr.Reflectance, cr.Transmittance))
		case cr.ErrorCode != e.Error:
			cr.addError(fmt.Sprintf("expected error %s, got %s: %s", e.Error, cr.ErrorCode, cr.ErrorMessage))
		}
		return
	}

	if cr.ErrorCode != "" {
		cr.addError(fmt.Sprintf("unexpected error %s: %s", cr.ErrorCode, cr.ErrorMessage))
		return
	}

	tol := e.tolerance()
	checkValue(cr, "reflectance", cr.Reflectance, e.Reflectance, tol)
	checkValue(cr, "transmittance", cr.Transmittance, e.Transmittance, tol)
	checkValue(cr, "absorptance", cr.Absorptance, e.Absorptance, tol)
}

func checkValue(cr *CaseResult, field string, got float64, want *float64, tol float64) {
	if want == nil {
		return
	}
	if !scalar.EqualWithinAbsOrRel(got, *want, tol, tol) {
		cr.addError(fmt.Sprintf("%s = %.9g, want %.9g (tolerance %g)", field, got, *want, tol))
	}
}
