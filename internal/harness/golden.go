package harness

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison.
// Values are rounded to six decimals so that last-bit differences between
// platforms do not churn golden files.
func Snapshot(result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", result.Scenario)
	for _, c := range result.Cases {
		fmt.Fprintf(&b, "[%d]", c.Index)
		if c.Name != "" {
			fmt.Fprintf(&b, " %s", c.Name)
		}
		if c.ErrorCode != "" {
			fmt.Fprintf(&b, ": error %s\n", c.ErrorCode)
			continue
		}
		fmt.Fprintf(&b, ": R=%s T=%s A=%s\n",
			fixed6(c.Reflectance), fixed6(c.Transmittance), fixed6(c.Absorptance))
	}
	return []byte(b.String())
}

// fixed6 formats v with six decimals, folding values that round to zero
// into "0.000000" so a tiny negative absorptance does not print as -0.
func fixed6(v float64) string {
	if math.Abs(v) < 5e-7 {
		v = 0
	}
	return fmt.Sprintf("%.6f", v)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
