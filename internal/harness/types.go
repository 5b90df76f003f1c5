package harness

import "fmt"

// CaseResult is the outcome of a single case.
type CaseResult struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`

	Reflectance   float64 `json:"reflectance"`
	Transmittance float64 `json:"transmittance"`
	Absorptance   float64 `json:"absorptance"`

	// ErrorCode is set when the solve failed.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Pass indicates the outcome matched the expect clause.
	Pass bool `json:"pass"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// addError adds a mismatch and marks the case as failed.
func (c *CaseResult) addError(err string) {
	c.Errors = append(c.Errors, err)
	c.Pass = false
}

// label identifies the case in messages.
func (c *CaseResult) label() string {
	if c.Name != "" {
		return c.Name
	}
	return "case"
}

// Result is the outcome of a scenario execution.
type Result struct {
	Scenario string `json:"scenario"`

	// Pass is true if every case passed.
	Pass bool `json:"pass"`

	// Cases holds one result per scenario case, in scenario order.
	Cases []CaseResult `json:"cases"`
}

// Errors flattens the mismatches of every failed case.
func (r *Result) Errors() []string {
	var errs []string
	for _, c := range r.Cases {
		for _, e := range c.Errors {
			errs = append(errs, fmt.Sprintf("cases[%d] %s: %s", c.Index, c.label(), e))
		}
	}
	return errs
}

// Failed counts the failed cases.
func (r *Result) Failed() int {
	n := 0
	for _, c := range r.Cases {
		if !c.Pass {
			n++
		}
	}
	return n
}
