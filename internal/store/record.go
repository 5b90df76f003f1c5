package store

// SolveRecord is one recorded solve.
//
// Layers holds the stack as a flat buffer of (n, k, thickness) triples, the
// same layout flat.Encode produces. A failed solve has a non-empty ErrorCode
// and zero Reflectance/Transmittance.
type SolveRecord struct {
	ID            string    `json:"id"`
	Seq           int64     `json:"seq"`
	StackHash     string    `json:"stack_hash"`
	StackName     string    `json:"stack_name,omitempty"`
	Layers        []float64 `json:"layers"`
	Wavelength    float64   `json:"wavelength"`
	Theta         float64   `json:"theta"`
	Polarization  string    `json:"polarization"`
	Reflectance   float64   `json:"reflectance"`
	Transmittance float64   `json:"transmittance"`
	ErrorCode     string    `json:"error_code,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// Failed reports whether the recorded solve returned an error.
func (r SolveRecord) Failed() bool {
	return r.ErrorCode != ""
}
