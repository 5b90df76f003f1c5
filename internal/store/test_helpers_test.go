package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSolve creates a successful solve record for a three-layer stack.
func createTestSolve(id, stackHash string) SolveRecord {
	return SolveRecord{
		ID:            id,
		StackHash:     stackHash,
		StackName:     "test stack",
		Layers:        []float64{1, 0, 0, 2, 0, 100, 1.5, 0, 0},
		Wavelength:    500,
		Theta:         0,
		Polarization:  "te",
		Reflectance:   0.25,
		Transmittance: 0.75,
	}
}
