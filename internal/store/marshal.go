package store

import (
	"encoding/json"
	"fmt"
	"math"
)

// marshalLayers converts a flat layer buffer to JSON TEXT for storage.
// JSON has no representation for NaN or Inf, so those are rejected here
// rather than silently stored as null.
func marshalLayers(layers []float64) (string, error) {
	if layers == nil {
		layers = []float64{}
	}
	for i, v := range layers {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("marshal layers: value %d is not finite", i)
		}
	}
	data, err := json.Marshal(layers)
	if err != nil {
		return "", fmt.Errorf("marshal layers: %w", err)
	}
	return string(data), nil
}

// unmarshalLayers parses layers JSON from the database.
func unmarshalLayers(data string) ([]float64, error) {
	var layers []float64
	if err := json.Unmarshal([]byte(data), &layers); err != nil {
		return nil, fmt.Errorf("unmarshal layers: %w", err)
	}
	if layers == nil {
		layers = []float64{}
	}
	return layers, nil
}
