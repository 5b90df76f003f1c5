package flat

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a buffer written as comma/semicolon/whitespace separated
// numbers, e.g. "1,0,0; 1.38,0,99.6; 1.52,0,0".
func Parse(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	buf := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		buf = append(buf, v)
	}
	return buf, nil
}

// Format writes buf in the form accepted by Parse, one layer per group.
func Format(buf []float64) string {
	var sb strings.Builder
	for i, v := range buf {
		switch {
		case i == 0:
		case i%Stride == 0:
			sb.WriteString("; ")
		default:
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
