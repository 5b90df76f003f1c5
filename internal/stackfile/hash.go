package stackfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tmm/internal/optics"
)

// DomainStack prefixes stack hashes. The version suffix allows the encoding
// to change without colliding with old hashes.
const DomainStack = "tmm/stack/v1"

type canonicalLayer struct {
	Name string  `json:"name"`
	N    float64 `json:"n"`
	K    float64 `json:"k"`
	D    float64 `json:"d"`
}

// Hash returns the content address of a stack:
// hex(SHA256(DomainStack + 0x00 + canonical JSON)).
// Ambient thicknesses are ignored, matching the solver.
func Hash(layers []optics.Layer) (string, error) {
	canon := make([]canonicalLayer, len(layers))
	last := len(layers) - 1
	for i, l := range layers {
		d := 0.0
		if i != 0 && i != last {
			d = l.Thickness
		}
		if math.IsNaN(d) || math.IsInf(d, 0) || math.IsNaN(real(l.N)) || math.IsNaN(imag(l.N)) {
			return "", fmt.Errorf("hash: layer %d has non-finite values", i)
		}
		canon[i] = canonicalLayer{
			Name: norm.NFC.String(l.Name),
			N:    real(l.N) + 0, // +0 folds -0 into 0
			K:    imag(l.N) + 0,
			D:    d + 0,
		}
	}

	data, err := json.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hashWithDomain(DomainStack, data), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
