package attendance

import (
	"crypto/rand"
	"fmt"
	"io"

	"classtrack/internal/apperr"
)

// DefaultAlphabet is what session codes are drawn from: unambiguous for a
// student typing a code off a projector, and uppercase so normalization is
// a no-op on generated codes.
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeGenerator produces short session codes from a cryptographically
// secure source. The randomness source is injectable so tests can be
// deterministic.
type CodeGenerator struct {
	source io.Reader
}

// NewCodeGenerator returns a generator backed by crypto/rand.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{source: rand.Reader}
}

// NewCodeGeneratorFrom returns a generator reading randomness from r.
func NewCodeGeneratorFrom(r io.Reader) *CodeGenerator {
	return &CodeGenerator{source: r}
}

// Generate draws length characters uniformly from alphabet. Rejection
// sampling keeps the draw unbiased when len(alphabet) does not divide 256.
func (g *CodeGenerator) Generate(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", apperr.New(apperr.BadRequest, "code length must be greater than 0")
	}
	if alphabet == "" {
		return "", apperr.New(apperr.BadRequest, "code alphabet must not be empty")
	}
	if len(alphabet) > 256 {
		return "", apperr.New(apperr.BadRequest, "code alphabet too large")
	}

	// Largest multiple of len(alphabet) that fits in a byte; bytes at or
	// above it are rejected and redrawn.
	limit := 256 - 256%len(alphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, 1)
	for len(out) < length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		out = append(out, alphabet[int(buf[0])%len(alphabet)])
	}
	return string(out), nil
}
