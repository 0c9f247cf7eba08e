package attendance

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	gen := NewCodeGenerator()

	for _, length := range []int{1, 6, 12} {
		code, err := gen.Generate(length, DefaultAlphabet)
		if err != nil {
			t.Fatalf("Generate(%d): %v", length, err)
		}
		if len(code) != length {
			t.Errorf("Generate(%d) returned %q, want length %d", length, code, length)
		}
		for _, r := range code {
			if !strings.ContainsRune(DefaultAlphabet, r) {
				t.Errorf("Generate(%d) returned %q with character %q outside alphabet", length, code, r)
			}
		}
	}
}

func TestGenerateInvalidInput(t *testing.T) {
	gen := NewCodeGenerator()

	tests := []struct {
		name     string
		length   int
		alphabet string
	}{
		{"zero length", 0, DefaultAlphabet},
		{"negative length", -3, DefaultAlphabet},
		{"empty alphabet", 6, ""},
		{"oversized alphabet", 6, strings.Repeat("A", 257)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := gen.Generate(tt.length, tt.alphabet); err == nil {
				t.Errorf("Generate(%d, len %d alphabet) succeeded, want error", tt.length, len(tt.alphabet))
			}
		})
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	// 252 and 255 sit above the rejection limit for a 36-rune alphabet
	// (256 - 256%36 = 252) and must be redrawn, not folded in.
	src := bytes.NewReader([]byte{0, 1, 2, 35, 36, 252, 255, 37})
	gen := NewCodeGeneratorFrom(src)

	code, err := gen.Generate(6, DefaultAlphabet)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := "ABC9AB"; code != want {
		t.Errorf("Generate = %q, want %q", code, want)
	}
}

func TestGenerateExhaustedSource(t *testing.T) {
	gen := NewCodeGeneratorFrom(bytes.NewReader([]byte{0, 1}))
	if _, err := gen.Generate(6, DefaultAlphabet); err == nil {
		t.Error("Generate with exhausted source succeeded, want error")
	}
}
