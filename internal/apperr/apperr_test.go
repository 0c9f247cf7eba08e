package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(NotFound, "missing")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil error", nil, Internal},
		{"plain error", errors.New("boom"), Internal},
		{"direct", base, NotFound},
		{"wrapped with fmt", fmt.Errorf("loading: %w", base), NotFound},
		{"wrapped with Wrap", Wrap(Conflict, "outer", base), Conflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{BadRequest, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.kind, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
	if got := HTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, want 500", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := Wrap(Internal, "querying sessions", inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped error lost its cause")
	}
}
