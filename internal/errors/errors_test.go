package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(KindNotFound, "card not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", base, KindNotFound},
		{"wrapped cause", Wrap(KindInternal, "load card", stderrors.New("db down")), KindInternal},
		{"fmt-wrapped domain error", fmt.Errorf("handler: %w", base), KindNotFound},
		{"plain error", stderrors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := Wrap(KindValidation, "bad size", stderrors.New("cause"))
	if !stderrors.Is(err, New(KindValidation, "")) {
		t.Error("errors of the same kind should match")
	}
	if stderrors.Is(err, New(KindNotFound, "")) {
		t.Error("errors of different kinds must not match")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.kind.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("db down")
	err := Wrap(KindInternal, "load card", cause)
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable through the chain")
	}
}
