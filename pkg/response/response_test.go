package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	badRequest := NewError(http.StatusBadRequest, "cannot decode image")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantClient bool
	}{
		{"typed", badRequest, http.StatusBadRequest, true},
		{"wrapped", fmt.Errorf("%w: unexpected EOF", badRequest), http.StatusBadRequest, true},
		{"server", NewError(http.StatusInternalServerError, "inference failed"), http.StatusInternalServerError, false},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.wantStatus {
				t.Errorf("StatusOf() = %d, want %d", got, tt.wantStatus)
			}
			if got := IsClientError(tt.err); got != tt.wantClient {
				t.Errorf("IsClientError() = %v, want %v", got, tt.wantClient)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	a := NewError(http.StatusBadRequest, "x")
	wrapped := fmt.Errorf("%w: detail", a)

	if !errors.Is(wrapped, a) {
		t.Error("errors.Is(wrapped, a) = false, want true")
	}
	if errors.Is(wrapped, NewError(http.StatusInternalServerError, "x")) {
		t.Error("errors.Is matched an error with a different code")
	}
}

func TestWrap(t *testing.T) {
	base := NewError(http.StatusServiceUnavailable, "model backend unavailable")
	cause := errors.New("dial tcp: connection refused")

	err := Wrap(base, cause)
	if !errors.Is(err, base) {
		t.Error("errors.Is(Wrap(base, cause), base) = false, want true")
	}
	if errors.Is(err, cause) {
		t.Error("errors.Is(Wrap(base, cause), cause) = true, want false")
	}
	if got, want := err.Error(), "model backend unavailable: dial tcp: connection refused"; got != want {
		t.Errorf("Wrap().Error() = %q, want %q", got, want)
	}
	if got := StatusOf(err); got != http.StatusServiceUnavailable {
		t.Errorf("StatusOf(Wrap()) = %d, want %d", got, http.StatusServiceUnavailable)
	}
	if Wrap(base, nil) != base {
		t.Error("Wrap(base, nil) did not return base")
	}
}
