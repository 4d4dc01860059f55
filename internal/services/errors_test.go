package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"audiodesc/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "analyze", "import", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analyze", "import", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", services.Wrap(services.ErrValidation, "query", "", "empty", nil), http.StatusBadRequest},
		{"not found", services.Wrap(services.ErrNotFound, "status", "", "missing", nil), http.StatusNotFound},
		{"timeout", services.Wrap(services.ErrTimeout, "analyze", "import", "", nil), http.StatusGatewayTimeout},
		{"external", services.Wrap(services.ErrExternalTool, "analyze", "blockify", "", nil), http.StatusBadGateway},
		{"malformed", fmt.Errorf("status: %w", services.ErrMalformedArtifact), http.StatusBadGateway},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "", "", nil), http.StatusInternalServerError},
		{"plain", errors.New("io"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
