package services_test

import (
	"errors"
	"testing"

	"videoforge/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("boom")
	err := services.Wrap(services.ErrCollaborator, "summary", "generate", "llm call failed", inner)
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "topics", "parse", "", nil)
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected default collaborator marker, got %v", err)
	}
}

func TestIsItemScoped(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"collaborator", services.Wrap(services.ErrCollaborator, "audio", "synthesize", "", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "summary", "load", "empty", nil), true},
		{"consistency", services.Wrap(services.ErrConsistency, "", "verify", "gap", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "load", "missing key", nil), false},
		{"nil", nil, true},
	}
	for _, tc := range cases {
		if got := services.IsItemScoped(tc.err); got != tc.want {
			t.Errorf("%s: IsItemScoped = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !services.IsRetryable(services.Wrap(services.ErrCollaborator, "transcript", "fetch", "", nil)) {
		t.Fatal("collaborator failures should be retryable")
	}
	if services.IsRetryable(services.Wrap(services.ErrUnavailable, "transcript", "fetch", "no captions", nil)) {
		t.Fatal("unavailable answers should not be retryable")
	}
}

func TestDetailsStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "topics", "load", "empty list", nil)
	got := services.Details(err)
	if got != "topics: load: empty list" {
		t.Fatalf("unexpected details: %q", got)
	}
}
