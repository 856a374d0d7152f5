package transcript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		link string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://example.com/nothing-here", "", false},
	}
	for _, tc := range cases {
		got, err := ExtractVideoID(tc.link)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ExtractVideoID(%q) = %q, %v", tc.link, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected error for %q", tc.link)
		}
	}
}

func TestFetchJoinsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
			t.Errorf("unexpected video id %q", r.URL.Query().Get("v"))
		}
		w.Write([]byte(`{"events":[
			{"segs":[{"utf8":"hello "},{"utf8":"world"}]},
			{"segs":[{"utf8":" again"}]}
		]}`))
	}))
	defer server.Close()

	client := NewClient(config.Transcript{BaseURL: server.URL, Languages: []string{"en"}})
	got, err := client.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Text != "hello world again" {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Language != "en" {
		t.Fatalf("unexpected language: %q", got.Language)
	}
}

func TestFetchFallsBackThroughLanguages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") == "pt" {
			// Empty body means no track in this language.
			return
		}
		w.Write([]byte(`{"events":[{"segs":[{"utf8":"fallback"}]}]}`))
	}))
	defer server.Close()

	client := NewClient(config.Transcript{BaseURL: server.URL, Languages: []string{"pt", "en"}})
	got, err := client.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Language != "en" || got.Text != "fallback" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestFetchNoTrackIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewClient(config.Transcript{BaseURL: server.URL, Languages: []string{"en"}})
	_, err := client.Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable marker, got %v", err)
	}
}

func TestFetchServerErrorIsCollaboratorFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.Transcript{BaseURL: server.URL, Languages: []string{"en"}})
	_, err := client.Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}
