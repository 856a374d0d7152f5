package caption

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

func writeAsset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sunset.jpg")
	if err := os.WriteFile(path, []byte("fake-jpeg"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	return path
}

func TestDescribeReturnsDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.Write([]byte(`{"description":" a sunset over the ocean "}`))
	}))
	defer server.Close()

	client := NewClient(config.Caption{BaseURL: server.URL})
	got, err := client.Describe(context.Background(), writeAsset(t))
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got != "a sunset over the ocean" {
		t.Fatalf("unexpected description: %q", got)
	}
}

func TestDescribeEmptyDescriptionIsCollaboratorFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"description":""}`))
	}))
	defer server.Close()

	client := NewClient(config.Caption{BaseURL: server.URL})
	_, err := client.Describe(context.Background(), writeAsset(t))
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestDescribeMissingFileIsValidationFailure(t *testing.T) {
	client := NewClient(config.Caption{BaseURL: "http://localhost"})
	_, err := client.Describe(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}
