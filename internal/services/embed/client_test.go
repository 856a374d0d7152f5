package embed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

func testConfig(url string, dims int) config.Embedding {
	return config.Embedding{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "test-embed",
		Dimensions: dims,
	}
}

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Out-of-order response data must still map back to input order.
		w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 2))
	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors not reordered by index: %v", vectors)
	}
}

func TestEmbedDimensionMismatchIsConfigurationFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2,3]}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 2))
	_, err := client.Embed(context.Background(), "phrase")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}

func TestEmbedServerErrorIsCollaboratorFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL, 2))
	_, err := client.Embed(context.Background(), "phrase")
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator failure, got %v", err)
	}
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	client := NewClient(testConfig("http://localhost", 2))
	_, err := client.Embed(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}
