// Package embed implements the embed_text collaborator used by the vector
// index builder and the media matcher.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

// Client calls an embeddings HTTP API and validates vector dimensions.
type Client struct {
	cfg        config.Embedding
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an embedding client from configuration.
func NewClient(cfg config.Embedding, opts ...Option) *Client {
	timeout := 60 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Dimensions returns the configured vector width.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns the vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text, in input order. Every vector
// must match the configured dimensions; a mismatch is a configuration fault
// because the stored index would be unusable against it.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, services.Wrap(services.ErrValidation, "", "embed", "empty input text", nil)
		}
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "embed", "api key required", nil)
	}

	payload := embeddingRequest{Model: c.cfg.Model, Input: texts}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", "decode response", err)
	}
	if decoded.Error != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed", decoded.Error.Message, nil)
	}
	if len(decoded.Data) != len(texts) {
		return nil, services.Wrap(services.ErrCollaborator, "", "embed",
			fmt.Sprintf("expected %d vectors, got %d", len(texts), len(decoded.Data)), nil)
	}

	vectors := make([][]float32, len(texts))
	for _, entry := range decoded.Data {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, services.Wrap(services.ErrCollaborator, "", "embed",
				fmt.Sprintf("vector index %d out of range", entry.Index), nil)
		}
		if c.cfg.Dimensions > 0 && len(entry.Embedding) != c.cfg.Dimensions {
			return nil, services.Wrap(services.ErrConfiguration, "", "embed",
				fmt.Sprintf("vector has %d dimensions, configured %d", len(entry.Embedding), c.cfg.Dimensions), nil)
		}
		vectors[entry.Index] = entry.Embedding
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, services.Wrap(services.ErrCollaborator, "", "embed",
				fmt.Sprintf("missing vector for input %d", i), nil)
		}
	}
	return vectors, nil
}
