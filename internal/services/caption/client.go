// Package caption implements the describe_asset collaborator used only
// during offline index builds.
package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

// Client sends media files to a captioning HTTP API and returns the textual
// description used as the asset's index entry.
type Client struct {
	cfg        config.Caption
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

// NewClient constructs a captioning client from configuration.
func NewClient(cfg config.Caption, opts ...Option) *Client {
	timeout := 120 * time.Second
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

type captionResponse struct {
	Description string `json:"description"`
	Error       string `json:"error,omitempty"`
}

// Describe uploads the asset at path and returns its generated description.
func (c *Client) Describe(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "describe asset", "open asset", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "build upload", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "read asset", err)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "finish upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &buf)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "new request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded captionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "decode response", err)
	}
	if decoded.Error != "" {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", decoded.Error, nil)
	}
	description := strings.TrimSpace(decoded.Description)
	if description == "" {
		return "", services.Wrap(services.ErrCollaborator, "", "describe asset", "empty description", nil)
	}
	return description, nil
}
