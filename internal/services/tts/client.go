// Package tts implements the synthesize_speech collaborator that turns
// narration text into audio bytes.
package tts

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

// Client calls a speech-synthesis HTTP API.
type Client struct {
	cfg        config.TTS
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

// NewClient constructs a TTS client from configuration.
func NewClient(cfg config.TTS, opts ...Option) *Client {
	timeout := 300 * time.Second
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

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize converts text into audio bytes using the given voice, falling
// back to the configured default voice when voice is empty.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "", "synthesize", "empty narration text", nil)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "synthesize", "api key required", nil)
	}
	if voice = strings.TrimSpace(voice); voice == "" {
		voice = c.cfg.Voice
	}
	if voice == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "synthesize", "no voice configured", nil)
	}

	payload := synthesisRequest{Text: text, ModelID: c.cfg.Model}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize", "encode request", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + voice
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize", "new request", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize", "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if len(body) == 0 {
		return nil, services.Wrap(services.ErrCollaborator, "", "synthesize", "empty audio response", nil)
	}
	return body, nil
}
