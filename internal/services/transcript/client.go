// Package transcript fetches video captions from the platform's timed-text
// endpoint. A video without captions is a permanent condition, not a
// transient collaborator failure.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"videoforge/internal/config"
	"videoforge/internal/services"
)

// Result is the fetched caption text and the language it resolved to.
type Result struct {
	Text     string
	Language string
}

// Client retrieves captions for public video links.
type Client struct {
	cfg        config.Transcript
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

// NewClient constructs a caption client from configuration.
func NewClient(cfg config.Transcript, opts ...Option) *Client {
	timeout := 30 * time.Second
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

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractVideoID pulls the platform video identifier out of a link. A bare
// 11-character identifier is accepted as-is.
func ExtractVideoID(link string) (string, error) {
	link = strings.TrimSpace(link)
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(link); m != nil {
			return m[1], nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "", "extract video id",
		fmt.Sprintf("no video identifier in link %q", link), nil)
}

// Fetch retrieves the caption track for link, trying the configured language
// preferences in order. When the platform answers but no track exists in any
// language, the error carries the unavailable marker so the caller records the
// permanent outcome instead of retrying.
func (c *Client) Fetch(ctx context.Context, link string) (*Result, error) {
	videoID, err := ExtractVideoID(link)
	if err != nil {
		return nil, err
	}

	languages := c.cfg.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	for _, lang := range languages {
		text, err := c.fetchTrack(ctx, videoID, lang)
		if err != nil {
			return nil, err
		}
		if text != "" {
			return &Result{Text: text, Language: lang}, nil
		}
	}
	return nil, services.Wrap(services.ErrUnavailable, "", "fetch transcript",
		fmt.Sprintf("no caption track for video %s in %s", videoID, strings.Join(languages, ", ")), nil)
}

// timedTextResponse is the platform's json3 caption layout.
type timedTextResponse struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (c *Client) fetchTrack(ctx context.Context, videoID, lang string) (string, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "", "fetch transcript", "invalid base url", err)
	}
	query := endpoint.Query()
	query.Set("v", videoID)
	query.Set("lang", lang)
	query.Set("fmt", "json3")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "fetch transcript", "new request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "fetch transcript", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "fetch transcript", "read body", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrCollaborator, "", "fetch transcript",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	// The endpoint answers 200 with an empty body when the track does not
	// exist in the requested language.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil
	}

	var decoded timedTextResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrCollaborator, "", "fetch transcript", "decode response", err)
	}
	var builder strings.Builder
	for _, event := range decoded.Events {
		for _, seg := range event.Segs {
			builder.WriteString(seg.UTF8)
		}
	}
	text := strings.TrimSpace(builder.String())
	return text, nil
}
