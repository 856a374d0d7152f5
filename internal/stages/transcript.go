package stages

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/services"
	"videoforge/internal/stage"
)

// TranscriptHandler fetches, cleans, and persists the source transcript.
type TranscriptHandler struct {
	catalog   *catalog.Store
	artifacts *artifacts.Store
	fetcher   CaptionFetcher
	logger    *slog.Logger
}

// NewTranscriptHandler constructs the transcript stage.
func NewTranscriptHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, fetcher CaptionFetcher, logger *slog.Logger) *TranscriptHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TranscriptHandler{catalog: catalogStore, artifacts: artifactStore, fetcher: fetcher, logger: logger}
}

func (h *TranscriptHandler) Stage() stage.Stage { return stage.Transcript }

func (h *TranscriptHandler) Verify(item *catalog.Item) error {
	_, err := h.artifacts.LoadTranscript(item)
	return err
}

func (h *TranscriptHandler) Run(ctx context.Context, item *catalog.Item) error {
	// A recorded "no captions exist" answer is permanent; don't hammer the
	// platform on every pass.
	if existing, err := h.artifacts.LoadTranscript(item); err == nil && existing.Unavailable {
		return services.Wrap(services.ErrUnavailable, "transcript", "fetch",
			"platform has no captions for this video", nil)
	}

	result, err := h.fetcher.Fetch(ctx, item.Link)
	if errors.Is(err, services.ErrUnavailable) {
		if saveErr := h.artifacts.SaveTranscript(item, &artifacts.Transcript{Unavailable: true}); saveErr != nil {
			return saveErr
		}
		return err
	}
	if err != nil {
		return err
	}

	text := CleanTranscript(result.Text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "transcript", "clean",
			"transcript is empty after removing cues", nil)
	}

	channel, err := channelFor(ctx, h.catalog, item)
	if err != nil {
		return err
	}
	language := result.Language
	if channel.Language == "auto" || channel.Language == "" {
		if detected := detectLanguage(text); detected != "" {
			language = detected
		}
	}

	return h.artifacts.SaveTranscript(item, &artifacts.Transcript{Text: text, Language: language})
}

var (
	cuePattern        = regexp.MustCompile(`\[[^\]]*\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanTranscript strips bracketed caption cues such as [Music] or [Applause]
// and collapses runs of whitespace.
func CleanTranscript(text string) string {
	text = cuePattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
