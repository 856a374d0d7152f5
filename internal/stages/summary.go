package stages

import (
	"context"
	"log/slog"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/services"
	"videoforge/internal/stage"
)

// SummaryHandler condenses the transcript into the working summary.
type SummaryHandler struct {
	catalog   *catalog.Store
	artifacts *artifacts.Store
	generator TextGenerator
	logger    *slog.Logger
}

// NewSummaryHandler constructs the summary stage.
func NewSummaryHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, generator TextGenerator, logger *slog.Logger) *SummaryHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SummaryHandler{catalog: catalogStore, artifacts: artifactStore, generator: generator, logger: logger}
}

func (h *SummaryHandler) Stage() stage.Stage { return stage.Summary }

func (h *SummaryHandler) Verify(item *catalog.Item) error {
	_, err := h.artifacts.LoadSummary(item)
	return err
}

func (h *SummaryHandler) Run(ctx context.Context, item *catalog.Item) error {
	tr, err := h.artifacts.LoadTranscript(item)
	if err != nil {
		return upstream(err, "summary", "transcript")
	}
	if tr.Unavailable {
		return services.Wrap(services.ErrMissingUpstream, "summary", "load transcript",
			"transcript is permanently unavailable", nil)
	}
	channel, err := channelFor(ctx, h.catalog, item)
	if err != nil {
		return err
	}

	prompt := joinPromptParts(
		languageInstruction(channel, tr.Language),
		"Transcript:\n"+tr.Text,
	)
	text, err := h.generator.Complete(ctx, channel.Prompts.Summary, prompt)
	if err != nil {
		return err
	}
	return h.artifacts.SaveSummary(item, &artifacts.Summary{Summary: text})
}
