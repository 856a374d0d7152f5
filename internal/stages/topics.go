package stages

import (
	"context"
	"log/slog"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/stage"
)

// topicFormatInstruction pins the rigid layout ParseTopics understands.
const topicFormatInstruction = `Answer using exactly this layout, one topic per line pair:

Topic 01: "TITLE"
SUMMARY: "one or two sentences"

Number topics sequentially from 01. No other text before or after.`

// TopicsHandler extracts the ordered topic plan from the summary.
type TopicsHandler struct {
	catalog   *catalog.Store
	artifacts *artifacts.Store
	generator TextGenerator
	logger    *slog.Logger
}

// NewTopicsHandler constructs the topics stage.
func NewTopicsHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, generator TextGenerator, logger *slog.Logger) *TopicsHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TopicsHandler{catalog: catalogStore, artifacts: artifactStore, generator: generator, logger: logger}
}

func (h *TopicsHandler) Stage() stage.Stage { return stage.Topics }

func (h *TopicsHandler) Verify(item *catalog.Item) error {
	_, err := h.artifacts.LoadTopics(item)
	return err
}

func (h *TopicsHandler) Run(ctx context.Context, item *catalog.Item) error {
	summary, err := h.artifacts.LoadSummary(item)
	if err != nil {
		return upstream(err, "topics", "summary")
	}
	tr, err := h.artifacts.LoadTranscript(item)
	if err != nil {
		return upstream(err, "topics", "transcript")
	}
	channel, err := channelFor(ctx, h.catalog, item)
	if err != nil {
		return err
	}

	prompt := joinPromptParts(
		topicFormatInstruction,
		languageInstruction(channel, tr.Language),
		"Summary:\n"+summary.Summary,
	)
	raw, err := h.generator.Complete(ctx, channel.Prompts.Topics, prompt)
	if err != nil {
		return err
	}
	topics, err := artifacts.ParseTopics(raw)
	if err != nil {
		return err
	}
	return h.artifacts.SaveTopics(item, topics)
}
