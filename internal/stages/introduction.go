package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/stage"
)

// IntroductionHandler writes the video's opening narration.
type IntroductionHandler struct {
	catalog   *catalog.Store
	artifacts *artifacts.Store
	generator TextGenerator
	logger    *slog.Logger
}

// NewIntroductionHandler constructs the introduction stage.
func NewIntroductionHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, generator TextGenerator, logger *slog.Logger) *IntroductionHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &IntroductionHandler{catalog: catalogStore, artifacts: artifactStore, generator: generator, logger: logger}
}

func (h *IntroductionHandler) Stage() stage.Stage { return stage.Introduction }

func (h *IntroductionHandler) Verify(item *catalog.Item) error {
	_, err := h.artifacts.LoadIntroduction(item)
	return err
}

func (h *IntroductionHandler) Run(ctx context.Context, item *catalog.Item) error {
	topics, err := h.artifacts.LoadTopics(item)
	if err != nil {
		return upstream(err, "introduction", "topics")
	}
	tr, err := h.artifacts.LoadTranscript(item)
	if err != nil {
		return upstream(err, "introduction", "transcript")
	}
	channel, err := channelFor(ctx, h.catalog, item)
	if err != nil {
		return err
	}

	prompt := joinPromptParts(
		languageInstruction(channel, tr.Language),
		"The video will cover these topics:\n"+topicOutline(topics),
	)
	text, err := h.generator.Complete(ctx, channel.Prompts.Introduction, prompt)
	if err != nil {
		return err
	}
	return h.artifacts.SaveIntroduction(item, text)
}

func topicOutline(topics *artifacts.TopicList) string {
	var builder strings.Builder
	for _, topic := range topics.Topics {
		fmt.Fprintf(&builder, "%d. %s", topic.Number, topic.Title)
		if topic.Summary != "" {
			fmt.Fprintf(&builder, " - %s", topic.Summary)
		}
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}
