package stages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/services"
	"videoforge/internal/stage"
	"videoforge/internal/vectorindex"
)

const (
	// previousBlockContext bounds how much of the prior block rides along in
	// the prompt so scripts stay coherent without blowing the context window.
	previousBlockContext = 600

	phraseSystemPrompt = `You write literal visual search phrases for stock footage lookup.
Given a narration excerpt, answer with one short phrase of 3 to 8 words
describing what should be on screen. Phrase only, no quotes, no punctuation.`
)

// SegmentContentHandler generates the per-topic narration blocks, assembles
// and splits the full narration, generates visual-search phrases, and runs
// the soft matching pass.
type SegmentContentHandler struct {
	catalog    *catalog.Store
	artifacts  *artifacts.Store
	generator  TextGenerator
	matcherFor MatcherFactory
	logger     *slog.Logger
}

// NewSegmentContentHandler constructs the segment-content stage.
func NewSegmentContentHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, generator TextGenerator, matcherFor MatcherFactory, logger *slog.Logger) *SegmentContentHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SegmentContentHandler{
		catalog:    catalogStore,
		artifacts:  artifactStore,
		generator:  generator,
		matcherFor: matcherFor,
		logger:     logger,
	}
}

func (h *SegmentContentHandler) Stage() stage.Stage { return stage.SegmentContent }

func (h *SegmentContentHandler) Verify(item *catalog.Item) error {
	if _, err := h.artifacts.LoadContents(item); err != nil {
		return err
	}
	if _, err := h.artifacts.LoadNarration(item); err != nil {
		return err
	}
	_, err := h.artifacts.LoadSegments(item)
	return err
}

func (h *SegmentContentHandler) Run(ctx context.Context, item *catalog.Item) error {
	topics, err := h.artifacts.LoadTopics(item)
	if err != nil {
		return upstream(err, "segment-content", "topics")
	}
	introduction, err := h.artifacts.LoadIntroduction(item)
	if err != nil {
		return upstream(err, "segment-content", "introduction")
	}
	tr, err := h.artifacts.LoadTranscript(item)
	if err != nil {
		return upstream(err, "segment-content", "transcript")
	}
	channel, err := channelFor(ctx, h.catalog, item)
	if err != nil {
		return err
	}
	langLine := languageInstruction(channel, tr.Language)

	contents, err := h.generateBlocks(ctx, channel, topics, langLine)
	if err != nil {
		return err
	}
	if err := h.artifacts.SaveContents(item, contents); err != nil {
		return err
	}

	narration := assembleNarration(introduction, contents)
	if err := h.artifacts.SaveNarration(item, narration); err != nil {
		return err
	}

	segments := SplitNarration(narration)
	if len(segments.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "segment-content", "split narration",
			"no segments produced", nil)
	}
	if err := h.generatePhrases(ctx, segments); err != nil {
		return err
	}
	if err := h.softMatch(ctx, channel, item, segments); err != nil {
		return err
	}
	return h.artifacts.SaveSegments(item, segments)
}

// generateBlocks writes one narration block per topic, feeding each prompt
// the tail of the previous block and the next topic so transitions read
// naturally.
func (h *SegmentContentHandler) generateBlocks(ctx context.Context, channel *catalog.Channel, topics *artifacts.TopicList, langLine string) (*artifacts.ContentList, error) {
	contents := &artifacts.ContentList{}
	previous := ""
	for i, topic := range topics.Topics {
		parts := []string{langLine}
		parts = append(parts, fmt.Sprintf("Current topic: %s", topic.Title))
		if topic.Summary != "" {
			parts = append(parts, "Topic summary: "+topic.Summary)
		}
		if previous != "" {
			parts = append(parts, "The narration so far ends with:\n"+tail(previous, previousBlockContext))
		}
		if i+1 < len(topics.Topics) {
			parts = append(parts, "The next topic will be: "+topics.Topics[i+1].Title)
		} else {
			parts = append(parts, "This is the final topic; close the video.")
		}

		text, err := h.generator.Complete(ctx, channel.Prompts.Script, joinPromptParts(parts...))
		if err != nil {
			return nil, err
		}
		contents.Blocks = append(contents.Blocks, artifacts.ContentBlock{
			Number: topic.Number,
			Title:  topic.Title,
			Text:   text,
		})
		previous = text
	}
	return contents, nil
}

func (h *SegmentContentHandler) generatePhrases(ctx context.Context, segments *artifacts.SegmentList) error {
	for i := range segments.Segments {
		seg := &segments.Segments[i]
		phrase, err := h.generator.Complete(ctx, phraseSystemPrompt, seg.Text)
		if err != nil {
			return err
		}
		seg.Phrase = sanitizePhrase(phrase)
	}
	return nil
}

// softMatch runs the first-pass assignment and writes the missing report for
// the external import workflow. A missing index downgrades to "everything
// missing" instead of failing the stage.
func (h *SegmentContentHandler) softMatch(ctx context.Context, channel *catalog.Channel, item *catalog.Item, segments *artifacts.SegmentList) error {
	m, err := h.matcherFor(ctx, channel)
	if errors.Is(err, vectorindex.ErrNoIndex) {
		h.logger.Warn("no vector index built, reporting every phrase as missing")
		report := &artifacts.MissingReport{}
		seen := make(map[string]bool)
		for _, seg := range segments.Segments {
			if seg.Phrase != "" && !seen[seg.Phrase] {
				seen[seg.Phrase] = true
				report.Phrases = append(report.Phrases, seg.Phrase)
			}
		}
		return h.artifacts.SaveMissingReport(item, report)
	}
	if err != nil {
		return err
	}

	result, err := m.FillSegments(ctx, segments, false)
	if err != nil {
		return err
	}
	h.logger.Info("soft matching pass finished",
		logging.Int("assigned", result.Assigned),
		logging.Int("missing", len(result.Missing)))
	return h.artifacts.SaveMissingReport(item, &artifacts.MissingReport{Phrases: result.Missing})
}

func assembleNarration(introduction string, contents *artifacts.ContentList) string {
	parts := []string{strings.TrimSpace(introduction)}
	for _, block := range contents.Blocks {
		parts = append(parts, strings.TrimSpace(block.Text))
	}
	return strings.Join(parts, "\n\n")
}

func sanitizePhrase(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if idx := strings.IndexByte(phrase, '\n'); idx >= 0 {
		phrase = phrase[:idx]
	}
	return strings.Trim(phrase, `"'.`)
}

func tail(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[len(runes)-limit:])
}
