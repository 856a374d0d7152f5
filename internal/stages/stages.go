// Package stages holds the concrete pipeline stage handlers. Each handler
// talks to one collaborator, persists its artifact through the artifact
// store, and leaves checkpoint writes to the runner.
package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/matcher"
	"videoforge/internal/services"
	"videoforge/internal/services/transcript"
)

// TextGenerator produces prose from a prompt pair.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CaptionFetcher retrieves a video's caption track.
type CaptionFetcher interface {
	Fetch(ctx context.Context, link string) (*transcript.Result, error)
}

// SpeechSynthesizer turns narration text into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// NarrationAligner produces precise segment timings from narration audio.
type NarrationAligner interface {
	Segment(ctx context.Context, audioPath string) (*artifacts.SegmentList, error)
}

// SegmentMatcher fills segment asset references.
type SegmentMatcher interface {
	FillSegments(ctx context.Context, list *artifacts.SegmentList, mandatory bool) (*matcher.FillResult, error)
}

// MatcherFactory builds a matcher under the channel's effective policy.
// It returns vectorindex.ErrNoIndex when no index has been built yet.
type MatcherFactory func(ctx context.Context, channel *catalog.Channel) (SegmentMatcher, error)

// channelFor loads the item's owning channel for prompts and policy.
func channelFor(ctx context.Context, store *catalog.Store, item *catalog.Item) (*catalog.Channel, error) {
	channel, err := store.GetChannel(ctx, item.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("load channel for item %d: %w", item.ID, err)
	}
	return channel, nil
}

// upstream converts a missing artifact into the not-ready marker so the
// runner records it as a precondition gap rather than a stage crash.
func upstream(err error, stageName, what string) error {
	if errors.Is(err, artifacts.ErrNotFound) {
		return services.Wrap(services.ErrMissingUpstream, stageName, "load "+what, "", err)
	}
	return err
}

// languageInstruction renders the prompt suffix pinning the output language.
// The channel policy wins; "auto" defers to the transcript's detected
// language.
func languageInstruction(channel *catalog.Channel, transcriptLanguage string) string {
	tag := channel.Language
	if tag == "" || tag == "auto" {
		tag = transcriptLanguage
	}
	if tag == "" {
		return ""
	}
	name := catalog.LanguageDisplayName(tag)
	return fmt.Sprintf("Write the entire output in %s.", name)
}

func joinPromptParts(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}
