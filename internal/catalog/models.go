package catalog

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"videoforge/internal/services"
	"videoforge/internal/stage"
)

// ChannelPrompts carries the per-channel prompt templates consumed by the
// text-generation stages.
type ChannelPrompts struct {
	Summary      string `yaml:"summary"`
	Topics       string `yaml:"topics"`
	Introduction string `yaml:"introduction"`
	Script       string `yaml:"script"`
}

// Channel owns items and carries generation policy. Read-only from the
// pipeline's perspective.
type Channel struct {
	ID        string
	Name      string
	Language  string
	Watermark string
	Active    bool
	Prompts   ChannelPrompts
	// ReuseCapOverride and ThresholdOverride, when positive, replace the
	// global matching policy for this channel's items.
	ReuseCapOverride  int
	ThresholdOverride float64
	CreatedAt         time.Time
}

// DefaultPrompts returns serviceable generic prompt templates for channels
// registered without a policy file.
func DefaultPrompts() ChannelPrompts {
	return ChannelPrompts{
		Summary:      "Summarize the following video transcript into a faithful, information-dense overview.",
		Topics:       "Break the summary into the ordered list of topics a narrated video should cover.",
		Introduction: "Write a short, engaging spoken introduction for a video covering the listed topics.",
		Script:       "Write the narration for the current topic, continuing naturally from the narration so far.",
	}
}

// ItemConfig is the typed per-item feature toggle set.
type ItemConfig struct {
	GenerateAudio bool   `json:"generate_audio"`
	VoiceOverride string `json:"voice_override,omitempty"`
}

// DefaultItemConfig returns the config applied to newly registered links.
func DefaultItemConfig() ItemConfig {
	return ItemConfig{GenerateAudio: true}
}

// Item is one video-production unit progressing through the pipeline.
type Item struct {
	ID          int64
	ChannelID   string
	ChannelName string
	Link        string
	Config      ItemConfig
	// DoneAt holds one checkpoint timestamp per stage in pipeline order.
	// nil means pending; presence is the only "done" signal.
	DoneAt    [stage.Count]*time.Time
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StageDone reports whether the checkpoint for s is present.
func (i *Item) StageDone(s stage.Stage) bool {
	if !s.Valid() {
		return false
	}
	return i.DoneAt[s] != nil
}

// FirstPending returns the first stage whose checkpoint is absent. ok is
// false when every stage is checkpointed (the item is terminal).
func (i *Item) FirstPending() (stage.Stage, bool) {
	for _, s := range stage.All() {
		if i.DoneAt[s] == nil {
			return s, true
		}
	}
	return 0, false
}

// Completed reports whether the item holds the terminal checkpoint set.
func (i *Item) Completed() bool {
	_, pending := i.FirstPending()
	return !pending
}

// VerifyMonotonic detects a later-stage checkpoint present without all
// earlier ones. Such a gap indicates external tampering or a prior crash
// mid-write and is surfaced, never repaired.
func (i *Item) VerifyMonotonic() error {
	seenGap := false
	for _, s := range stage.All() {
		if i.DoneAt[s] == nil {
			seenGap = true
			continue
		}
		if seenGap {
			return services.Wrap(
				services.ErrConsistency,
				s.String(),
				"verify checkpoints",
				fmt.Sprintf("item %d has %s checkpoint without all earlier stages", i.ID, s),
				nil,
			)
		}
	}
	return nil
}

// NormalizeLanguage canonicalizes a channel language policy value. The
// special value "auto" defers to transcript language detection.
func NormalizeLanguage(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == "auto" {
		return "auto", nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", value, err)
	}
	return tag.String(), nil
}

// LanguageDisplayName renders a canonical language tag for prompt
// instructions and progress lines ("pt-BR" -> "Brazilian Portuguese").
func LanguageDisplayName(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return display.English.Tags().Name(parsed)
}
