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

// AudioHandler synthesizes the narration audio and re-aligns segment timings
// against it.
type AudioHandler struct {
	catalog     *catalog.Store
	artifacts   *artifacts.Store
	synthesizer SpeechSynthesizer
	aligner     NarrationAligner
	logger      *slog.Logger
}

// NewAudioHandler constructs the audio stage. aligner may be nil when no
// alignment tool is configured; estimated timings then stand.
func NewAudioHandler(catalogStore *catalog.Store, artifactStore *artifacts.Store, synthesizer SpeechSynthesizer, aligner NarrationAligner, logger *slog.Logger) *AudioHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AudioHandler{
		catalog:     catalogStore,
		artifacts:   artifactStore,
		synthesizer: synthesizer,
		aligner:     aligner,
		logger:      logger,
	}
}

func (h *AudioHandler) Stage() stage.Stage { return stage.Audio }

func (h *AudioHandler) Verify(item *catalog.Item) error {
	if !item.Config.GenerateAudio {
		return nil
	}
	if !h.artifacts.HasAudio(item) {
		return services.Wrap(services.ErrValidation, "audio", "verify",
			"narration audio file is missing or empty", nil)
	}
	return nil
}

func (h *AudioHandler) Run(ctx context.Context, item *catalog.Item) error {
	if !item.Config.GenerateAudio {
		h.logger.Info("audio generation disabled for item, skipping synthesis")
		return nil
	}

	narration, err := h.artifacts.LoadNarration(item)
	if err != nil {
		return upstream(err, "audio", "narration")
	}

	// A crash after the audio write but before the checkpoint leaves a valid
	// file behind; don't pay for synthesis twice.
	if !h.artifacts.HasAudio(item) {
		audio, err := h.synthesizer.Synthesize(ctx, narration, item.Config.VoiceOverride)
		if err != nil {
			return err
		}
		if err := h.artifacts.SaveAudio(item, audio); err != nil {
			return err
		}
	}
	if !h.artifacts.HasAudio(item) {
		return services.Wrap(services.ErrValidation, "audio", "verify",
			"narration audio file is missing or empty after synthesis", nil)
	}

	h.alignSegments(ctx, item)
	return nil
}

// alignSegments replaces estimated segment timings with ones measured from
// the synthesized audio. Failures keep the estimates; phrases and asset
// references always carry over untouched.
func (h *AudioHandler) alignSegments(ctx context.Context, item *catalog.Item) {
	if h.aligner == nil {
		return
	}
	segments, err := h.artifacts.LoadSegments(item)
	if err != nil {
		h.logger.Warn("skipping alignment, segments unreadable", logging.Error(err))
		return
	}
	aligned, err := h.aligner.Segment(ctx, h.artifacts.AudioPath(item))
	if err != nil {
		h.logger.Warn("audio alignment failed, keeping estimated timings", logging.Error(err))
		return
	}
	if len(aligned.Segments) != len(segments.Segments) {
		h.logger.Warn("alignment segment count differs, keeping estimated timings",
			logging.Int("estimated", len(segments.Segments)),
			logging.Int("aligned", len(aligned.Segments)))
		return
	}
	for i := range segments.Segments {
		segments.Segments[i].Start = aligned.Segments[i].Start
		segments.Segments[i].End = aligned.Segments[i].End
		segments.Segments[i].Duration = aligned.Segments[i].Duration
	}
	if err := h.artifacts.SaveSegments(item, segments); err != nil {
		h.logger.Warn("persisting aligned timings failed", logging.Error(err))
	}
}
