package main

import (
	"context"
	"strings"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/matcher"
	"videoforge/internal/pipeline"
	"videoforge/internal/services/embed"
	"videoforge/internal/services/llm"
	"videoforge/internal/services/segmenter"
	"videoforge/internal/services/transcript"
	"videoforge/internal/services/tts"
	"videoforge/internal/stages"
	"videoforge/internal/vectorindex"
)

// buildRunner wires every stage handler against the configured collaborator
// clients.
func (c *commandContext) buildRunner(store *catalog.Store) (*pipeline.Runner, error) {
	cfg, logger, err := c.ensure()
	if err != nil {
		return nil, err
	}

	artifactStore := artifacts.NewStore(cfg.Paths.DataDir)
	llmClient := llm.NewClient(cfg.LLM)
	fetcher := transcript.NewClient(cfg.Transcript)
	synthesizer := tts.NewClient(cfg.TTS)

	var aligner stages.NarrationAligner
	if strings.TrimSpace(cfg.Segmenter.Binary) != "" {
		aligner = segmenter.New(cfg.Segmenter)
	}

	return pipeline.NewRunner(store, logger,
		stages.NewTranscriptHandler(store, artifactStore, fetcher, logger),
		stages.NewSummaryHandler(store, artifactStore, llmClient, logger),
		stages.NewTopicsHandler(store, artifactStore, llmClient, logger),
		stages.NewIntroductionHandler(store, artifactStore, llmClient, logger),
		stages.NewSegmentContentHandler(store, artifactStore, llmClient, c.matcherFactory(), logger),
		stages.NewAudioHandler(store, artifactStore, synthesizer, aligner, logger),
	)
}

// matcherFactory loads the vector index on demand and binds the channel's
// effective matching policy.
func (c *commandContext) matcherFactory() stages.MatcherFactory {
	return func(_ context.Context, channel *catalog.Channel) (stages.SegmentMatcher, error) {
		cfg, logger, err := c.ensure()
		if err != nil {
			return nil, err
		}
		idx, err := vectorindex.Load(cfg.Paths.IndexDir, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, err
		}
		embedder := embed.NewClient(cfg.Embedding)
		policy := matcher.PolicyFor(cfg.Matching, channel)
		return matcher.New(idx, embedder, policy, logger), nil
	}
}

func (c *commandContext) openCatalog() (*catalog.Store, error) {
	cfg, _, err := c.ensure()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}
