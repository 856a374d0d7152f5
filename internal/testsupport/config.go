package testsupport

import (
	"path/filepath"
	"testing"

	"videoforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.IndexDir = filepath.Join(base, "index")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"
	cfg.TTS.APIKey = "test"
	cfg.TTS.Voice = "test-voice"
	cfg.Embedding.APIKey = "test"
	cfg.Embedding.Dimensions = 4
	// Don't couple tests to the host machine's free disk space.
	cfg.Workflow.MinFreeSpaceGiB = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithReuseCap overrides the matching reuse cap on the test config.
func WithReuseCap(cap int) ConfigOption {
	return func(c *config.Config) {
		c.Matching.ReuseCap = cap
	}
}

// WithSimilarityThreshold overrides the soft-mode threshold on the test config.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(c *config.Config) {
		c.Matching.SimilarityThreshold = threshold
	}
}

// WithEmbeddingDimensions overrides the embedding vector size on the test config.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *config.Config) {
		c.Embedding.Dimensions = dims
	}
}
