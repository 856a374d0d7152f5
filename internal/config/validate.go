package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"videoforge/internal/services"
)

// Validate checks structural configuration invariants. Collaborator API keys
// are checked lazily by the commands that need them, so read-only commands
// work without credentials.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.IndexDir) == "" {
		problems = append(problems, "paths.index_dir must not be empty")
	}
	if c.Matching.SimilarityThreshold < 0 || c.Matching.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("matching.similarity_threshold must be in [0,1], got %v", c.Matching.SimilarityThreshold))
	}
	if c.Matching.ReuseCap < 1 {
		problems = append(problems, fmt.Sprintf("matching.reuse_cap must be at least 1, got %d", c.Matching.ReuseCap))
	}
	if c.Matching.SearchBreadth < 1 {
		problems = append(problems, fmt.Sprintf("matching.search_breadth must be at least 1, got %d", c.Matching.SearchBreadth))
	}
	if c.Matching.BuildConcurrency < 1 {
		problems = append(problems, fmt.Sprintf("matching.build_concurrency must be at least 1, got %d", c.Matching.BuildConcurrency))
	}
	if c.Embedding.Dimensions < 1 {
		problems = append(problems, fmt.Sprintf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Workflow.PollIntervalSeconds < 1 {
		problems = append(problems, fmt.Sprintf("workflow.poll_interval_seconds must be positive, got %d", c.Workflow.PollIntervalSeconds))
	}
	if schedule := strings.TrimSpace(c.Workflow.Schedule); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			problems = append(problems, fmt.Sprintf("workflow.schedule is not a valid cron expression: %v", err))
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// RequireLLM verifies the text-generation collaborator is usable.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "", "llm", "llm.api_key is required (set VIDEOFORGE_LLM_API_KEY or OPENAI_API_KEY)", nil)
	}
	return nil
}

// RequireTTS verifies the audio synthesis collaborator is usable.
func (c *Config) RequireTTS() error {
	if strings.TrimSpace(c.TTS.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "", "tts", "tts.api_key is required (set VIDEOFORGE_TTS_API_KEY or ELEVENLABS_API_KEY)", nil)
	}
	if strings.TrimSpace(c.TTS.Voice) == "" {
		return services.Wrap(services.ErrConfiguration, "", "tts", "tts.voice is required", nil)
	}
	return nil
}

// RequireEmbedding verifies the embedding collaborator is usable.
func (c *Config) RequireEmbedding() error {
	if strings.TrimSpace(c.Embedding.APIKey) == "" {
		return services.Wrap(services.ErrConfiguration, "", "embedding", "embedding.api_key is required (set VIDEOFORGE_EMBEDDING_API_KEY or OPENAI_API_KEY)", nil)
	}
	return nil
}
