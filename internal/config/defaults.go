package config

const (
	defaultDataDir  = "~/.local/share/videoforge/data"
	defaultMediaDir = "~/.local/share/videoforge/media"
	defaultIndexDir = "~/.local/share/videoforge/index"
	defaultLogDir   = "~/.local/share/videoforge/logs"

	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel          = "gpt-4o-mini"
	defaultLLMTimeoutSeconds = 120

	defaultTranscriptBaseURL        = "https://www.youtube.com/api/timedtext"
	defaultTranscriptTimeoutSeconds = 60

	defaultTTSBaseURL        = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultTTSModel          = "eleven_multilingual_v2"
	defaultTTSTimeoutSeconds = 600

	defaultEmbeddingBaseURL        = "https://api.openai.com/v1/embeddings"
	defaultEmbeddingModel          = "text-embedding-3-small"
	defaultEmbeddingDimensions     = 384
	defaultEmbeddingTimeoutSeconds = 60

	defaultCaptionTimeoutSeconds = 120

	defaultSegmenterBinary         = "whisperx"
	defaultSegmenterModel          = "large-v2"
	defaultSegmenterTimeoutSeconds = 1800

	defaultSimilarityThreshold = 0.75
	defaultReuseCap            = 3
	defaultSearchBreadth       = 50
	defaultBuildConcurrency    = 4

	defaultPollIntervalSeconds = 30
	defaultMinFreeSpaceGiB     = 2

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			IndexDir: defaultIndexDir,
			LogDir:   defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcript: Transcript{
			BaseURL:        defaultTranscriptBaseURL,
			Languages:      []string{"pt", "pt-BR", "es", "en"},
			TimeoutSeconds: defaultTranscriptTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Embedding: Embedding{
			BaseURL:        defaultEmbeddingBaseURL,
			Model:          defaultEmbeddingModel,
			Dimensions:     defaultEmbeddingDimensions,
			TimeoutSeconds: defaultEmbeddingTimeoutSeconds,
		},
		Caption: Caption{
			TimeoutSeconds: defaultCaptionTimeoutSeconds,
		},
		Segmenter: Segmenter{
			Binary:         defaultSegmenterBinary,
			Model:          defaultSegmenterModel,
			TimeoutSeconds: defaultSegmenterTimeoutSeconds,
		},
		Matching: Matching{
			SimilarityThreshold: defaultSimilarityThreshold,
			ReuseCap:            defaultReuseCap,
			SearchBreadth:       defaultSearchBreadth,
			BuildConcurrency:    defaultBuildConcurrency,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			MinFreeSpaceGiB:     defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
