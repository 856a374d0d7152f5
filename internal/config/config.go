package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	MediaDir string `toml:"media_dir"`
	IndexDir string `toml:"index_dir"`
	LogDir   string `toml:"log_dir"`
}

// LLM contains connection settings for the text-generation collaborator.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcript contains settings for caption retrieval from the video platform.
type Transcript struct {
	BaseURL        string   `toml:"base_url"`
	Languages      []string `toml:"languages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// TTS contains settings for narration audio synthesis.
type TTS struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Voice          string `toml:"voice"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Embedding contains settings for the embedding collaborator shared by the
// index builder and the matcher. Dimensions must match the stored index.
type Embedding struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Caption contains settings for the asset captioning collaborator used only
// during offline index builds.
type Caption struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Segmenter contains settings for the local narration segmentation tool.
type Segmenter struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Matching contains the media-matching policy knobs.
type Matching struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	ReuseCap            int     `toml:"reuse_cap"`
	SearchBreadth       int     `toml:"search_breadth"`
	BuildConcurrency    int     `toml:"build_concurrency"`
}

// Workflow contains batch driver timing settings.
type Workflow struct {
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	Schedule            string `toml:"schedule"`
	MinFreeSpaceGiB     int    `toml:"min_free_space_gib"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root videoforge configuration.
type Config struct {
	Paths      Paths      `toml:"paths"`
	LLM        LLM        `toml:"llm"`
	Transcript Transcript `toml:"transcript"`
	TTS        TTS        `toml:"tts"`
	Embedding  Embedding  `toml:"embedding"`
	Caption    Caption    `toml:"caption"`
	Segmenter  Segmenter  `toml:"segmenter"`
	Matching   Matching   `toml:"matching"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return expandPath("~/.config/videoforge/config.toml")
}

// Load reads configuration from path (or the default location when path is
// empty), applies defaults, environment fallbacks, and validation. A missing
// file yields the defaults; found reports whether a file was read.
func Load(path string) (cfg *Config, found bool, err error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultPath()
	} else {
		resolved = expandPath(resolved)
	}

	value := Default()
	data, readErr := os.ReadFile(resolved)
	switch {
	case readErr == nil:
		if err := toml.Unmarshal(data, &value); err != nil {
			return nil, true, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		found = true
	case errors.Is(readErr, fs.ErrNotExist):
		found = false
	default:
		return nil, false, fmt.Errorf("read config %s: %w", resolved, readErr)
	}

	value.applyEnvFallbacks()
	value.normalize()
	if err := value.Validate(); err != nil {
		return nil, found, err
	}
	return &value, found, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	resolved := expandPath(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config already exists at %s", resolved)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the configured data, media, index, and log
// directories when absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.MediaDir, c.Paths.IndexDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// applyEnvFallbacks fills API keys from the environment when the file leaves
// them blank. The CLI loads .env before config resolution.
func (c *Config) applyEnvFallbacks() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("VIDEOFORGE_LLM_API_KEY", "OPENAI_API_KEY")
	}
	if c.TTS.APIKey == "" {
		c.TTS.APIKey = firstEnv("VIDEOFORGE_TTS_API_KEY", "ELEVENLABS_API_KEY")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = firstEnv("VIDEOFORGE_EMBEDDING_API_KEY", "OPENAI_API_KEY")
	}
}

func (c *Config) normalize() {
	c.Paths.DataDir = expandPath(c.Paths.DataDir)
	c.Paths.MediaDir = expandPath(c.Paths.MediaDir)
	c.Paths.IndexDir = expandPath(c.Paths.IndexDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
