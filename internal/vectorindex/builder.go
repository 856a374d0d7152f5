package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"videoforge/internal/logging"
)

// Describer produces a textual description of a media asset.
type Describer interface {
	Describe(ctx context.Context, path string) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

var assetTypes = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".webp": "image",
	".mp4":  "video",
	".mov":  "video",
	".mkv":  "video",
	".webm": "video",
}

// Builder scans the media library, captions and embeds assets that are not
// yet indexed, and persists the updated index. Builds are serialized with a
// file lock so concurrent invocations cannot interleave writes.
type Builder struct {
	mediaDir    string
	indexDir    string
	describer   Describer
	embedder    Embedder
	concurrency int
	logger      *slog.Logger
}

// NewBuilder constructs an index builder.
func NewBuilder(mediaDir, indexDir string, describer Describer, embedder Embedder, concurrency int, logger *slog.Logger) *Builder {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		mediaDir:    mediaDir,
		indexDir:    indexDir,
		describer:   describer,
		embedder:    embedder,
		concurrency: concurrency,
		logger:      logger,
	}
}

// BuildResult summarizes one build pass.
type BuildResult struct {
	Scanned int
	Added   int
	Skipped int
	Failed  int
	Total   int
}

// Build indexes new media assets. When rebuild is true the existing index is
// discarded and every asset is processed again.
func (b *Builder) Build(ctx context.Context, rebuild bool) (*BuildResult, error) {
	if err := os.MkdirAll(b.indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	lock := flock.New(filepath.Join(b.indexDir, ".build.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another index build is already running")
	}
	defer lock.Unlock()

	idx := New(b.embedder.Dimensions())
	if !rebuild {
		existing, err := Load(b.indexDir, b.embedder.Dimensions())
		switch {
		case err == nil:
			idx = existing
		case errors.Is(err, ErrNoIndex):
		default:
			return nil, err
		}
	}

	candidates, err := b.scanMedia()
	if err != nil {
		return nil, err
	}

	result := &BuildResult{Scanned: len(candidates)}
	type indexed struct {
		asset  Asset
		vector []float32
	}
	var (
		mu      sync.Mutex
		pending []indexed
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)
	for _, candidate := range candidates {
		if idx.Contains(candidate.ID) {
			result.Skipped++
			continue
		}
		candidate := candidate
		group.Go(func() error {
			description, err := b.describeAsset(groupCtx, candidate.Path)
			if err != nil {
				b.logger.Warn("asset description failed",
					logging.String("asset", candidate.ID),
					logging.Error(err))
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}
			vector, err := b.embedder.Embed(groupCtx, description)
			if err != nil {
				b.logger.Warn("asset embedding failed",
					logging.String("asset", candidate.ID),
					logging.Error(err))
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}
			entry := candidate
			entry.Description = description
			mu.Lock()
			pending = append(pending, indexed{asset: entry, vector: vector})
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Deterministic insertion order regardless of worker completion order.
	sort.Slice(pending, func(a, b int) bool { return pending[a].asset.ID < pending[b].asset.ID })
	for _, entry := range pending {
		if err := idx.Add(entry.asset, entry.vector); err != nil {
			return nil, err
		}
		result.Added++
	}

	if result.Added > 0 || rebuild {
		if err := idx.Save(b.indexDir); err != nil {
			return nil, err
		}
	}
	result.Total = idx.Len()
	b.logger.Info("index build finished",
		logging.Int("scanned", result.Scanned),
		logging.Int("added", result.Added),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int("total", result.Total))
	return result, nil
}

// describeAsset prefers a curated sidecar description (<asset>.txt next to
// the media file) and falls back to the captioning collaborator.
func (b *Builder) describeAsset(ctx context.Context, path string) (string, error) {
	if data, err := os.ReadFile(path + ".txt"); err == nil {
		if description := strings.TrimSpace(string(data)); description != "" {
			return description, nil
		}
	}
	return b.describer.Describe(ctx, path)
}

func (b *Builder) scanMedia() ([]Asset, error) {
	var assets []Asset
	err := filepath.WalkDir(b.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		assetType, ok := assetTypes[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(b.mediaDir, path)
		if err != nil {
			return err
		}
		assets = append(assets, Asset{
			ID:   filepath.ToSlash(rel),
			Type: assetType,
			Path: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan media directory: %w", err)
	}
	sort.Slice(assets, func(a, b int) bool { return assets[a].ID < assets[b].ID })
	return assets, nil
}
