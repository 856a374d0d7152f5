package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"videoforge/internal/catalog"
	"videoforge/internal/config"
	"videoforge/internal/logging"
	"videoforge/internal/services"
)

// Batch runs one full pass over all pending items. A file lock keeps
// concurrent invocations from interleaving stage writes.
type Batch struct {
	cfg    *config.Config
	store  *catalog.Store
	runner *Runner
	logger *slog.Logger
}

// NewBatch constructs a batch driver.
func NewBatch(cfg *config.Config, store *catalog.Store, runner *Runner, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Batch{cfg: cfg, store: store, runner: runner, logger: logger}
}

// BatchResult summarizes one pass.
type BatchResult struct {
	Processed int
	Advanced  int
	Failed    int
	Skipped   int
}

// RunOnce processes every pending item, in catalog order. An empty
// channelName covers all active channels. Item failures are isolated; the
// pass stops early only on systemic faults or cancellation.
func (b *Batch) RunOnce(ctx context.Context, channelName string) (*BatchResult, error) {
	if err := Preflight(b.cfg); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(b.cfg.Paths.DataDir, ".pipeline.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire pipeline lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another pipeline run is already active")
	}
	defer lock.Unlock()

	// One correlation id per pass ties all of its log lines together.
	ctx = services.WithRequestID(ctx, uuid.NewString())

	items, err := b.store.ListPending(ctx, channelName)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}
	b.logger.Info("batch started", logging.Int("pending", len(items)))

	result := &BatchResult{}
	for _, item := range items {
		// Cooperative stop between items keeps a cancelled run from
		// abandoning an item mid-stage.
		if err := ctx.Err(); err != nil {
			b.logger.Info("batch cancelled",
				logging.Int("processed", result.Processed))
			return result, err
		}

		outcome, err := b.runner.ProcessItem(ctx, item)
		result.Processed++
		switch outcome {
		case OutcomeAdvanced:
			result.Advanced++
		case OutcomeComplete:
			result.Skipped++
		case OutcomeFailed:
			result.Failed++
		}
		if err != nil {
			// Consistency and configuration faults are systemic; finishing
			// the batch would repeat them on every item.
			return result, err
		}
	}

	b.logger.Info("batch finished",
		logging.Int("processed", result.Processed),
		logging.Int("advanced", result.Advanced),
		logging.Int("failed", result.Failed))
	return result, nil
}
