package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"videoforge/internal/catalog"
	"videoforge/internal/logging"
	"videoforge/internal/services"
	"videoforge/internal/stage"
)

// Runner executes the stage sequence for single items.
type Runner struct {
	store    *catalog.Store
	handlers [stage.Count]Handler
	logger   *slog.Logger
}

// NewRunner wires one handler per stage. Every stage must be covered exactly
// once.
func NewRunner(store *catalog.Store, logger *slog.Logger, handlers ...Handler) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{store: store, logger: logger}
	for _, handler := range handlers {
		s := handler.Stage()
		if !s.Valid() {
			return nil, fmt.Errorf("handler reports invalid stage %d", s)
		}
		if runner.handlers[s] != nil {
			return nil, fmt.Errorf("duplicate handler for stage %s", s)
		}
		runner.handlers[s] = handler
	}
	for _, s := range stage.All() {
		if runner.handlers[s] == nil {
			return nil, fmt.Errorf("no handler for stage %s", s)
		}
	}
	return runner, nil
}

// ItemOutcome reports how a single item fared in one pass.
type ItemOutcome int

const (
	// OutcomeAdvanced means at least one stage ran and checkpointed.
	OutcomeAdvanced ItemOutcome = iota
	// OutcomeComplete means every stage was already checkpointed and valid.
	OutcomeComplete
	// OutcomeFailed means a stage failed; the failure is recorded on the
	// item and the batch continues.
	OutcomeFailed
)

// ProcessItem runs the item from its first effectively-pending stage to the
// end. Item-scoped failures are recorded on the item and reported through the
// outcome; only batch-stopping faults (consistency, configuration) and
// context cancellation come back as errors.
func (r *Runner) ProcessItem(ctx context.Context, item *catalog.Item) (ItemOutcome, error) {
	ctx = logging.WithItem(ctx, item.ID, item.ChannelName)
	logger := logging.WithContext(ctx, r.logger)

	if err := item.VerifyMonotonic(); err != nil {
		logger.Error("checkpoint sequence violated", logging.Error(err))
		return OutcomeFailed, err
	}

	start, pending := r.effectiveStart(item, logger)
	if !pending {
		return OutcomeComplete, nil
	}

	advanced := false
	for s := start; s.Valid(); s++ {
		if err := ctx.Err(); err != nil {
			return OutcomeFailed, err
		}
		if item.StageDone(s) && s != start {
			// Checkpointed stages past the start are skipped only while their
			// artifacts still validate; a second stale artifact regenerates
			// in the same pass.
			verifyErr := r.handlers[s].Verify(item)
			if verifyErr == nil {
				continue
			}
			logger.Warn("checkpointed artifact failed validation, regenerating",
				logging.String("stage", s.String()),
				logging.Error(verifyErr))
		}

		stageCtx := logging.WithStage(ctx, s.String())
		stageLogger := logging.WithContext(stageCtx, r.logger)
		stageLogger.Info("stage started")

		if err := r.handlers[s].Run(stageCtx, item); err != nil {
			return r.recordFailure(ctx, item, s, err, stageLogger)
		}

		now := time.Now().UTC()
		if err := r.store.MarkStageDone(ctx, item.ID, s, now); err != nil {
			return OutcomeFailed, fmt.Errorf("mark stage %s done for item %d: %w", s, item.ID, err)
		}
		item.DoneAt[s] = &now
		item.LastError = ""
		advanced = true
		stageLogger.Info("stage completed")
	}

	if !advanced {
		return OutcomeComplete, nil
	}
	logger.Info("item completed")
	return OutcomeAdvanced, nil
}

// effectiveStart finds the first stage needing work: the first absent
// checkpoint, or an earlier checkpointed stage whose artifact no longer
// passes validation.
func (r *Runner) effectiveStart(item *catalog.Item, logger *slog.Logger) (stage.Stage, bool) {
	for _, s := range stage.All() {
		if !item.StageDone(s) {
			return s, true
		}
		if err := r.handlers[s].Verify(item); err != nil {
			logger.Warn("checkpointed artifact failed validation, regenerating",
				logging.String("stage", s.String()),
				logging.Error(err))
			return s, true
		}
	}
	return 0, false
}

// recordFailure persists the failure on the item for item-scoped errors and
// propagates batch-stopping ones.
func (r *Runner) recordFailure(ctx context.Context, item *catalog.Item, s stage.Stage, err error, logger *slog.Logger) (ItemOutcome, error) {
	logger.Error("stage failed", logging.Error(err))

	item.LastError = fmt.Sprintf("%s: %s", s, services.Details(err))
	if updateErr := r.store.UpdateItem(ctx, item); updateErr != nil {
		logger.Error("persist item failure", logging.Error(updateErr))
	}

	if !services.IsItemScoped(err) {
		return OutcomeFailed, err
	}
	if ctx.Err() != nil {
		return OutcomeFailed, ctx.Err()
	}
	return OutcomeFailed, nil
}
