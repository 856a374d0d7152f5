// Package pipeline drives items through the production stages with
// checkpoint skipping, failure isolation, and crash-safe artifact ordering.
package pipeline

import (
	"context"

	"videoforge/internal/catalog"
	"videoforge/internal/stage"
)

// Handler implements one pipeline stage.
//
// Run performs the stage's work and persists its artifact. It must not write
// the checkpoint; the runner does that after Run returns nil, so a crash
// between the two writes reads as "not done" on the next pass.
//
// Verify re-validates the stage's persisted artifact using local reads only.
// A validation error makes the runner treat the stage as not done and
// regenerate it even though its checkpoint is present.
type Handler interface {
	Stage() stage.Stage
	Verify(item *catalog.Item) error
	Run(ctx context.Context, item *catalog.Item) error
}
