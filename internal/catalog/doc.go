// Package catalog persists channels, items, and per-stage checkpoint markers
// in SQLite. Checkpoints are explicit columns on the item record; artifact
// files store content only and never encode pipeline state.
package catalog
