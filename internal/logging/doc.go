// Package logging wraps log/slog with the standardized attribute keys,
// context plumbing, and console/JSON handlers used across videoforge.
package logging
