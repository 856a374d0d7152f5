// Package config loads, defaults, and validates the TOML configuration that
// drives the pipeline, the matcher, and the collaborator clients.
package config
