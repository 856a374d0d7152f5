// Package artifacts stores per-item stage outputs as files under the data
// directory and validates them structurally on load. Invalid artifacts are
// reported as validation failures so the pipeline regenerates them.
package artifacts
