// Command videoforge drives the narrated-video production pipeline: channel
// and video registration, batch stage execution, media-index builds, and
// asset matching passes.
package main
