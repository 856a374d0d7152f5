package stage

import "strings"

// Stage identifies one ordered step of the production pipeline. The zero
// value is the first stage; ordering is significant and one-directional.
type Stage int

const (
	Transcript Stage = iota
	Summary
	Topics
	Introduction
	SegmentContent
	Audio
)

var names = [...]string{
	Transcript:     "transcript",
	Summary:        "summary",
	Topics:         "topics",
	Introduction:   "introduction",
	SegmentContent: "segment_content",
	Audio:          "audio",
}

var labels = [...]string{
	Transcript:     "Transcript",
	Summary:        "Summary",
	Topics:         "Topics",
	Introduction:   "Introduction",
	SegmentContent: "Segment Content",
	Audio:          "Audio",
}

// Count is the number of pipeline stages.
const Count = len(names)

// All returns the stages in pipeline order.
func All() []Stage {
	stages := make([]Stage, Count)
	for i := range stages {
		stages[i] = Stage(i)
	}
	return stages
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s >= 0 && int(s) < Count
}

// String returns the normalized stage identifier used in storage and CLI flags.
func (s Stage) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return names[s]
}

// Label returns the human-readable stage name used in progress lines.
func (s Stage) Label() string {
	if !s.Valid() {
		return "Unknown"
	}
	return labels[s]
}

// Parse converts a string into a known Stage.
func Parse(value string) (Stage, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for i, name := range names {
		if name == normalized {
			return Stage(i), true
		}
	}
	return 0, false
}
