package stages

import (
	"strings"

	"videoforge/internal/artifacts"
)

// narrationWordsPerSecond approximates a calm narration pace; the audio
// stage replaces these estimates with aligned timings when audio exists.
const narrationWordsPerSecond = 2.5

// SplitNarration cuts the narration script into sentence-level segments with
// word-count timing estimates.
func SplitNarration(narration string) *artifacts.SegmentList {
	list := &artifacts.SegmentList{}
	cursor := 0.0
	for _, sentence := range splitSentences(narration) {
		words := len(strings.Fields(sentence))
		if words == 0 {
			continue
		}
		duration := float64(words) / narrationWordsPerSecond
		list.Segments = append(list.Segments, artifacts.Segment{
			Text:     sentence,
			Start:    cursor,
			End:      cursor + duration,
			Duration: duration,
		})
		cursor += duration
	}
	return list
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return sentences
}
