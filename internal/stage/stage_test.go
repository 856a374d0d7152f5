package stage_test

import (
	"testing"

	"videoforge/internal/stage"
)

func TestAllOrdered(t *testing.T) {
	all := stage.All()
	if len(all) != stage.Count {
		t.Fatalf("expected %d stages, got %d", stage.Count, len(all))
	}
	want := []stage.Stage{
		stage.Transcript,
		stage.Summary,
		stage.Topics,
		stage.Introduction,
		stage.SegmentContent,
		stage.Audio,
	}
	for i, s := range all {
		if s != want[i] {
			t.Fatalf("stage %d: got %v, want %v", i, s, want[i])
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range stage.All() {
		parsed, ok := stage.Parse(s.String())
		if !ok || parsed != s {
			t.Fatalf("round trip failed for %v", s)
		}
	}
	if _, ok := stage.Parse("render"); ok {
		t.Fatal("expected unknown stage to fail parsing")
	}
	if parsed, ok := stage.Parse("Segment-Content"); !ok || parsed != stage.SegmentContent {
		t.Fatalf("expected dashed form to parse, got %v %v", parsed, ok)
	}
}
