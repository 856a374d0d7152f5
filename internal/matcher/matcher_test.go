package matcher

import (
	"context"
	"testing"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/config"
	"videoforge/internal/vectorindex"
)

// fakeLibrary serves canned, distance-ordered candidates per phrase. It
// stands in for the embedder and the index together.
type fakeLibrary struct {
	results    map[string][]vectorindex.Result
	lastPhrase string
}

func (f *fakeLibrary) Embed(_ context.Context, text string) ([]float32, error) {
	f.lastPhrase = text
	return []float32{1}, nil
}

func (f *fakeLibrary) Search(_ []float32, k int) ([]vectorindex.Result, error) {
	results := f.results[f.lastPhrase]
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (f *fakeLibrary) Len() int { return 10 }

// sim converts a similarity to the angular distance the index reports.
func sim(similarity float64) float64 {
	return 2 * (1 - similarity)
}

func candidate(id string, similarity float64) vectorindex.Result {
	return vectorindex.Result{Asset: vectorindex.Asset{ID: id}, Distance: sim(similarity)}
}

func defaultPolicy() Policy {
	return Policy{SimilarityThreshold: 0.75, ReuseCap: 3, SearchBreadth: 50}
}

func segments(phrases ...string) *artifacts.SegmentList {
	list := &artifacts.SegmentList{}
	for _, phrase := range phrases {
		list.Segments = append(list.Segments, artifacts.Segment{Text: "t", Phrase: phrase})
	}
	return list
}

func TestSoftPassAssignsAboveThreshold(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"castle at dawn": {candidate("castle.jpg", 0.9), candidate("fort.jpg", 0.8)},
	}}
	m := New(library, library, defaultPolicy(), nil)

	list := segments("castle at dawn")
	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 1 || list.Segments[0].Asset != "castle.jpg" {
		t.Fatalf("unexpected assignment: %+v / %q", result, list.Segments[0].Asset)
	}
}

func TestSoftPassThresholdIsInclusive(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"edge": {candidate("edge.jpg", 0.75)},
	}}
	m := New(library, library, defaultPolicy(), nil)

	list := segments("edge")
	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 1 {
		t.Fatalf("similarity exactly at threshold should match: %+v", result)
	}
}

func TestSoftPassRecordsMissingBelowThreshold(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"obscure ritual": {candidate("vaguely.jpg", 0.6)},
	}}
	m := New(library, library, defaultPolicy(), nil)

	list := segments("obscure ritual", "obscure ritual")
	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 0 {
		t.Fatalf("nothing should match: %+v", result)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "obscure ritual" {
		t.Fatalf("missing phrases not deduplicated: %v", result.Missing)
	}
	if list.Segments[0].Asset != "" {
		t.Fatal("segment should stay unfilled")
	}
}

func TestReuseCapForcesNextCandidate(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"ocean waves": {candidate("best.jpg", 0.95), candidate("second.jpg", 0.85)},
	}}
	policy := defaultPolicy()
	policy.ReuseCap = 2
	m := New(library, library, policy, nil)

	list := segments("ocean waves", "ocean waves", "ocean waves")
	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 3 {
		t.Fatalf("all three should be assigned: %+v", result)
	}
	got := []string{list.Segments[0].Asset, list.Segments[1].Asset, list.Segments[2].Asset}
	want := []string{"best.jpg", "best.jpg", "second.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assignment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLedgerCountsExistingAssignments(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"ocean waves": {candidate("best.jpg", 0.95), candidate("second.jpg", 0.85)},
	}}
	policy := defaultPolicy()
	policy.ReuseCap = 1
	m := New(library, library, policy, nil)

	list := segments("ocean waves")
	// A previous pass already used best.jpg up to the reuse cap.
	list.Segments = append([]artifacts.Segment{{Text: "t", Phrase: "x", Asset: "best.jpg"}}, list.Segments...)

	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Kept != 1 || result.Assigned != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if list.Segments[1].Asset != "second.jpg" {
		t.Fatalf("capped asset reused: %q", list.Segments[1].Asset)
	}
}

func TestMandatoryPassIgnoresThreshold(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"weak match": {candidate("distant.jpg", 0.4)},
	}}
	m := New(library, library, defaultPolicy(), nil)

	list := segments("weak match")
	result, err := m.FillSegments(context.Background(), list, true)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 1 || list.Segments[0].Asset != "distant.jpg" {
		t.Fatalf("mandatory pass should assign below threshold: %+v", result)
	}
}

func TestMandatoryPassReportsExhaustion(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"rare scene": {candidate("only.jpg", 0.9)},
	}}
	policy := defaultPolicy()
	policy.ReuseCap = 1
	m := New(library, library, policy, nil)

	list := segments("rare scene", "rare scene")
	result, err := m.FillSegments(context.Background(), list, true)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Assigned != 1 {
		t.Fatalf("first segment should be assigned: %+v", result)
	}
	if len(result.Exhausted) != 1 || result.Exhausted[0] != "rare scene" {
		t.Fatalf("expected exhaustion report: %v", result.Exhausted)
	}
	if list.Segments[1].Asset != "" {
		t.Fatal("exhausted segment must stay unfilled")
	}
}

func TestExistingAssetsAreSticky(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"anything": {candidate("new.jpg", 0.99)},
	}}
	m := New(library, library, defaultPolicy(), nil)

	list := &artifacts.SegmentList{Segments: []artifacts.Segment{
		{Text: "t", Phrase: "anything", Asset: "chosen-by-hand.jpg"},
	}}
	result, err := m.FillSegments(context.Background(), list, false)
	if err != nil {
		t.Fatalf("FillSegments: %v", err)
	}
	if result.Kept != 1 || result.Assigned != 0 {
		t.Fatalf("existing assignment should be kept: %+v", result)
	}
	if list.Segments[0].Asset != "chosen-by-hand.jpg" {
		t.Fatalf("asset was overwritten: %q", list.Segments[0].Asset)
	}
}

func TestFillSegmentsIsDeterministic(t *testing.T) {
	library := &fakeLibrary{results: map[string][]vectorindex.Result{
		"scene": {candidate("a.jpg", 0.9), candidate("b.jpg", 0.9)},
	}}
	var first []string
	for run := 0; run < 5; run++ {
		m := New(library, library, defaultPolicy(), nil)
		list := segments("scene", "scene")
		if _, err := m.FillSegments(context.Background(), list, false); err != nil {
			t.Fatalf("FillSegments: %v", err)
		}
		got := []string{list.Segments[0].Asset, list.Segments[1].Asset}
		if run == 0 {
			first = got
			continue
		}
		if got[0] != first[0] || got[1] != first[1] {
			t.Fatalf("run %d differs: %v vs %v", run, got, first)
		}
	}
}

func TestPolicyForAppliesChannelOverrides(t *testing.T) {
	global := config.Matching{SimilarityThreshold: 0.75, ReuseCap: 3, SearchBreadth: 50}
	channel := &catalog.Channel{ReuseCapOverride: 5, ThresholdOverride: 0.9}

	policy := PolicyFor(global, channel)
	if policy.ReuseCap != 5 || policy.SimilarityThreshold != 0.9 || policy.SearchBreadth != 50 {
		t.Fatalf("overrides not applied: %+v", policy)
	}

	policy = PolicyFor(global, &catalog.Channel{})
	if policy.ReuseCap != 3 || policy.SimilarityThreshold != 0.75 {
		t.Fatalf("defaults not kept: %+v", policy)
	}
}
