package vectorindex

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"videoforge/internal/services"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	idx := New(2)
	entries := []struct {
		id  string
		vec []float32
	}{
		{"library/a.jpg", []float32{1, 0}},
		{"library/b.jpg", []float32{0, 1}},
		{"library/c.mp4", []float32{1, 1}},
	}
	for _, e := range entries {
		if err := idx.Add(Asset{ID: e.id, Type: "image", Path: "/media/" + e.id}, e.vec); err != nil {
			t.Fatalf("Add %s: %v", e.id, err)
		}
	}
	return idx
}

func TestSearchOrdersByDistance(t *testing.T) {
	idx := buildTestIndex(t)
	results, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Asset.ID != "library/a.jpg" {
		t.Fatalf("nearest should be a.jpg, got %s", results[0].Asset.ID)
	}
	if results[0].Distance > 1e-6 {
		t.Fatalf("identical vector should have zero distance, got %v", results[0].Distance)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not sorted by distance: %v", results)
		}
	}
}

func TestSearchBreaksTiesByAssetID(t *testing.T) {
	idx := New(2)
	// Two assets with identical vectors force a tie.
	for _, id := range []string{"z.jpg", "a.jpg"} {
		if err := idx.Add(Asset{ID: id}, []float32{1, 0}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Asset.ID != "a.jpg" || results[1].Asset.ID != "z.jpg" {
		t.Fatalf("tie not broken by ascending id: %v", results)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	idx := buildTestIndex(t)
	query := []float32{0.6, 0.4}
	first, err := idx.Search(query, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := idx.Search(query, 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		for j := range first {
			if first[j].Asset.ID != again[j].Asset.ID {
				t.Fatalf("non-deterministic ordering on run %d", i)
			}
		}
	}
}

func TestSimilarityScale(t *testing.T) {
	if got := Similarity(0); got != 1 {
		t.Fatalf("zero distance should be similarity 1, got %v", got)
	}
	if got := Similarity(2); got != 0 {
		t.Fatalf("max distance should be similarity 0, got %v", got)
	}
	// Orthogonal unit vectors sit at distance sqrt(2).
	d := angularDistance([]float32{1, 0}, []float32{0, 1})
	if math.Abs(d-math.Sqrt2) > 1e-6 {
		t.Fatalf("orthogonal distance: %v", d)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != idx.Len() || loaded.Dimensions() != 2 {
		t.Fatalf("loaded index mismatch: len=%d dims=%d", loaded.Len(), loaded.Dimensions())
	}
	if !loaded.Contains("library/c.mp4") {
		t.Fatal("loaded index missing asset")
	}
}

func TestLoadMissingIndex(t *testing.T) {
	if _, err := Load(t.TempDir(), 2); !errors.Is(err, ErrNoIndex) {
		t.Fatalf("expected ErrNoIndex, got %v", err)
	}
}

func TestLoadDimensionMismatchIsConfigurationFault(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(dir, 4); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}

func TestLoadCountMismatchIsConfigurationFault(t *testing.T) {
	dir := t.TempDir()
	idx := buildTestIndex(t)
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, assetsFileName), []byte(`[]`), 0o644); err != nil {
		t.Fatalf("truncate assets: %v", err)
	}
	if _, err := Load(dir, 2); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}

type fakeDescriber struct {
	calls map[string]int
}

func (f *fakeDescriber) Describe(_ context.Context, path string) (string, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[filepath.Base(path)]++
	return "a picture of " + filepath.Base(path), nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (fakeEmbedder) Dimensions() int { return 2 }

func TestBuilderIsIncremental(t *testing.T) {
	mediaDir := t.TempDir()
	indexDir := t.TempDir()
	for _, name := range []string{"one.jpg", "two.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(mediaDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write media: %v", err)
		}
	}

	describer := &fakeDescriber{}
	builder := NewBuilder(mediaDir, indexDir, describer, fakeEmbedder{}, 2, nil)

	first, err := builder.Build(context.Background(), false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.Added != 2 || first.Total != 2 {
		t.Fatalf("first build: %+v", first)
	}

	if err := os.WriteFile(filepath.Join(mediaDir, "three.webp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	second, err := builder.Build(context.Background(), false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if second.Added != 1 || second.Skipped != 2 || second.Total != 3 {
		t.Fatalf("second build: %+v", second)
	}
	if describer.calls["one.jpg"] != 1 {
		t.Fatalf("already indexed asset was re-captioned: %v", describer.calls)
	}
}

func TestBuilderPrefersSidecarDescription(t *testing.T) {
	mediaDir := t.TempDir()
	indexDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(mediaDir, "castle.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	if err := os.WriteFile(filepath.Join(mediaDir, "castle.jpg.txt"), []byte("medieval castle at dusk\n"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	describer := &fakeDescriber{}
	builder := NewBuilder(mediaDir, indexDir, describer, fakeEmbedder{}, 1, nil)
	result, err := builder.Build(context.Background(), false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Added != 1 {
		t.Fatalf("build: %+v", result)
	}
	if describer.calls["castle.jpg"] != 0 {
		t.Fatal("captioner called despite sidecar description")
	}

	idx, err := Load(indexDir, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := idx.Assets()[0].Description; got != "medieval castle at dusk" {
		t.Fatalf("sidecar description not stored: %q", got)
	}
}
