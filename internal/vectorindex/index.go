// Package vectorindex maintains the library-wide index of media asset
// vectors and answers nearest-neighbor queries with exact distances.
package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"videoforge/internal/services"
)

const (
	vectorsFileName = "vectors.bin"
	assetsFileName  = "assets.json"
	indexMagic      = uint32(0x56464958) // "VFIX"
	indexVersion    = uint32(1)
)

// ErrNoIndex reports that no index has been built yet.
var ErrNoIndex = errors.New("vector index not found")

// Asset is the metadata stored alongside one vector. ID is the asset's path
// relative to the media directory and is the stable tiebreak key.
type Asset struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Result is one nearest-neighbor answer. Distance is angular, in [0, 2].
type Result struct {
	Asset    Asset
	Distance float64
}

// Similarity converts an angular distance into the [0, 1] similarity scale
// used by the matching policy.
func Similarity(distance float64) float64 {
	return 1 - distance/2
}

// Index is an in-memory flat index over unit-normalized vectors.
type Index struct {
	dimensions int
	vectors    [][]float32
	assets     []Asset
	byID       map[string]int
}

// Dimensions returns the vector width of the loaded index.
func (idx *Index) Dimensions() int { return idx.dimensions }

// Len returns the number of indexed assets.
func (idx *Index) Len() int { return len(idx.assets) }

// Assets returns the indexed assets in storage order.
func (idx *Index) Assets() []Asset { return idx.assets }

// Contains reports whether an asset id is already indexed.
func (idx *Index) Contains(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Load reads the index from dir. The expected dimension count comes from
// configuration; a stored index with a different width is unusable and is
// reported as a configuration fault rather than silently searched.
func Load(dir string, expectDimensions int) (*Index, error) {
	vectorsPath := filepath.Join(dir, vectorsFileName)
	assetsPath := filepath.Join(dir, assetsFileName)

	raw, err := os.ReadFile(vectorsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoIndex
	}
	if err != nil {
		return nil, fmt.Errorf("read index vectors: %w", err)
	}
	dimensions, vectors, err := decodeVectors(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "load index", "corrupt vector file", err)
	}
	if expectDimensions > 0 && dimensions != expectDimensions {
		return nil, services.Wrap(services.ErrConfiguration, "", "load index",
			fmt.Sprintf("index has %d dimensions, configured %d", dimensions, expectDimensions), nil)
	}

	assetData, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "load index", "read asset metadata", err)
	}
	var assets []Asset
	if err := json.Unmarshal(assetData, &assets); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "load index", "corrupt asset metadata", err)
	}
	if len(assets) != len(vectors) {
		return nil, services.Wrap(services.ErrConfiguration, "", "load index",
			fmt.Sprintf("%d vectors but %d asset entries", len(vectors), len(assets)), nil)
	}

	idx := &Index{
		dimensions: dimensions,
		vectors:    vectors,
		assets:     assets,
		byID:       make(map[string]int, len(assets)),
	}
	for i, asset := range assets {
		if asset.ID == "" {
			return nil, services.Wrap(services.ErrConfiguration, "", "load index",
				fmt.Sprintf("asset entry %d has no id", i), nil)
		}
		if _, dup := idx.byID[asset.ID]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "", "load index",
				fmt.Sprintf("duplicate asset id %q", asset.ID), nil)
		}
		idx.byID[asset.ID] = i
	}
	return idx, nil
}

// New creates an empty in-memory index with the given vector width.
func New(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}
}

// Add appends an asset and its vector. The vector is normalized on insert so
// queries reduce to a dot product.
func (idx *Index) Add(asset Asset, vector []float32) error {
	if len(vector) != idx.dimensions {
		return services.Wrap(services.ErrConfiguration, "", "index add",
			fmt.Sprintf("vector has %d dimensions, index has %d", len(vector), idx.dimensions), nil)
	}
	if asset.ID == "" {
		return services.Wrap(services.ErrValidation, "", "index add", "asset id required", nil)
	}
	if _, dup := idx.byID[asset.ID]; dup {
		return services.Wrap(services.ErrValidation, "", "index add",
			fmt.Sprintf("asset %q already indexed", asset.ID), nil)
	}
	idx.byID[asset.ID] = len(idx.assets)
	idx.assets = append(idx.assets, asset)
	idx.vectors = append(idx.vectors, normalize(vector))
	return nil
}

// Search returns up to k nearest assets by angular distance, ordered by
// ascending distance with ascending asset id breaking ties. The ordering is
// total, so equal inputs always produce the same answer.
func (idx *Index) Search(vector []float32, k int) ([]Result, error) {
	if len(vector) != idx.dimensions {
		return nil, services.Wrap(services.ErrConfiguration, "", "index search",
			fmt.Sprintf("query has %d dimensions, index has %d", len(vector), idx.dimensions), nil)
	}
	if k <= 0 || idx.Len() == 0 {
		return nil, nil
	}

	query := normalize(vector)
	results := make([]Result, 0, idx.Len())
	for i, stored := range idx.vectors {
		results = append(results, Result{
			Asset:    idx.assets[i],
			Distance: angularDistance(query, stored),
		})
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Distance != results[b].Distance {
			return results[a].Distance < results[b].Distance
		}
		return results[a].Asset.ID < results[b].Asset.ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Save writes the index files atomically under dir.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, vectorsFileName), encodeVectors(idx.dimensions, idx.vectors)); err != nil {
		return fmt.Errorf("write index vectors: %w", err)
	}
	assetData, err := json.MarshalIndent(idx.assets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode asset metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, assetsFileName), assetData); err != nil {
		return fmt.Errorf("write asset metadata: %w", err)
	}
	return nil
}

// angularDistance computes sqrt(2 * (1 - cos)) for unit vectors, the same
// scale the similarity threshold is calibrated against.
func angularDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return math.Sqrt(2 * (1 - dot))
}

func normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return append([]float32(nil), vector...)
	}
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

func encodeVectors(dimensions int, vectors [][]float32) []byte {
	buf := make([]byte, 16, 16+len(vectors)*dimensions*4)
	binary.LittleEndian.PutUint32(buf[0:], indexMagic)
	binary.LittleEndian.PutUint32(buf[4:], indexVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(dimensions))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(vectors)))
	scratch := make([]byte, 4)
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(scratch, math.Float32bits(v))
			buf = append(buf, scratch...)
		}
	}
	return buf
}

func decodeVectors(raw []byte) (int, [][]float32, error) {
	if len(raw) < 16 {
		return 0, nil, errors.New("vector file too short")
	}
	if binary.LittleEndian.Uint32(raw[0:]) != indexMagic {
		return 0, nil, errors.New("bad magic")
	}
	if v := binary.LittleEndian.Uint32(raw[4:]); v != indexVersion {
		return 0, nil, fmt.Errorf("unsupported index version %d", v)
	}
	dimensions := int(binary.LittleEndian.Uint32(raw[8:]))
	count := int(binary.LittleEndian.Uint32(raw[12:]))
	if dimensions <= 0 {
		return 0, nil, errors.New("non-positive dimension count")
	}
	expected := 16 + count*dimensions*4
	if len(raw) != expected {
		return 0, nil, fmt.Errorf("expected %d bytes, have %d", expected, len(raw))
	}
	vectors := make([][]float32, count)
	offset := 16
	for i := range vectors {
		vec := make([]float32, dimensions)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[offset:]))
			offset += 4
		}
		vectors[i] = vec
	}
	return dimensions, vectors, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
