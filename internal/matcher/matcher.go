// Package matcher assigns library media assets to narration segments under
// the similarity and reuse policy.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"videoforge/internal/artifacts"
	"videoforge/internal/catalog"
	"videoforge/internal/config"
	"videoforge/internal/logging"
	"videoforge/internal/services"
	"videoforge/internal/vectorindex"
)

// SearchIndex answers nearest-neighbor queries over the asset library.
type SearchIndex interface {
	Search(vector []float32, k int) ([]vectorindex.Result, error)
	Len() int
}

// Embedder turns a visual-search phrase into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Policy is the resolved matching policy for one item's channel.
type Policy struct {
	SimilarityThreshold float64
	ReuseCap            int
	SearchBreadth       int
}

// PolicyFor resolves the effective policy from the global configuration and
// the channel's overrides.
func PolicyFor(cfg config.Matching, channel *catalog.Channel) Policy {
	policy := Policy{
		SimilarityThreshold: cfg.SimilarityThreshold,
		ReuseCap:            cfg.ReuseCap,
		SearchBreadth:       cfg.SearchBreadth,
	}
	if channel != nil {
		if channel.ThresholdOverride > 0 {
			policy.SimilarityThreshold = channel.ThresholdOverride
		}
		if channel.ReuseCapOverride > 0 {
			policy.ReuseCap = channel.ReuseCapOverride
		}
	}
	return policy
}

// Ledger tracks how many segments of the current item reference each asset.
// It is rebuilt from the segment list on every pass, never persisted.
type Ledger map[string]int

// BuildLedger counts existing asset references in list.
func BuildLedger(list *artifacts.SegmentList) Ledger {
	ledger := make(Ledger)
	if list == nil {
		return ledger
	}
	for _, seg := range list.Segments {
		if seg.Asset != "" {
			ledger[seg.Asset]++
		}
	}
	return ledger
}

// Matcher fills segment asset references from the vector index.
type Matcher struct {
	index    SearchIndex
	embedder Embedder
	policy   Policy
	logger   *slog.Logger
}

// New constructs a matcher over the given index and policy.
func New(index SearchIndex, embedder Embedder, policy Policy, logger *slog.Logger) *Matcher {
	if policy.SearchBreadth <= 0 {
		policy.SearchBreadth = 50
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{index: index, embedder: embedder, policy: policy, logger: logger}
}

// FillResult summarizes one matching pass over an item's segments.
type FillResult struct {
	// Assigned counts segments that received an asset in this pass.
	Assigned int
	// Kept counts segments whose existing asset reference was left alone.
	Kept int
	// Missing lists distinct phrases the soft pass could not satisfy under
	// the similarity threshold and reuse cap.
	Missing []string
	// Exhausted lists distinct phrases where every candidate within the
	// search breadth was reuse-capped. Only the mandatory pass reports these.
	Exhausted []string
}

// FillSegments assigns assets to the unfilled segments of list, in segment
// order. The soft pass enforces the similarity threshold and the reuse cap;
// the mandatory pass drops the threshold and keeps only the cap. Segments
// already holding an asset reference are never reconsidered. list is mutated
// in place; the caller persists it.
func (m *Matcher) FillSegments(ctx context.Context, list *artifacts.SegmentList, mandatory bool) (*FillResult, error) {
	if list == nil || len(list.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "fill segments", "no segments to match", nil)
	}
	if m.index.Len() == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "fill segments", "vector index is empty", nil)
	}

	ledger := BuildLedger(list)
	result := &FillResult{}
	seenMissing := make(map[string]bool)
	seenExhausted := make(map[string]bool)

	for i := range list.Segments {
		seg := &list.Segments[i]
		if seg.Asset != "" {
			result.Kept++
			continue
		}
		if seg.Phrase == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assetID, err := m.matchPhrase(ctx, seg.Phrase, ledger, mandatory)
		switch {
		case err == nil && assetID != "":
			seg.Asset = assetID
			ledger[assetID]++
			result.Assigned++
		case err == nil:
			// Soft pass found nothing above the threshold with reuse headroom.
			if !seenMissing[seg.Phrase] {
				seenMissing[seg.Phrase] = true
				result.Missing = append(result.Missing, seg.Phrase)
			}
		case errors.Is(err, services.ErrExhausted):
			if !seenExhausted[seg.Phrase] {
				seenExhausted[seg.Phrase] = true
				result.Exhausted = append(result.Exhausted, seg.Phrase)
			}
			m.logger.Warn("every candidate reuse-capped",
				logging.String("phrase", seg.Phrase),
				logging.Int("search_breadth", m.policy.SearchBreadth))
		default:
			return nil, err
		}
	}
	return result, nil
}

// matchPhrase returns the best admissible asset id for phrase, or "" when the
// soft policy admits no candidate. In mandatory mode an all-capped candidate
// set is an exhaustion error instead of a silent miss.
func (m *Matcher) matchPhrase(ctx context.Context, phrase string, ledger Ledger, mandatory bool) (string, error) {
	vector, err := m.embedder.Embed(ctx, phrase)
	if err != nil {
		return "", err
	}
	candidates, err := m.index.Search(vector, m.policy.SearchBreadth)
	if err != nil {
		return "", err
	}

	for _, candidate := range candidates {
		similarity := vectorindex.Similarity(candidate.Distance)
		if !mandatory && similarity < m.policy.SimilarityThreshold {
			// Candidates are distance-ordered, so everything after this one
			// is below the threshold too.
			break
		}
		if m.policy.ReuseCap > 0 && ledger[candidate.Asset.ID] >= m.policy.ReuseCap {
			continue
		}
		return candidate.Asset.ID, nil
	}

	if mandatory {
		return "", services.Wrap(services.ErrExhausted, "", "match phrase",
			fmt.Sprintf("all %d candidates for %q are reuse-capped", len(candidates), phrase), nil)
	}
	return "", nil
}
