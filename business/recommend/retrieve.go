package recommend

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"campusMarket/domain"
	"campusMarket/pkg/logger"
)

// Retrieval strategy labels, chosen per request by signal strength.
const (
	StrategyCategoryFocused = "category_focused"
	StrategyWeightBased     = "weight_based"
	StrategyKeywordBased    = "keyword_based"
	StrategyCSVDiverse      = "csv_diverse"
	StrategyDBFallback      = "db_fallback"
)

// ItemReader is the catalog access the retriever needs.
type ItemReader interface {
	// RecentIDs returns active item ids newest-first, optionally
	// filtered by category (empty means all).
	RecentIDs(ctx context.Context, category string, limit int) ([]uint64, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.Item, error)
}

// VectorHit is one nearest-neighbor result from the vector index.
type VectorHit struct {
	DBID  uint64
	Score float64
	Item  *domain.Item
}

// VectorIndex is the semantic search collaborator. Implementations may
// be unavailable; the retriever degrades to the relational catalog.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]VectorHit, error)
	Retrieve(ctx context.Context, ids []uint64) ([]domain.Item, error)
}

// Embedder maps a query string to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever selects a retrieval strategy from the available signal and
// produces a ranked candidate id list.
type Retriever struct {
	items  ItemReader
	vector VectorIndex
	embed  Embedder
}

func NewRetriever(items ItemReader, vector VectorIndex, embed Embedder) *Retriever {
	return &Retriever{items: items, vector: vector, embed: embed}
}

// Search returns candidate ids sorted by score descending (id ascending
// as tie-break) truncated to limit, plus the strategy label.
func (r *Retriever) Search(
	ctx context.Context,
	topKeywords []string,
	categoryWeights map[string]float64,
	recentCategories []string,
	limit int,
) ([]uint64, string, error) {

	if r.vector == nil {
		ids, err := r.items.RecentIDs(ctx, "", limit)
		if err != nil {
			return nil, "", err
		}
		return ids, StrategyDBFallback, nil
	}

	results := map[uint64]float64{}
	strategy := ""

	hasRecent := len(recentCategories) > 0
	hasStrongWeights := maxWeight(categoryWeights) > strongWeightCutoff
	hasKeywords := len(topKeywords) > 0

	switch {
	case hasRecent:
		strategy = StrategyCategoryFocused

		if err := r.mergeCategory(ctx, results, recentCategories[0], 100, 0.8); err != nil {
			return nil, "", err
		}

		if len(recentCategories) > 1 {
			if err := r.mergeCategory(ctx, results, recentCategories[1], 50, 0.7); err != nil {
				return nil, "", err
			}
		}

		for _, cw := range topWeightedExcluding(categoryWeights, recentCategories, 5) {
			if err := r.mergeCategory(ctx, results, cw.category, 50, cw.weight*0.6); err != nil {
				return nil, "", err
			}
		}

		if hasKeywords {
			r.mergeSemantic(ctx, results, topKeywords, 2, 100, 0.2, 0.5)
		}

	case hasStrongWeights:
		strategy = StrategyWeightBased

		perCategoryLimits := []int{150, 100, 50}
		for idx, cw := range topWeightedExcluding(categoryWeights, nil, 3) {
			score := cw.weight * (0.8 - float64(idx)*0.1)
			if err := r.mergeCategory(ctx, results, cw.category, perCategoryLimits[idx], score); err != nil {
				return nil, "", err
			}
		}

		if hasKeywords {
			r.mergeSemantic(ctx, results, topKeywords, 2, 100, 0.15, 0.5)
		}

	case hasKeywords:
		strategy = StrategyKeywordBased

		r.mergeSemantic(ctx, results, topKeywords, 3, 400, 0.15, 0.8)

	default:
		strategy = StrategyCSVDiverse

		// No personalization signal at all: sample the strongest static
		// categories with a little jitter so the list does not freeze.
		for _, cw := range topWeightedExcluding(categoryWeights, nil, 8) {
			ids, err := r.items.RecentIDs(ctx, cw.category, 100)
			if err != nil {
				return nil, "", err
			}
			for _, id := range ids {
				mergeScore(results, id, cw.weight*0.7+rand.Float64()*0.1)
			}
		}

		ids, err := r.items.RecentIDs(ctx, "", 100)
		if err != nil {
			return nil, "", err
		}
		for _, id := range ids {
			mergeScore(results, id, 0.4+rand.Float64()*0.1)
		}
	}

	ids := rankIDs(results, limit)

	// Every tier can come up empty when its upstream is degraded (embed
	// or vector failures are non-fatal above). Degrade to the relational
	// catalog rather than returning an empty recommendation set.
	if len(ids) == 0 {
		ids, err := r.items.RecentIDs(ctx, "", limit)
		if err != nil {
			return nil, "", err
		}
		return ids, StrategyDBFallback, nil
	}

	return ids, strategy, nil
}

func (r *Retriever) mergeCategory(ctx context.Context, results map[uint64]float64, category string, limit int, score float64) error {
	ids, err := r.items.RecentIDs(ctx, category, limit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		mergeScore(results, id, score)
	}
	return nil
}

// mergeSemantic blends a nearest-neighbor search over the top keywords
// into the result set. Vector-side failures are non-fatal: the request
// continues on whatever the relational sources produced.
func (r *Retriever) mergeSemantic(
	ctx context.Context,
	results map[uint64]float64,
	keywords []string,
	take, limit int,
	threshold, discount float64,
) {
	if r.embed == nil {
		return
	}
	if len(keywords) > take {
		keywords = keywords[:take]
	}

	vector, err := r.embed.Embed(ctx, strings.Join(keywords, " "))
	if err != nil {
		logger.Warn("keyword embedding failed", "error", err)
		return
	}

	hits, err := r.vector.Query(ctx, vector, limit, threshold)
	if err != nil {
		logger.Warn("vector search failed", "error", err)
		return
	}

	for _, hit := range hits {
		mergeScore(results, hit.DBID, hit.Score*discount)
	}
}

// mergeScore keeps the maximum score when an id recurs across sources.
func mergeScore(results map[uint64]float64, id uint64, score float64) {
	if existing, ok := results[id]; !ok || score > existing {
		results[id] = score
	}
}

func rankIDs(results map[uint64]float64, limit int) []uint64 {
	type scored struct {
		id    uint64
		score float64
	}

	ranked := make([]scored, 0, len(results))
	for id, score := range results {
		ranked = append(ranked, scored{id, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]uint64, len(ranked))
	for i, s := range ranked {
		ids[i] = s.id
	}
	return ids
}

type categoryWeight struct {
	category string
	weight   float64
}

// topWeightedExcluding returns the n heaviest categories not present in
// the exclusion list, heaviest first.
func topWeightedExcluding(weights map[string]float64, exclude []string, n int) []categoryWeight {
	excluded := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	out := make([]categoryWeight, 0, len(weights))
	for category, weight := range weights {
		if excluded[category] {
			continue
		}
		out = append(out, categoryWeight{category, weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].category < out[j].category
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

func maxWeight(weights map[string]float64) float64 {
	max := 0.0
	for _, w := range weights {
		if w > max {
			max = w
		}
	}
	return max
}
