package recommend

import (
	"sort"
	"strings"
	"time"

	"campusMarket/domain"
)

// timeDecayFactor discounts an item by its age using the per-category
// decay rate, clamped to [0.1, 1.0].
func timeDecayFactor(createdAt time.Time, category string, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}

	rate, ok := categoryDecayRates[category]
	if !ok {
		rate = defaultDecayRate
	}

	elapsedHours := now.Sub(createdAt).Hours()
	factor := 1.0 / (1.0 + rate*elapsedHours)

	if factor < 0.1 {
		return 0.1
	}
	if factor > 1.0 {
		return 1.0
	}
	return factor
}

// ApplyCategoryWeights recomputes every item's relevance score from the
// blended category weight and time decay, then orders by score descending
// with dbid as the tie-break. Re-applying with unchanged inputs is a
// no-op on the order.
func ApplyCategoryWeights(items []domain.Item, weights map[string]float64, now time.Time) []domain.Item {
	for i := range items {
		category := strings.TrimSpace(items[i].Category)

		baseWeight := defaultRelevance
		if category != "" {
			if w, ok := weights[category]; ok {
				baseWeight = w
			}
		}

		timeWeight := 1.0
		if category != "" {
			timeWeight = timeDecayFactor(items[i].CreatedAt, category, now)
		}

		items[i].RelevanceScore = baseWeight * timeWeight
	}

	sortByScore(items)
	return items
}

// ApplyKeywordBoost multiplies the relevance of items whose title contains
// one of the user's top keywords. Earlier keywords weigh more; the boost
// is discounted by how much search history backs the keywords. Matching is
// an untokenized case-insensitive substring test, as in the learning job.
func ApplyKeywordBoost(items []domain.Item, topKeywords []string, totalSearches int) []domain.Item {
	if len(topKeywords) == 0 {
		return items
	}

	keywordConfidence := float64(totalSearches) / keywordSearchDivisor
	if keywordConfidence > 1.0 {
		keywordConfidence = 1.0
	}

	if len(topKeywords) > 5 {
		topKeywords = topKeywords[:5]
	}

	for i := range items {
		title := strings.ToLower(items[i].Title)

		keywordScore := 0.0
		for idx, keyword := range topKeywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(title, strings.ToLower(keyword)) {
				keywordScore += 1.0 - float64(idx)*0.2
			}
		}

		if keywordScore > 0 {
			if items[i].RelevanceScore == 0 {
				items[i].RelevanceScore = 0.5
			}
			items[i].RelevanceScore *= 1.0 + keywordScore*keywordBoostFactor*keywordConfidence
		}
	}

	sortByScore(items)
	return items
}

func sortByScore(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RelevanceScore != items[j].RelevanceScore {
			return items[i].RelevanceScore > items[j].RelevanceScore
		}
		return items[i].DBID < items[j].DBID
	})
}
