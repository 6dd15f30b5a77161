package recommend

import (
	"sort"

	"campusMarket/domain"
)

// InterleaveCategories reorders a scored batch so no category
// monopolizes the top of the list. Batches are taken round-robin with
// the most populous categories getting slightly bigger batches. With two
// or fewer categories interleaving is pointless and the input passes
// through untouched.
func InterleaveCategories(items []domain.Item, forceDistribute bool) []domain.Item {
	byCategory := make(map[string][]domain.Item)
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		byCategory[category] = append(byCategory[category], item)
	}

	if len(byCategory) <= 2 {
		return items
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if len(byCategory[categories[i]]) != len(byCategory[categories[j]]) {
			return len(byCategory[categories[i]]) > len(byCategory[categories[j]])
		}
		return categories[i] < categories[j]
	})

	if forceDistribute {
		// Squash each category's internal scores into [0.7, 1.0] so a
		// single outlier cannot dominate downstream ordering.
		for _, category := range categories {
			group := byCategory[category]
			if len(group) < 2 {
				continue
			}

			minScore, maxScore := group[0].RelevanceScore, group[0].RelevanceScore
			for _, item := range group[1:] {
				if item.RelevanceScore < minScore {
					minScore = item.RelevanceScore
				}
				if item.RelevanceScore > maxScore {
					maxScore = item.RelevanceScore
				}
			}
			if maxScore <= minScore {
				continue
			}

			for i := range group {
				group[i].RelevanceScore = 0.7 + 0.3*(group[i].RelevanceScore-minScore)/(maxScore-minScore)
			}
		}
	}

	result := make([]domain.Item, 0, len(items))
	positions := make(map[string]int, len(categories))

	for len(result) < len(items) {
		added := false

		for idx, category := range categories {
			group := byCategory[category]
			pos := positions[category]
			if pos >= len(group) {
				continue
			}

			batchSize := 1
			if idx <= 3 {
				batchSize = 2
			}
			if remaining := len(group) - pos; batchSize > remaining {
				batchSize = remaining
			}

			result = append(result, group[pos:pos+batchSize]...)
			positions[category] = pos + batchSize
			added = true

			if len(result) >= len(items) {
				break
			}
		}

		if !added {
			break
		}
	}

	if len(result) > len(items) {
		result = result[:len(items)]
	}
	return result
}
