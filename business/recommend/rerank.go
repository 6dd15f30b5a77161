package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"campusMarket/domain"
	"campusMarket/pkg/logger"
	"campusMarket/pkg/metrics"
)

// RerankOutcome records whether the LLM reordering was applied; failures
// are values, not errors, so the fallback path is testable without real
// network faults.
type RerankOutcome struct {
	Applied    bool
	SkipReason string
}

func skipped(reason string) RerankOutcome {
	return RerankOutcome{SkipReason: reason}
}

// applyRerank reorders the head of the candidate list with the LLM,
// bounded by the fingerprint cache: at most one call per distinct
// (user, signals, model) per TTL window. Any failure leaves the original
// order untouched.
func (s *Service) applyRerank(
	ctx context.Context,
	candidateIDs []uint64,
	user domain.User,
	signals personalSignals,
	recentCategories []string,
	finalWeights map[string]float64,
	model string,
) ([]uint64, []domain.Item, bool) {

	if len(candidateIDs) == 0 {
		return candidateIDs, nil, false
	}

	key := Fingerprint(user.UserID, signals.topKeywords, recentCategories, model)
	if rankedIDs, items, ok := s.cache.Get(key); ok {
		metrics.RerankCacheHits.Inc()
		return rankedIDs, items, true
	}
	metrics.RerankCacheMisses.Inc()

	pool, err := s.hydrateItems(ctx, candidateIDs, s.cfg.RerankPoolSize)
	if err != nil || len(pool) == 0 {
		if err != nil {
			logger.Warn("rerank hydration failed", "error", err)
		}
		return candidateIDs, nil, false
	}

	pool = ApplyCategoryWeights(pool, finalWeights, s.now())
	subset := buildRerankSubset(pool, recentCategories, finalWeights, s.cfg.RerankSubsetSize)

	rerankedSubset, outcome := s.llmRerank(ctx, subset, user, signals.topKeywords, recentCategories, model)
	if !outcome.Applied {
		metrics.RerankFallbacks.Inc()
		logger.Debug("rerank skipped", "reason", outcome.SkipReason, "user_id", user.UserID)
	}

	rerankedSubset = InterleaveCategories(rerankedSubset, true)

	inSubset := make(map[uint64]bool, len(rerankedSubset))
	rankedIDs := make([]uint64, 0, len(candidateIDs))
	for _, item := range rerankedSubset {
		inSubset[item.DBID] = true
		rankedIDs = append(rankedIDs, item.DBID)
	}
	for _, id := range candidateIDs {
		if !inSubset[id] {
			rankedIDs = append(rankedIDs, id)
		}
	}

	s.cache.Put(key, rankedIDs, rerankedSubset)

	return rankedIDs, rerankedSubset, true
}

// buildRerankSubset picks at most size items for the LLM: recent
// categories first with fixed quotas, then remaining categories by
// weight tier.
func buildRerankSubset(pool []domain.Item, recentCategories []string, weights map[string]float64, size int) []domain.Item {
	byCategory := make(map[string][]domain.Item)
	for _, item := range pool {
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		byCategory[category] = append(byCategory[category], item)
	}

	recentHead := recentCategories
	if len(recentHead) > 2 {
		recentHead = recentHead[:2]
	}

	mixed := make([]domain.Item, 0, size)

	for idx, category := range recentHead {
		group, ok := byCategory[category]
		if !ok {
			continue
		}
		take := 3
		if idx == 0 {
			take = 4
		}
		if take > len(group) {
			take = len(group)
		}
		mixed = append(mixed, group[:take]...)
	}

	excluded := make(map[string]bool, len(recentHead))
	for _, c := range recentHead {
		excluded[c] = true
	}

	others := make([]categoryWeight, 0, len(byCategory))
	for category := range byCategory {
		if excluded[category] {
			continue
		}
		weight, ok := weights[category]
		if !ok {
			weight = defaultStaticWeight
		}
		others = append(others, categoryWeight{category, weight})
	}
	sortCategoryWeights(others)

	for _, cw := range others {
		if len(mixed) >= size {
			break
		}

		target := 2
		if cw.weight > 0.15 {
			target = 3
		}

		alreadyAdded := 0
		for _, item := range mixed {
			if item.Category == cw.category {
				alreadyAdded++
			}
		}

		remaining := target - alreadyAdded
		if remaining <= 0 {
			continue
		}
		group := byCategory[cw.category]
		if remaining > len(group) {
			remaining = len(group)
		}
		mixed = append(mixed, group[:remaining]...)
	}

	if len(mixed) > size {
		mixed = mixed[:size]
	}
	return mixed
}

// llmRerankResponse is the strict shape the model must answer with.
type llmRerankResponse struct {
	RerankedIndices []int `json:"reranked_indices"`
}

const rerankSystemPrompt = "중고거래 추천 큐레이터. 반드시 JSON으로만 응답."

// llmRerank submits the subset to the chat model and applies the
// returned permutation. The response must be a complete permutation of
// the submitted indices; anything else keeps the original order.
func (s *Service) llmRerank(
	ctx context.Context,
	subset []domain.Item,
	user domain.User,
	topKeywords []string,
	recentCategories []string,
	model string,
) ([]domain.Item, RerankOutcome) {

	if len(subset) == 0 {
		return subset, skipped("empty subset")
	}

	prompt := buildRerankPrompt(subset, user, topKeywords, recentCategories)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	content, err := s.chat.CompleteJSON(callCtx, model, rerankSystemPrompt, prompt)
	if err != nil {
		return subset, skipped(fmt.Sprintf("llm call failed: %v", err))
	}

	var parsed llmRerankResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return subset, skipped("malformed llm response")
	}

	if !isCompletePermutation(parsed.RerankedIndices, len(subset)) {
		return subset, skipped("incomplete permutation")
	}

	reordered := make([]domain.Item, len(subset))
	for pos, idx := range parsed.RerankedIndices {
		reordered[pos] = subset[idx]
	}
	return reordered, RerankOutcome{Applied: true}
}

func isCompletePermutation(indices []int, n int) bool {
	if len(indices) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range indices {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func buildRerankPrompt(subset []domain.Item, user domain.User, topKeywords, recentCategories []string) string {
	genderText := "남성"
	if normalizeGender(user.Gender) == "여" {
		genderText = "여성"
	}

	keywordsText := "없음"
	if len(topKeywords) > 0 {
		n := len(topKeywords)
		if n > 3 {
			n = 3
		}
		keywordsText = strings.Join(topKeywords[:n], ", ")
	}

	categoriesText := "없음"
	if len(recentCategories) > 0 {
		n := len(recentCategories)
		if n > 3 {
			n = 3
		}
		categoriesText = strings.Join(recentCategories[:n], ", ")
	}

	type promptItem struct {
		Index    int    `json:"index"`
		Category string `json:"category"`
		Title    string `json:"title"`
		Price    int    `json:"price"`
	}

	list := make([]promptItem, 0, len(subset))
	for idx, item := range subset {
		title := item.Title
		if len([]rune(title)) > 40 {
			title = string([]rune(title)[:40])
		}
		price := 0
		if item.Price != nil {
			price = int(*item.Price)
		}
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		list = append(list, promptItem{Index: idx, Category: category, Title: title, Price: price})
	}

	itemsJSON, _ := json.MarshalIndent(list, "", " ")

	return fmt.Sprintf(`당신은 중고거래 추천 전문가입니다.

사용자 프로필:
- 성별: %s
- 관심 키워드: %s
- 최근 본 카테고리: %s

추천 후보 상품:
%s

위 상품들을 사용자가 가장 관심있어 할 순서대로 정렬하세요.
최근 본 카테고리를 우선 고려하지만, 다양한 카테고리를 섞어주세요.
모든 index를 반드시 포함해야 합니다.

응답 형식 (JSON만):
{
  "reranked_indices": [5, 2, 8, 0, 1, 3, ...]
}`, genderText, keywordsText, categoriesText, string(itemsJSON))
}

func sortCategoryWeights(list []categoryWeight) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].weight != list[j].weight {
			return list[i].weight > list[j].weight
		}
		return list[i].category < list[j].category
	})
}
