package recommend

import (
	"context"
	"errors"
	"testing"

	"campusMarket/domain"
)

type fakeCatalog struct {
	byCategory map[string][]uint64
	all        []uint64
}

func (f *fakeCatalog) RecentIDs(_ context.Context, category string, limit int) ([]uint64, error) {
	ids := f.all
	if category != "" {
		ids = f.byCategory[category]
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []uint64) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.Item{DBID: id, Title: "item", Category: "기타"})
	}
	return items, nil
}

type fakeIndex struct {
	hits    []VectorHit
	err     error
	queries int
}

func (f *fakeIndex) Query(_ context.Context, _ []float32, _ int, _ float64) ([]VectorHit, error) {
	f.queries++
	return f.hits, f.err
}

func (f *fakeIndex) Retrieve(_ context.Context, ids []uint64) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.Item{DBID: id, Title: "item", Category: "기타"})
	}
	return items, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func TestSearchWithoutIndexFallsBackToDatabase(t *testing.T) {
	catalog := &fakeCatalog{all: []uint64{5, 4, 3, 2, 1}}
	r := NewRetriever(catalog, nil, nil)

	ids, strategy, err := r.Search(context.Background(), []string{"맥북"}, map[string]float64{"도서": 0.9}, []string{"도서"}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDBFallback {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyDBFallback)
	}
	if len(ids) != 3 || ids[0] != 5 {
		t.Errorf("ids = %v, want newest-first prefix", ids)
	}
}

func TestSearchRecentCategoriesDriveStrategy(t *testing.T) {
	catalog := &fakeCatalog{
		byCategory: map[string][]uint64{
			"가전제품": {101, 102},
			"도서":   {201, 202},
			"의류":   {301},
		},
	}
	r := NewRetriever(catalog, &fakeIndex{}, &fakeEmbedder{})

	weights := map[string]float64{"의류": 0.5}
	ids, strategy, err := r.Search(context.Background(), nil, weights, []string{"가전제품", "도서"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyCategoryFocused {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyCategoryFocused)
	}

	// First recent category scores 0.8, second 0.7, weighted extras lower.
	if ids[0] != 101 || ids[1] != 102 {
		t.Errorf("head = %v, want items from 가전제품 first", ids[:2])
	}
	if ids[2] != 201 || ids[3] != 202 {
		t.Errorf("next = %v, want items from 도서", ids[2:4])
	}
}

func TestSearchStrongWeightsWithoutRecents(t *testing.T) {
	catalog := &fakeCatalog{
		byCategory: map[string][]uint64{
			"디지털기기": {1, 2},
			"도서":    {3},
		},
	}
	r := NewRetriever(catalog, &fakeIndex{}, &fakeEmbedder{})

	weights := map[string]float64{"디지털기기": 0.6, "도서": 0.2}
	ids, strategy, err := r.Search(context.Background(), nil, weights, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyWeightBased {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyWeightBased)
	}
	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("head = %v, want heaviest category first", ids[:2])
	}
}

func TestSearchKeywordsOnlyUsesSemanticSearch(t *testing.T) {
	index := &fakeIndex{hits: []VectorHit{
		{DBID: 9, Score: 0.9},
		{DBID: 8, Score: 0.5},
	}}
	catalog := &fakeCatalog{}
	r := NewRetriever(catalog, index, &fakeEmbedder{})

	ids, strategy, err := r.Search(context.Background(), []string{"맥북"}, map[string]float64{"도서": 0.1}, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyKeywordBased {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyKeywordBased)
	}
	if index.queries != 1 {
		t.Errorf("queries = %d, want 1", index.queries)
	}
	if len(ids) != 2 || ids[0] != 9 {
		t.Errorf("ids = %v, want semantic hits by score", ids)
	}
}

func TestSearchNoSignalUsesDiverseSampling(t *testing.T) {
	catalog := &fakeCatalog{
		all: []uint64{1, 2, 3},
		byCategory: map[string][]uint64{
			"도서": {10, 11},
			"의류": {20},
		},
	}
	r := NewRetriever(catalog, &fakeIndex{}, &fakeEmbedder{})

	ids, strategy, err := r.Search(context.Background(), nil, map[string]float64{"도서": 0.2, "의류": 0.1}, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyCSVDiverse {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyCSVDiverse)
	}
	if len(ids) != 6 {
		t.Errorf("ids = %v, want union of category and overall samples", ids)
	}
}

func TestSearchKeywordTierVectorFailureFallsBackToDatabase(t *testing.T) {
	catalog := &fakeCatalog{all: []uint64{1, 2, 3}}
	index := &fakeIndex{err: errors.New("vector index down")}
	r := NewRetriever(catalog, index, &fakeEmbedder{})

	ids, strategy, err := r.Search(context.Background(), []string{"맥북"}, map[string]float64{"도서": 0.1}, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDBFallback {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyDBFallback)
	}
	if len(ids) != 3 {
		t.Errorf("ids = %v, want relational candidates despite vector failure", ids)
	}
}

func TestSearchKeywordTierWithoutEmbedderFallsBackToDatabase(t *testing.T) {
	catalog := &fakeCatalog{all: []uint64{1, 2, 3}}
	r := NewRetriever(catalog, &fakeIndex{}, nil)

	ids, strategy, err := r.Search(context.Background(), []string{"맥북"}, nil, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyDBFallback {
		t.Fatalf("strategy = %s, want %s", strategy, StrategyDBFallback)
	}
	if len(ids) != 3 {
		t.Errorf("ids = %v, want relational candidates without an embedder", ids)
	}
}

func TestSearchEmbedFailureIsNonFatal(t *testing.T) {
	catalog := &fakeCatalog{
		byCategory: map[string][]uint64{"도서": {1, 2}},
	}
	r := NewRetriever(catalog, &fakeIndex{}, &fakeEmbedder{err: errors.New("embed down")})

	ids, strategy, err := r.Search(context.Background(), []string{"맥북"}, nil, []string{"도서"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strategy != StrategyCategoryFocused {
		t.Fatalf("strategy = %s", strategy)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v, want relational results despite embed failure", ids)
	}
}
