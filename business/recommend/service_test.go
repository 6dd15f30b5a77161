package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"campusMarket/domain"
)

type fakeUsers struct {
	users map[uint64]domain.User
}

func (f *fakeUsers) FindByID(_ context.Context, userID uint64) (domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

type fakeWeights struct {
	row *domain.PersonalizationWeights
}

func (f *fakeWeights) FindByUserID(_ context.Context, _ uint64) (*domain.PersonalizationWeights, error) {
	return f.row, nil
}

type fakeVisits struct {
	categories []string
}

func (f *fakeVisits) RecentCategories(_ context.Context, _ uint64, _, _ int) ([]string, error) {
	return f.categories, nil
}

type fakeChat struct {
	content string
	err     error
	calls   int
}

func (f *fakeChat) CompleteJSON(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

func testStaticTable() *StaticWeightTable {
	return &StaticWeightTable{segments: map[string]map[string]float64{
		"20대|남": {"디지털기기": 0.25, "도서": 0.10},
		"20대|여": {"뷰티/미용": 0.25, "의류": 0.20},
	}}
}

func newTestService(chat ChatModel, visits []string, row *domain.PersonalizationWeights) (*Service, *fakeCatalog, *fakeIndex) {
	catalog := &fakeCatalog{
		all: []uint64{1, 2, 3, 4, 5},
		byCategory: map[string][]uint64{
			"디지털기기": {1, 2},
			"도서":    {3},
			"의류":    {4, 5},
		},
	}
	index := &fakeIndex{}

	cfg := DefaultConfig()
	cfg.PageSize = 5

	svc := NewService(
		cfg,
		testStaticTable(),
		&fakeUsers{users: map[uint64]domain.User{7: {UserID: 7, Gender: "남"}}},
		&fakeWeights{row: row},
		&fakeVisits{categories: visits},
		catalog,
		index,
		&fakeEmbedder{},
		chat,
		NewRerankCache(time.Hour),
		"http://localhost:8000",
		"/mnt/images",
	)
	return svc, catalog, index
}

func TestRecommendUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	_, err := svc.Recommend(context.Background(), Request{UserID: 999})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRecommendColdStartDiverse(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	result, err := svc.Recommend(context.Background(), Request{UserID: 7})
	if err != nil {
		t.Fatal(err)
	}

	if result.SearchStrategy != StrategyCSVDiverse {
		t.Errorf("strategy = %s, want %s", result.SearchStrategy, StrategyCSVDiverse)
	}
	if result.Reranked {
		t.Error("rerank should not run without a chat model")
	}
	if result.TotalItems == 0 {
		t.Fatal("expected candidates for a cold-start user")
	}
	if len(result.Items) != 5 {
		t.Errorf("items = %d, want a full page of 5", len(result.Items))
	}
	if !strings.HasPrefix(result.Summary, "추천 상품") {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestRecommendRecentVisitsFocusStrategy(t *testing.T) {
	svc, _, _ := newTestService(nil, []string{"디지털기기"}, nil)

	result, err := svc.Recommend(context.Background(), Request{UserID: 7})
	if err != nil {
		t.Fatal(err)
	}
	if result.SearchStrategy != StrategyCategoryFocused {
		t.Errorf("strategy = %s, want %s", result.SearchStrategy, StrategyCategoryFocused)
	}
	if !strings.Contains(result.Summary, "디지털기기") {
		t.Errorf("summary = %q, want the recent category mentioned", result.Summary)
	}
}

func TestParseSignalsMalformedJSONDegrades(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	row := &domain.PersonalizationWeights{
		UserID:          7,
		CategoryWeights: datatypes.JSON([]byte("{broken")),
		TopKeywords:     datatypes.JSON([]byte("[broken")),
		CSVRatio:        0.4,
	}

	signals := svc.parseSignals(row)
	if len(signals.categoryWeights) != 0 {
		t.Errorf("weights = %v, want empty", signals.categoryWeights)
	}
	if len(signals.topKeywords) != 0 {
		t.Errorf("keywords = %v, want none", signals.topKeywords)
	}
	if signals.csvRatio != 0.4 {
		t.Errorf("csvRatio = %v", signals.csvRatio)
	}
}

func TestParseSignalsNilRowDefaults(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	signals := svc.parseSignals(nil)
	if signals.csvRatio != 1.0 {
		t.Errorf("csvRatio = %v, want 1.0 for users without learned weights", signals.csvRatio)
	}
	if signals.dataAgeDays != 999 {
		t.Errorf("dataAgeDays = %v", signals.dataAgeDays)
	}
}

func TestTimeElapsedKoreanBuckets(t *testing.T) {
	now := time.Now()
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "방금 전"},
		{5 * time.Minute, "5분 전"},
		{3 * time.Hour, "3시간 전"},
		{48 * time.Hour, "2일 전"},
		{40 * 24 * time.Hour, "1개월 전"},
		{800 * 24 * time.Hour, "2년 전"},
	}
	for _, tc := range cases {
		if got := timeElapsed(now.Add(-tc.age), now); got != tc.want {
			t.Errorf("age %v: got %q, want %q", tc.age, got, tc.want)
		}
	}
}

func TestThumbnailURLRewrite(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"/mnt/images/abc/1.jpg", "http://localhost:8000/static/images/abc/1.jpg"},
		{"/other/path/1.jpg", "/other/path/1.jpg"},
	}
	for _, tc := range cases {
		if got := svc.thumbnailURL(tc.in); got != tc.want {
			t.Errorf("thumbnailURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToResponseItemsSkipsUnusable(t *testing.T) {
	svc, _, _ := newTestService(nil, nil, nil)

	out := svc.toResponseItems([]domain.Item{
		{DBID: 0, Title: "phantom"},
		{DBID: 1, Title: ""},
		{DBID: 2, Title: "real", Category: ""},
	})
	if len(out) != 1 {
		t.Fatalf("items = %d, want 1", len(out))
	}
	if out[0].Category != "기타" {
		t.Errorf("category = %q, want default", out[0].Category)
	}
	if out[0].ID != "2" {
		t.Errorf("id = %q, want dbid fallback", out[0].ID)
	}
}
