package recommend

import "time"

type Config struct {
	// Candidate pool fetched per request before pagination.
	SearchLimit int
	// Items per response page.
	PageSize int
	// Candidates hydrated and scored before building the rerank subset.
	RerankPoolSize int
	// Items actually submitted to the LLM.
	RerankSubsetSize int
	// Rerank cache entry lifetime.
	CacheTTL time.Duration
	// Hard timeout on the LLM call. One attempt, no retry.
	LLMTimeout time.Duration
	// Visit-history window for recent categories.
	HistoryDays int

	DefaultModel string
}

const (
	defaultSearchLimit      = 500
	defaultPageSize         = 50
	defaultRerankPoolSize   = 200
	defaultRerankSubsetSize = 20
	defaultCacheTTL         = 3600 * time.Second
	defaultLLMTimeout       = 5 * time.Second
	defaultHistoryDays      = 7
	defaultModel            = "mistral-small-latest"
)

func DefaultConfig() Config {
	return Config{
		SearchLimit:      defaultSearchLimit,
		PageSize:         defaultPageSize,
		RerankPoolSize:   defaultRerankPoolSize,
		RerankSubsetSize: defaultRerankSubsetSize,
		CacheTTL:         defaultCacheTTL,
		LLMTimeout:       defaultLLMTimeout,
		HistoryDays:      defaultHistoryDays,
		DefaultModel:     defaultModel,
	}
}

// Per-category time-decay rates. Fast-moving categories (electronics,
// appliances) lose relevance quicker than furniture or books.
var categoryDecayRates = map[string]float64{
	"디지털기기":   0.002,
	"가전제품":    0.002,
	"스포츠/레저":  0.0015,
	"의류":      0.001,
	"뷰티/미용":   0.001,
	"완구":      0.001,
	"가구/인테리어": 0.0005,
	"도서":      0.0003,
	"생활/주방":   0.0008,
	"기타":      0.001,
}

const (
	defaultDecayRate     = 0.001
	defaultCategory      = "기타"
	defaultStaticWeight  = 0.05
	defaultRelevance     = 0.05
	strongWeightCutoff   = 0.3
	lowConfidenceCutoff  = 0.3
	forcedStaticRatio    = 0.7
	staleAgeDays         = 30
	keywordBoostFactor   = 0.3
	keywordSearchDivisor = 50.0
)
