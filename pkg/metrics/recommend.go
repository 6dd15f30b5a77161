package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the recommend HTTP handler
	RecommendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommend_latency_seconds",
		Help:    "Latency of the recommendation handler",
		Buckets: prometheus.DefBuckets,
	})

	// Recommendations served, by chosen retrieval strategy
	RecommendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recommend_requests_total",
		Help: "Total recommend requests by retrieval strategy",
	}, []string{"strategy"})

	RerankCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rerank_cache_hits_total",
		Help: "Rerank cache hits",
	})

	RerankCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rerank_cache_misses_total",
		Help: "Rerank cache misses",
	})

	RerankFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rerank_fallbacks_total",
		Help: "LLM rerank attempts that fell back to the original order",
	})
)

func Init() {
	prometheus.MustRegister(
		RecommendLatency,
		RecommendRequests,
		RerankCacheHits,
		RerankCacheMisses,
		RerankFallbacks,
	)
}
