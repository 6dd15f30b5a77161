package domain

// RecommendedItem is the response shape for a single recommendation.
type RecommendedItem struct {
	DBID           uint64   `json:"dbid"`
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Price          *float64 `json:"price"`
	TimeElapsed    string   `json:"time_elapsed"`
	ThumbnailURL   string   `json:"thumbnail_url,omitempty"`
	Category       string   `json:"category,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
}

// RecommendationResult is the full payload of a recommendation request.
type RecommendationResult struct {
	Summary        string            `json:"summary"`
	Reasoning      string            `json:"reasoning"`
	Items          []RecommendedItem `json:"items"`
	TotalItems     int               `json:"total_items"`
	Reranked       bool              `json:"reranked"`
	LLMModel       string            `json:"llm_model,omitempty"`
	SearchStrategy string            `json:"search_strategy"`
}
