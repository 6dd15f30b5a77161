package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"campusMarket/domain"
	"campusMarket/pkg/logger"
)

// ErrUserNotFound is the only hard failure the pipeline surfaces; every
// other degradation falls through to a weaker strategy.
var ErrUserNotFound = errors.New("user not found")

// ---- Repository interfaces ----

type UserRepository interface {
	FindByID(ctx context.Context, userID uint64) (domain.User, error)
}

type WeightsRepository interface {
	// FindByUserID returns nil when the learning job has not produced
	// weights for the user yet.
	FindByUserID(ctx context.Context, userID uint64) (*domain.PersonalizationWeights, error)
}

type VisitRepository interface {
	// RecentCategories returns distinct categories from the visit
	// window, most recent first, capped at limit.
	RecentCategories(ctx context.Context, userID uint64, days, limit int) ([]string, error)
}

// ChatModel is the LLM collaborator used for reranking. Responses are
// untrusted-but-parseable JSON.
type ChatModel interface {
	CompleteJSON(ctx context.Context, model, system, prompt string) (string, error)
}

// ---- Request / signals ----

type Request struct {
	UserID       uint64
	Page         int
	EnableRerank bool
	LLMModel     string
}

// personalSignals is the per-user state derived from the stored
// personalization row, with defaults for users the learning job has not
// seen yet.
type personalSignals struct {
	categoryWeights map[string]float64
	topKeywords     []string
	csvRatio        float64
	confidenceScore float64
	dataAgeDays     int
	totalSearches   int
}

func defaultSignals() personalSignals {
	return personalSignals{
		categoryWeights: map[string]float64{},
		csvRatio:        1.0,
		dataAgeDays:     999,
	}
}

// ---- Service ----

type Service struct {
	cfg         Config
	staticTable *StaticWeightTable

	userRepo    UserRepository
	weightsRepo WeightsRepository
	visitRepo   VisitRepository
	items       ItemReader

	retriever *Retriever
	vector    VectorIndex
	chat      ChatModel
	cache     *RerankCache

	baseURL      string
	imageBaseDir string
	now          func() time.Time
}

func NewService(
	cfg Config,
	staticTable *StaticWeightTable,
	userRepo UserRepository,
	weightsRepo WeightsRepository,
	visitRepo VisitRepository,
	items ItemReader,
	vector VectorIndex,
	embed Embedder,
	chat ChatModel,
	cache *RerankCache,
	baseURL string,
	imageBaseDir string,
) *Service {
	return &Service{
		cfg:          cfg,
		staticTable:  staticTable,
		userRepo:     userRepo,
		weightsRepo:  weightsRepo,
		visitRepo:    visitRepo,
		items:        items,
		retriever:    NewRetriever(items, vector, embed),
		vector:       vector,
		chat:         chat,
		cache:        cache,
		baseURL:      baseURL,
		imageBaseDir: imageBaseDir,
		now:          time.Now,
	}
}

// Recommend runs the full ranking pipeline for one request.
func (s *Service) Recommend(ctx context.Context, req Request) (*domain.RecommendationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if req.LLMModel == "" {
		req.LLMModel = s.cfg.DefaultModel
	}

	user, signals, recentCategories, err := s.loadUserData(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	staticWeights := s.staticTable.WeightsFor(user)
	finalWeights := BlendWeights(BlendInput{
		StaticWeights:    staticWeights,
		PersonalWeights:  signals.categoryWeights,
		StaticRatio:      signals.csvRatio,
		RecentCategories: recentCategories,
		ConfidenceScore:  signals.confidenceScore,
		DataAgeDays:      signals.dataAgeDays,
	})

	candidateIDs, strategy, err := s.retriever.Search(
		ctx, signals.topKeywords, finalWeights, recentCategories, s.cfg.SearchLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("candidate retrieval: %w", err)
	}

	reranked := false
	var rerankedBatch []domain.Item
	if req.EnableRerank && s.chat != nil {
		candidateIDs, rerankedBatch, reranked = s.applyRerank(
			ctx, candidateIDs, user, signals, recentCategories, finalWeights, req.LLMModel,
		)
	}

	paginatedIDs := PaginateWithFallback(candidateIDs, req.Page, s.cfg.PageSize)

	var items []domain.Item
	if len(rerankedBatch) > 0 && req.Page == 0 {
		items = rerankedBatch
		if len(items) > s.cfg.PageSize {
			items = items[:s.cfg.PageSize]
		}
	} else {
		items, err = s.items.FindByIDs(ctx, paginatedIDs)
		if err != nil {
			return nil, fmt.Errorf("item hydration: %w", err)
		}
		items = ApplyCategoryWeights(items, finalWeights, s.now())
	}

	if len(signals.topKeywords) > 0 {
		items = ApplyKeywordBoost(items, signals.topKeywords, signals.totalSearches)
	}

	result := &domain.RecommendationResult{
		Summary:        buildSummary(recentCategories, signals.topKeywords, len(candidateIDs), signals.confidenceScore),
		Reasoning:      buildReasoning(strategy, reranked, signals.confidenceScore),
		Items:          s.toResponseItems(items),
		TotalItems:     len(candidateIDs),
		Reranked:       reranked,
		SearchStrategy: strategy,
	}
	if reranked {
		result.LLMModel = req.LLMModel
	}
	return result, nil
}

// loadUserData issues the three independent lookups concurrently and
// joins before blending. These are the only suspension points ahead of
// retrieval.
func (s *Service) loadUserData(ctx context.Context, userID uint64) (domain.User, personalSignals, []string, error) {
	var (
		user             domain.User
		weightsRow       *domain.PersonalizationWeights
		recentCategories []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		user, err = s.userRepo.FindByID(gctx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		weightsRow, err = s.weightsRepo.FindByUserID(gctx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		recentCategories, err = s.visitRepo.RecentCategories(gctx, userID, s.cfg.HistoryDays, 3)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return domain.User{}, personalSignals{}, nil, ErrUserNotFound
		}
		return domain.User{}, personalSignals{}, nil, fmt.Errorf("load user data: %w", err)
	}

	return user, s.parseSignals(weightsRow), recentCategories, nil
}

// parseSignals derives the runtime signals from a stored weights row.
// Malformed JSON blobs degrade to empty signals instead of failing the
// request.
func (s *Service) parseSignals(row *domain.PersonalizationWeights) personalSignals {
	signals := defaultSignals()
	if row == nil {
		return signals
	}

	if len(row.CategoryWeights) > 0 {
		if err := json.Unmarshal(row.CategoryWeights, &signals.categoryWeights); err != nil {
			logger.Warn("malformed stored category weights", "user_id", row.UserID, "error", err)
			signals.categoryWeights = map[string]float64{}
		}
	}
	if len(row.TopKeywords) > 0 {
		if err := json.Unmarshal(row.TopKeywords, &signals.topKeywords); err != nil {
			logger.Warn("malformed stored keywords", "user_id", row.UserID, "error", err)
			signals.topKeywords = nil
		}
	}

	signals.csvRatio = row.CSVRatio
	signals.totalSearches = row.TotalSearches

	signals.confidenceScore = float64(row.InteractionCount) / 100.0
	if signals.confidenceScore > 1.0 {
		signals.confidenceScore = 1.0
	}

	signals.dataAgeDays = 999
	if row.LastUpdatedAt != nil {
		signals.dataAgeDays = int(s.now().Sub(*row.LastUpdatedAt).Hours() / 24)
	}

	return signals
}

// hydrateItems resolves candidate ids into items, preferring the vector
// index payload and falling back to the catalog when coverage is poor.
// At most one definitive source is used per batch.
func (s *Service) hydrateItems(ctx context.Context, ids []uint64, limit int) ([]domain.Item, error) {
	if len(ids) > limit {
		ids = ids[:limit]
	}

	if s.vector != nil {
		items, err := s.vector.Retrieve(ctx, ids)
		if err == nil && len(items)*2 >= len(ids) {
			return items, nil
		}
		if err != nil {
			logger.Warn("vector payload hydration failed", "error", err)
		}
	}

	return s.items.FindByIDs(ctx, ids)
}

// ---- Response shaping ----

func (s *Service) toResponseItems(items []domain.Item) []domain.RecommendedItem {
	out := make([]domain.RecommendedItem, 0, len(items))
	for _, item := range items {
		if item.DBID == 0 || item.Title == "" {
			continue
		}

		id := item.ExternalID
		if id == "" {
			id = fmt.Sprintf("%d", item.DBID)
		}
		category := item.Category
		if category == "" {
			category = defaultCategory
		}
		score := item.RelevanceScore
		if score == 0 {
			score = defaultRelevance
		}

		out = append(out, domain.RecommendedItem{
			DBID:           item.DBID,
			ID:             id,
			Title:          item.Title,
			Price:          item.Price,
			TimeElapsed:    timeElapsed(item.CreatedAt, s.now()),
			ThumbnailURL:   s.thumbnailURL(item.ThumbnailPath),
			Category:       category,
			RelevanceScore: score,
		})
	}
	return out
}

// timeElapsed humanizes an item's age.
func timeElapsed(createdAt, now time.Time) string {
	diff := now.Sub(createdAt)

	days := int(diff.Hours() / 24)
	switch {
	case days > 365:
		return fmt.Sprintf("%d년 전", days/365)
	case days > 30:
		return fmt.Sprintf("%d개월 전", days/30)
	case days > 0:
		return fmt.Sprintf("%d일 전", days)
	case diff >= time.Hour:
		return fmt.Sprintf("%d시간 전", int(diff.Hours()))
	case diff >= time.Minute:
		return fmt.Sprintf("%d분 전", int(diff.Minutes()))
	default:
		return "방금 전"
	}
}

// thumbnailURL rewrites a local image path into a served static URL.
func (s *Service) thumbnailURL(localPath string) string {
	if localPath == "" || strings.HasPrefix(localPath, "http") {
		return localPath
	}
	if s.imageBaseDir != "" && strings.HasPrefix(localPath, s.imageBaseDir) {
		relative := strings.TrimLeft(strings.TrimPrefix(localPath, s.imageBaseDir), "/")
		return s.baseURL + "/static/images/" + relative
	}
	return localPath
}

func buildSummary(recentCategories, topKeywords []string, totalItems int, confidence float64) string {
	var summary string
	switch {
	case len(recentCategories) > 0:
		summary = fmt.Sprintf("'%s' 중심 %d개", recentCategories[0], totalItems)
	case len(topKeywords) > 0:
		n := len(topKeywords)
		if n > 2 {
			n = 2
		}
		summary = fmt.Sprintf("'%s' 검색 %d개", strings.Join(topKeywords[:n], ", "), totalItems)
	default:
		summary = fmt.Sprintf("추천 상품 %d개", totalItems)
	}

	if confidence > 0.5 {
		summary += fmt.Sprintf(" (맞춤 %d%%)", int(confidence*100))
	} else if confidence > 0 {
		summary += fmt.Sprintf(" (학습 중 %d%%)", int(confidence*100))
	}
	return summary
}

func buildReasoning(strategy string, reranked bool, confidence float64) string {
	reasoning := strategy
	if reranked {
		reasoning += " + LLM"
	}
	if confidence < lowConfidenceCutoff {
		reasoning += " (통계 중심)"
	}
	return reasoning
}

// CacheClear empties the rerank cache and reports the removed count.
func (s *Service) CacheClear() int {
	return s.cache.Clear()
}
