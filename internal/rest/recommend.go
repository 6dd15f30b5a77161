package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"campusMarket/business/recommend"
	"campusMarket/domain"
	"campusMarket/pkg/logger"
	"campusMarket/pkg/metrics"
)

type (
	RecommendHandler struct {
		validate         *validator.Validate
		recommendService RecommendService
	}

	RecommendService interface {
		Recommend(ctx context.Context, req recommend.Request) (*domain.RecommendationResult, error)
		CacheClear() int
	}

	RecommendRequest struct {
		UserID       uint64 `json:"user_id" validate:"required"`
		Page         int    `json:"page" validate:"gte=0"`
		EnableRerank bool   `json:"enable_rerank"`
		LLMModel     string `json:"llm_model"`
	}
)

func NewRecommendHandler(svc RecommendService) *RecommendHandler {
	return &RecommendHandler{
		validate:         validator.New(),
		recommendService: svc,
	}
}

// POST /api/recommend
func (h *RecommendHandler) Recommend(c echo.Context) error {
	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	start := time.Now()
	result, err := h.recommendService.Recommend(ctx, recommend.Request{
		UserID:       req.UserID,
		Page:         req.Page,
		EnableRerank: req.EnableRerank,
		LLMModel:     req.LLMModel,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "user not found"})
		}
		logger.Error("recommendation failed", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	metrics.RecommendLatency.Observe(time.Since(start).Seconds())
	metrics.RecommendRequests.WithLabelValues(result.SearchStrategy).Inc()

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// GET /api/cache/clear
func (h *RecommendHandler) CacheClear(c echo.Context) error {
	cleared := h.recommendService.CacheClear()
	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]int{"cleared": cleared}))
}
