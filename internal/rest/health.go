package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	HealthHandler struct {
		qdrantActive bool
		llmActive    bool
	}

	HealthStatus struct {
		Status string `json:"status"`
		Qdrant string `json:"qdrant"`
		LLM    string `json:"llm"`
	}
)

func NewHealthHandler(qdrantActive, llmActive bool) *HealthHandler {
	return &HealthHandler{
		qdrantActive: qdrantActive,
		llmActive:    llmActive,
	}
}

// GET /api/health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status: "healthy",
		Qdrant: activeLabel(h.qdrantActive),
		LLM:    activeLabel(h.llmActive),
	})
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
