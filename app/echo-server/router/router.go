package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"campusMarket/internal/rest"
	"campusMarket/pkg/config"
)

func SetupRecommendRoutes(api *echo.Group, handler *rest.RecommendHandler) {
	api.POST("/recommend", handler.Recommend)
	api.GET("/cache/clear", handler.CacheClear)
}

func SetupHealthRoutes(api *echo.Group, handler *rest.HealthHandler) {
	api.GET("/health", handler.Health)
}

func SetupRootRoute(e *echo.Echo, cfg *config.Config) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})
}
