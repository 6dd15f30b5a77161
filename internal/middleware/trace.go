package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"campusMarket/pkg/logger"
)

// TraceID tags every request with a trace id and logs the round trip.
// The id is echoed back in the X-Trace-Id header for client-side
// correlation.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get("X-Trace-Id")
			if traceID == "" {
				traceID = uuid.NewString()
			}

			c.Set("trace_id", traceID)
			c.Response().Header().Set("X-Trace-Id", traceID)

			start := time.Now()
			err := next(c)

			logger.Info("request completed",
				"trace_id", traceID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return err
		}
	}
}
