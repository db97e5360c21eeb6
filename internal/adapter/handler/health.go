package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retrace-app/retrace/internal/usecase/retrieval"
)

// HealthChecker derives capture health from archive freshness.
type HealthChecker interface {
	Check(ctx context.Context) retrieval.HealthStatus
}

// Health handles GET /health. Health is reported with 200 regardless of
// the verdict; the body carries the state.
type Health struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *Health {
	return &Health{checker: checker}
}

func (h *Health) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, h.checker.Check(c.Request().Context()))
}
