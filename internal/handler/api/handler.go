package api

import (
	"github.com/labstack/echo/v4"

	"YutaiScan/internal/service/metrics"
)

// Handler groups every API route group behind a single registration point.
type Handler struct {
	timing    *TimingEchoHandler
	portfolio *PortfolioEchoHandler
	batch     *BatchEchoHandler
}

func NewHandler(timing *TimingEchoHandler, portfolio *PortfolioEchoHandler, batch *BatchEchoHandler) *Handler {
	metrics.Register()
	return &Handler{timing: timing, portfolio: portfolio, batch: batch}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	h.timing.RegisterRoutes(e)
	h.portfolio.RegisterRoutes(e)
	h.batch.RegisterRoutes(e)
}
