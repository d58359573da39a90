package api

import (
	"errors"
	"time"

	models "YutaiScan/internal/domain/models"
	domsvc "YutaiScan/internal/domain/service"
	"YutaiScan/internal/service/metrics"
	"YutaiScan/internal/services/portfolio"
	"YutaiScan/internal/usecase"
	xhttp "YutaiScan/pkg/http"
	xlogger "YutaiScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PortfolioEchoHandler serves multi-instrument allocation endpoints. All of
// them resolve instrument statistics through the analyzer first, so codes
// without stored scan results trigger a fresh scan.
type PortfolioEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.TimingAnalyzer
	alloc    domsvc.PortfolioAllocator
}

func NewPortfolioEchoHandler(logger *xlogger.Logger, analyzer *usecase.TimingAnalyzer, alloc domsvc.PortfolioAllocator) *PortfolioEchoHandler {
	return &PortfolioEchoHandler{logger: logger, analyzer: analyzer, alloc: alloc}
}

func (h *PortfolioEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/portfolio")
	g.POST("/metrics", h.Metrics)
	g.POST("/optimize", h.Optimize)
	g.GET("/frontier", h.Frontier)
	g.POST("/suggest", h.Suggest)
}

func (h *PortfolioEchoHandler) Metrics(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("portfolio_metrics").Observe(time.Since(start).Seconds()) }()

	req := &models.PortfolioMetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats, err := h.analyzer.InstrumentStats(c.Request().Context(), req.Codes, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("portfolio_metrics").Inc()
		h.logger.Error("portfolio stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	m, err := h.alloc.Metrics(stats, req.Weights)
	if err != nil {
		if isAllocatorInputError(err) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		metrics.APIErrors.WithLabelValues("portfolio_metrics").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, m)
}

// optimizeResponse pairs the optimal weights with their portfolio metrics.
type optimizeResponse struct {
	Objective models.Objective         `json:"objective"`
	Weights   []float64                `json:"weights"`
	Stats     []models.InstrumentStats `json:"instruments"`
	Metrics   *models.PortfolioMetrics `json:"metrics"`
}

func (h *PortfolioEchoHandler) Optimize(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("portfolio_optimize").Observe(time.Since(start).Seconds()) }()

	req := &models.PortfolioOptimizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats, err := h.analyzer.InstrumentStats(c.Request().Context(), req.Codes, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("portfolio_optimize").Inc()
		h.logger.Error("portfolio stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	objective := models.Objective(req.Objective)
	weights, err := h.alloc.Optimize(stats, objective)
	if err != nil {
		if errors.Is(err, portfolio.ErrNoConvergence) {
			return xhttp.AppErrorResponse(c, xhttp.InternalError("optimizer did not converge"))
		}
		if isAllocatorInputError(err) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		metrics.APIErrors.WithLabelValues("portfolio_optimize").Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	m, err := h.alloc.Metrics(stats, weights)
	if err != nil {
		metrics.APIErrors.WithLabelValues("portfolio_optimize").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, &optimizeResponse{
		Objective: objective,
		Weights:   weights,
		Stats:     stats,
		Metrics:   m,
	})
}

func (h *PortfolioEchoHandler) Frontier(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("portfolio_frontier").Observe(time.Since(start).Seconds()) }()

	req := &models.FrontierRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats, err := h.analyzer.InstrumentStats(c.Request().Context(), req.Codes, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("portfolio_frontier").Inc()
		h.logger.Error("portfolio stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	points, err := h.alloc.Frontier(stats, req.Points)
	if err != nil {
		if isAllocatorInputError(err) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		metrics.APIErrors.WithLabelValues("portfolio_frontier").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, points, int64(len(points)))
}

func (h *PortfolioEchoHandler) Suggest(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("portfolio_suggest").Observe(time.Since(start).Seconds()) }()

	req := &models.SuggestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	stats, err := h.analyzer.InstrumentStats(c.Request().Context(), req.Codes, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("portfolio_suggest").Inc()
		h.logger.Error("portfolio stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	plan, err := h.alloc.Suggest(stats, req.TotalAmount, req.RiskTolerance)
	if err != nil {
		if isAllocatorInputError(err) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		metrics.APIErrors.WithLabelValues("portfolio_suggest").Inc()
		h.logger.Error("portfolio suggest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, plan)
}

// isAllocatorInputError tells caller mistakes apart from computation
// failures.
func isAllocatorInputError(err error) bool {
	return errors.Is(err, portfolio.ErrDimensionMismatch) ||
		errors.Is(err, portfolio.ErrNegativeWeight) ||
		errors.Is(err, portfolio.ErrWeightSum) ||
		errors.Is(err, portfolio.ErrTooFewInstruments) ||
		errors.Is(err, portfolio.ErrBadAmount)
}
