package api

import (
	"time"

	models "YutaiScan/internal/domain/models"
	"YutaiScan/internal/service/metrics"
	"YutaiScan/internal/usecase"
	xhttp "YutaiScan/pkg/http"
	xlogger "YutaiScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TimingEchoHandler serves per-instrument scan and risk endpoints.
type TimingEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.TimingAnalyzer
}

func NewTimingEchoHandler(logger *xlogger.Logger, analyzer *usecase.TimingAnalyzer) *TimingEchoHandler {
	return &TimingEchoHandler{logger: logger, analyzer: analyzer}
}

func (h *TimingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/timing", h.Timing)
	g.GET("/risk", h.Risk)
}

// Timing runs a full offset scan for one instrument.
func (h *TimingEchoHandler) Timing(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("timing").Observe(time.Since(start).Seconds()) }()

	req := &models.TimingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.AnalyzeCode(c.Request().Context(), req.Code, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("timing").Inc()
		h.logger.Error("timing usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("insufficient history for %s", req.Code))
	}
	return xhttp.SuccessResponse(c, res)
}

// riskReport pairs the scan outcome with its derived risk metrics.
type riskReport struct {
	Code          string                   `json:"code"`
	OptimalOffset int                      `json:"optimal_offset"`
	Risk          *models.RiskMetrics      `json:"risk"`
	Best          *models.OffsetStatistics `json:"best"`
}

// Risk analyzes the trade populations behind the optimal offset.
func (h *TimingEchoHandler) Risk(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("risk").Observe(time.Since(start).Seconds()) }()

	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	m, res, err := h.analyzer.RiskReport(c.Request().Context(), req.Code, req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("risk").Inc()
		h.logger.Error("risk usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("insufficient history for %s", req.Code))
	}
	return xhttp.SuccessResponse(c, &riskReport{
		Code:          res.Code,
		OptimalOffset: res.OptimalOffset,
		Risk:          m,
		Best:          &res.Best,
	})
}
