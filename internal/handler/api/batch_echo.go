package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	models "YutaiScan/internal/domain/models"
	domrepo "YutaiScan/internal/domain/repository"
	mid "YutaiScan/internal/middleware"
	"YutaiScan/internal/service/metrics"
	"YutaiScan/internal/service/ratelimit"
	"YutaiScan/internal/usecase"
	xhttp "YutaiScan/pkg/http"
	xlogger "YutaiScan/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// BatchEchoHandler controls the all-instruments scan. One run at a time;
// progress fans out to websocket subscribers while each result flows
// through the persistence pipeline.
type BatchEchoHandler struct {
	logger      *xlogger.Logger
	instruments domrepo.InstrumentStore
	runner      *usecase.BatchRunner
	pipeline    *mid.ResultPipeline
	rl          *ratelimit.Limiter
	upgrader    websocket.Upgrader

	mu      sync.Mutex
	running bool
	subs    map[*websocket.Conn]chan models.BatchEvent
}

func NewBatchEchoHandler(
	logger *xlogger.Logger,
	instruments domrepo.InstrumentStore,
	runner *usecase.BatchRunner,
	pipeline *mid.ResultPipeline,
) *BatchEchoHandler {
	return &BatchEchoHandler{
		logger:      logger,
		instruments: instruments,
		runner:      runner,
		pipeline:    pipeline,
		rl:          ratelimit.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[*websocket.Conn]chan models.BatchEvent),
	}
}

func (h *BatchEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/batch")
	g.POST("/run", h.Run)
	g.POST("/stop", h.Stop)
	g.GET("/status", h.Status)
	e.GET("/ws/batch", h.Stream)
}

// batchRunResponse acknowledges a started run.
type batchRunResponse struct {
	Total int `json:"total"`
	Month int `json:"month"`
}

// Run starts a scan over every instrument with the requested rights month
// (zero means all). Returns 409 while a run is active.
func (h *BatchEchoHandler) Run(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("batch_run").Observe(time.Since(start).Seconds()) }()

	if !h.rl.Allow(c.RealIP()+":batch", 2, 0.1) {
		h.logger.Warn("batch run rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	req := &models.BatchRunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	instruments, err := h.instruments.GetAllInstruments(c.Request().Context(), req.Month)
	if err != nil {
		metrics.APIErrors.WithLabelValues("batch_run").Inc()
		h.logger.Error("load instruments error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(instruments) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no instruments for month %d", req.Month))
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_BATCH_RUNNING", "", "a batch run is already active", http.StatusConflict))
	}
	h.running = true
	h.runner.SetWorkers(req.Workers)
	// Detached context: the run outlives this request.
	events := h.runner.Run(context.Background(), instruments)
	h.mu.Unlock()

	go h.consume(events)

	h.logger.Info("batch run started",
		xlogger.Int("instruments", len(instruments)),
		xlogger.Int("month", req.Month),
	)
	return xhttp.SuccessResponse(c, &batchRunResponse{Total: len(instruments), Month: req.Month})
}

// consume drains one run's events: fan-out to subscribers, results into the
// pipeline.
func (h *BatchEchoHandler) consume(events <-chan models.BatchEvent) {
	for ev := range events {
		h.broadcast(ev)
		if ev.Kind == models.BatchEventResult && ev.Result != nil {
			if err := h.pipeline.Process(context.Background(), ev.Result); err != nil {
				h.logger.Warn("result pipeline error",
					xlogger.String("code", ev.Code),
					xlogger.Error(err),
				)
			}
		}
		if ev.Kind == models.BatchEventCompleted {
			h.logger.Info("batch run completed",
				xlogger.Int("completed", ev.Completed),
				xlogger.Int("results", len(ev.Results)),
			)
		}
	}

	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
}

// Stop cancels the active run cooperatively. In-flight scans finish.
func (h *BatchEchoHandler) Stop(c echo.Context) error {
	h.runner.Stop()
	return xhttp.SuccessResponse(c, h.runner.Status())
}

// Status reports the active (or last finished) run.
func (h *BatchEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.runner.Status())
}

// batchStreamEvent is the wire form of a batch event. Result events carry a
// compact summary instead of the full trade populations.
type batchStreamEvent struct {
	Kind          models.BatchEventKind `json:"kind"`
	Code          string                `json:"code,omitempty"`
	Error         string                `json:"error,omitempty"`
	Completed     int                   `json:"completed"`
	Total         int                   `json:"total"`
	OptimalOffset int                   `json:"optimal_offset,omitempty"`
	Score         float64               `json:"score,omitempty"`
	WinRate       float64               `json:"win_rate,omitempty"`
}

func streamEvent(ev models.BatchEvent) batchStreamEvent {
	out := batchStreamEvent{
		Kind:      ev.Kind,
		Code:      ev.Code,
		Error:     ev.Err,
		Completed: ev.Completed,
		Total:     ev.Total,
	}
	if ev.Result != nil {
		out.OptimalOffset = ev.Result.OptimalOffset
		out.Score = ev.Result.Best.Score()
		out.WinRate = ev.Result.Best.WinRate
	}
	return out
}

// Stream upgrades to websocket and pushes batch events until the client
// disconnects. Slow clients drop events instead of stalling the run.
func (h *BatchEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ch := make(chan models.BatchEvent, 64)
	h.mu.Lock()
	h.subs[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, conn)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Reader only detects disconnects; clients send nothing meaningful.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if err := conn.WriteJSON(streamEvent(ev)); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (h *BatchEchoHandler) broadcast(ev models.BatchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default: // subscriber is behind, drop
		}
	}
}
