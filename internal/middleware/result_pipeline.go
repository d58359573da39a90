package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"YutaiScan/internal/domain/models"
	domrepo "YutaiScan/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, res *models.OptimalTimingResult) error
}

// ResultPipeline sits between the batch runner and the result sink. It
// validates results, forwards them downstream, and buffers them for
// background retry when the sink is unavailable, so a flaky backend never
// stalls a running batch.
type ResultPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan *models.OptimalTimingResult
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*ResultPipeline)

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *ResultPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewResultPipeline creates a new pipeline.
func NewResultPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ResultPipeline {
	p := &ResultPipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.OptimalTimingResult, p.bufSize)
	return p
}

// Start launches background flushing of buffered results.
func (p *ResultPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case res := <-p.bufCh:
				if res == nil {
					continue
				}
				if err := p.proc.Process(ctx, res); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- res:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *ResultPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards a result to the sink, buffering on errors.
func (p *ResultPipeline) Process(ctx context.Context, res *models.OptimalTimingResult) error {
	start := time.Now()
	if err := validateResult(res); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	if err := p.proc.Process(ctx, res); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- res:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateResult(res *models.OptimalTimingResult) error {
	if res == nil {
		return fmt.Errorf("result nil")
	}
	if res.Code == "" {
		return fmt.Errorf("code empty")
	}
	if res.OptimalOffset <= 0 {
		return fmt.Errorf("offset invalid")
	}
	if res.Best.TotalCount <= 0 {
		return fmt.Errorf("empty sample")
	}
	return nil
}
