package usecase

import (
	"context"
	"fmt"
	"time"

	"YutaiScan/internal/domain/models"
	drepo "YutaiScan/internal/domain/repository"
)

// ResultProcessor routes timing results to the configured backend: kafka
// publishes them downstream, clickhouse persists them.
type ResultProcessor struct {
	pub     drepo.ResultPublisher
	store   drepo.ResultStore
	metrics drepo.Metrics
	backend string
}

func NewResultProcessor(
	pub drepo.ResultPublisher,
	store drepo.ResultStore,
	metrics drepo.Metrics,
	backend string,
) *ResultProcessor {
	return &ResultProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single result.
func (p *ResultProcessor) Process(ctx context.Context, res *models.OptimalTimingResult) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, res)
	case "clickhouse":
		err = p.store.SaveTimingResult(ctx, res)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process result: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, res.Code)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes the completion list of a batch run.
func (p *ResultProcessor) ProcessBatch(ctx context.Context, results []*models.OptimalTimingResult) error {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, results)
	case "clickhouse":
		for _, res := range results {
			if err = p.store.SaveTimingResult(ctx, res); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, res := range results {
		p.metrics.RecordMessageSent(p.backend, res.Code)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *ResultProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
