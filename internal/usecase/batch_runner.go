package usecase

import (
	"context"
	"sync"

	"YutaiScan/internal/domain/models"
	domrepo "YutaiScan/internal/domain/repository"
	applogger "YutaiScan/pkg/logger"
)

// ScanFunc runs one instrument scan. A nil result with nil error means
// insufficient history.
type ScanFunc func(ctx context.Context, inst models.Instrument) (*models.OptimalTimingResult, error)

// BatchRunner fans instruments out over a bounded worker pool and reports
// progress in completion order. One failing instrument never aborts the
// run; the event channel closes after exactly one completion event.
type BatchRunner struct {
	scan    ScanFunc
	workers int
	metrics domrepo.Metrics
	log     *applogger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	status models.BatchStatus
}

func NewBatchRunner(scan ScanFunc, workers int, metrics domrepo.Metrics, log *applogger.Logger) *BatchRunner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchRunner{scan: scan, workers: workers, metrics: metrics, log: log}
}

type scanOutcome struct {
	code string
	res  *models.OptimalTimingResult
	err  error
}

// Run starts the pool and returns the event channel. Cancelling ctx or
// calling Stop halts dispatch of queued instruments; in-flight scans finish
// and are counted.
func (r *BatchRunner) Run(ctx context.Context, instruments []models.Instrument) <-chan models.BatchEvent {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.cancel = cancel
	r.status = models.BatchStatus{Running: true, Total: len(instruments)}
	workers := r.workers
	r.mu.Unlock()

	events := make(chan models.BatchEvent, workers)
	jobs := make(chan models.Instrument)
	outs := make(chan scanOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				if ctx.Err() != nil {
					continue // cancelled before this instrument started
				}
				res, err := r.scan(ctx, inst)
				outs <- scanOutcome{code: inst.Code, res: res, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, inst := range instruments {
			select {
			case jobs <- inst:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outs)
	}()

	go r.collect(cancel, events, outs, len(instruments))
	return events
}

func (r *BatchRunner) collect(cancel context.CancelFunc, events chan<- models.BatchEvent, outs <-chan scanOutcome, total int) {
	defer cancel()
	defer close(events)

	completed, failed := 0, 0
	var results []*models.OptimalTimingResult

	for o := range outs {
		completed++
		ev := models.BatchEvent{Code: o.code, Completed: completed, Total: total}
		switch {
		case o.err != nil:
			failed++
			ev.Kind = models.BatchEventError
			ev.Err = o.err.Error()
			r.metrics.RecordError("batch_scan")
			r.log.Warn("batch scan failed",
				applogger.String("code", o.code),
				applogger.Error(o.err),
			)
		case o.res != nil:
			ev.Kind = models.BatchEventResult
			ev.Result = o.res
			results = append(results, o.res)
		default:
			ev.Kind = models.BatchEventProgress
		}

		r.metrics.RecordBatchProgress(completed, total)
		r.setStatus(models.BatchStatus{Running: true, Completed: completed, Total: total, Failed: failed})
		events <- ev
	}

	r.setStatus(models.BatchStatus{Running: false, Completed: completed, Total: total, Failed: failed})
	events <- models.BatchEvent{
		Kind:      models.BatchEventCompleted,
		Completed: completed,
		Total:     total,
		Results:   results,
	}
}

// SetWorkers resizes the pool for subsequent runs. Values below one keep
// the current size. Callers must not resize a running pool.
func (r *BatchRunner) SetWorkers(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 {
		r.workers = n
	}
}

// Stop requests cooperative cancellation of the active run.
func (r *BatchRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Status reports the active (or last finished) run.
func (r *BatchRunner) Status() models.BatchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *BatchRunner) setStatus(s models.BatchStatus) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}
