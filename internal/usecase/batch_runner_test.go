package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"YutaiScan/internal/domain/models"
	applogger "YutaiScan/pkg/logger"
)

type fakeMetrics struct {
	mu       sync.Mutex
	errors   int
	progress int
}

func (m *fakeMetrics) RecordMessageSent(backend, code string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordBestOffset(code string, offset int) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}
func (m *fakeMetrics) RecordBatchProgress(completed, total int) {
	m.mu.Lock()
	m.progress++
	m.mu.Unlock()
}

func instruments(n int) []models.Instrument {
	out := make([]models.Instrument, n)
	for i := range out {
		out[i] = models.Instrument{Code: fmt.Sprintf("%03d", i+1), RightsMonth: 3}
	}
	return out
}

func TestBatchRunIsolatesFailures(t *testing.T) {
	scan := func(ctx context.Context, inst models.Instrument) (*models.OptimalTimingResult, error) {
		if inst.Code == "004" {
			return nil, fmt.Errorf("price fetch failed")
		}
		return &models.OptimalTimingResult{Code: inst.Code, OptimalOffset: 3}, nil
	}

	metrics := &fakeMetrics{}
	r := NewBatchRunner(scan, 4, metrics, applogger.Nop())
	events := r.Run(context.Background(), instruments(10))

	var completions, results, failures int
	var last models.BatchEvent
	seen := 0
	for ev := range events {
		last = ev
		switch ev.Kind {
		case models.BatchEventCompleted:
			completions++
			if len(ev.Results) != 9 {
				t.Fatalf("completion carries %d results, want 9", len(ev.Results))
			}
		case models.BatchEventResult:
			results++
		case models.BatchEventError:
			failures++
			if ev.Code != "004" {
				t.Fatalf("failure reported for %s, want 004", ev.Code)
			}
		}
		if ev.Kind != models.BatchEventCompleted {
			seen++
			if ev.Completed != seen {
				t.Fatalf("progress out of order: got %d, want %d", ev.Completed, seen)
			}
			if ev.Total != 10 {
				t.Fatalf("total = %d, want 10", ev.Total)
			}
		}
	}

	if completions != 1 {
		t.Fatalf("completion events = %d, want exactly 1", completions)
	}
	if last.Kind != models.BatchEventCompleted {
		t.Fatalf("last event = %s, want completed", last.Kind)
	}
	if results != 9 || failures != 1 {
		t.Fatalf("results/failures = %d/%d, want 9/1", results, failures)
	}

	st := r.Status()
	if st.Running || st.Completed != 10 || st.Failed != 1 {
		t.Fatalf("status = %+v", st)
	}
	if metrics.errors != 1 {
		t.Fatalf("recorded errors = %d, want 1", metrics.errors)
	}
}

func TestBatchRunInsufficientHistoryCountsAsProgress(t *testing.T) {
	scan := func(ctx context.Context, inst models.Instrument) (*models.OptimalTimingResult, error) {
		if inst.Code == "002" {
			return nil, nil // too little history
		}
		return &models.OptimalTimingResult{Code: inst.Code}, nil
	}

	r := NewBatchRunner(scan, 2, &fakeMetrics{}, applogger.Nop())
	events := r.Run(context.Background(), instruments(3))

	var progressOnly int
	var final models.BatchEvent
	for ev := range events {
		if ev.Kind == models.BatchEventProgress {
			progressOnly++
			if ev.Code != "002" {
				t.Fatalf("progress-only event for %s, want 002", ev.Code)
			}
		}
		final = ev
	}
	if progressOnly != 1 {
		t.Fatalf("progress-only events = %d, want 1", progressOnly)
	}
	if final.Completed != 3 || len(final.Results) != 2 {
		t.Fatalf("final event = %+v, want 3 completed, 2 results", final)
	}
}

func TestBatchRunStopHaltsDispatch(t *testing.T) {
	proceed := make(chan struct{}, 8)
	scan := func(ctx context.Context, inst models.Instrument) (*models.OptimalTimingResult, error) {
		<-proceed
		return &models.OptimalTimingResult{Code: inst.Code}, nil
	}

	r := NewBatchRunner(scan, 1, &fakeMetrics{}, applogger.Nop())
	events := r.Run(context.Background(), instruments(5))

	proceed <- struct{}{}
	first, ok := <-events
	if !ok || first.Completed != 1 {
		t.Fatalf("first event = %+v ok=%v", first, ok)
	}

	r.Stop()
	close(proceed) // release any scan already in flight

	var completions int
	completed := first.Completed
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if completions != 1 {
					t.Fatalf("completion events = %d, want 1", completions)
				}
				if completed >= 5 {
					t.Fatalf("completed = %d, stop did not halt dispatch", completed)
				}
				return
			}
			completed = ev.Completed
			if ev.Kind == models.BatchEventCompleted {
				completions++
			}
		case <-deadline:
			t.Fatal("batch did not stop")
		}
	}
}
