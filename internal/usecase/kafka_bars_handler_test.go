package usecase

import (
	"context"
	"testing"

	"YutaiScan/internal/domain/models"
)

type fakePriceStore struct {
	bars []models.PriceBar
}

func (s *fakePriceStore) GetPriceSeries(ctx context.Context, code string, years int) ([]models.PriceBar, error) {
	return s.bars, nil
}

func (s *fakePriceStore) PutPriceSeries(ctx context.Context, bars []models.PriceBar) error {
	s.bars = append(s.bars, bars...)
	return nil
}

func (s *fakePriceStore) Health(ctx context.Context) error { return nil }

func TestBarsHandlerSingleUpsert(t *testing.T) {
	store := &fakePriceStore{}
	h := NewKafkaBarsHandler("bars", store, &fakeMetrics{})

	msg := []byte(`{"code":"9861","date":"2024-03-27","open":100,"high":102,"low":99,"close":101,"volume":1200}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(store.bars))
	}
	b := store.bars[0]
	if b.Code != "9861" || b.Close != 101 {
		t.Fatalf("unexpected bar %+v", b)
	}
	if b.Date.Year() != 2024 || b.Date.Month() != 3 || b.Date.Day() != 27 {
		t.Fatalf("unexpected date %v", b.Date)
	}
}

func TestBarsHandlerArrayUpsert(t *testing.T) {
	store := &fakePriceStore{}
	h := NewKafkaBarsHandler("bars", store, &fakeMetrics{})

	msg := []byte(`[
        {"code":"9861","date":"2024-03-27","close":101},
        {"code":"9861","date":"2024-03-28","close":102}
    ]`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(store.bars))
	}
}

func TestBarsHandlerSkipsInvalid(t *testing.T) {
	store := &fakePriceStore{}
	metrics := &fakeMetrics{}
	h := NewKafkaBarsHandler("bars", store, metrics)

	msg := []byte(`[
        {"code":"","date":"2024-03-27","close":101},
        {"code":"9861","date":"not-a-date","close":101},
        {"code":"9861","date":"2024-03-28","close":102}
    ]`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.bars) != 1 {
		t.Fatalf("expected 1 valid bar, got %d", len(store.bars))
	}
	if metrics.errors != 2 {
		t.Fatalf("expected 2 invalid-bar errors, got %d", metrics.errors)
	}
}

func TestBarsHandlerBadPayload(t *testing.T) {
	h := NewKafkaBarsHandler("bars", &fakePriceStore{}, &fakeMetrics{})
	if err := h.Handle(context.Background(), []byte(`{broken`)); err == nil {
		t.Fatal("expected unmarshal error")
	}
}
