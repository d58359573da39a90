package repository

import (
	"context"

	"YutaiScan/internal/domain/models"
)

// PriceStore provides daily price history per instrument.
type PriceStore interface {
	// GetPriceSeries returns bars ascending by date, at most one per
	// trading day, covering up to the given span back from now. years<=0
	// means the full stored history.
	GetPriceSeries(ctx context.Context, code string, years int) ([]models.PriceBar, error)
	// PutPriceSeries upserts bars; re-inserting the same (code, date) wins
	// by latest write.
	PutPriceSeries(ctx context.Context, bars []models.PriceBar) error
	Health(ctx context.Context) error
}

// InstrumentStore lists instruments eligible for scanning.
type InstrumentStore interface {
	// GetAllInstruments returns instruments, optionally filtered to one
	// rights month (0 = all months).
	GetAllInstruments(ctx context.Context, rightsMonth int) ([]models.Instrument, error)
	GetInstrument(ctx context.Context, code string) (*models.Instrument, error)
}

// ResultStore persists scan outcomes and answers best-offset lookups.
type ResultStore interface {
	SaveTimingResult(ctx context.Context, res *models.OptimalTimingResult) error
	// BestOffsetStatistics returns the highest-score offset row recorded
	// for the instrument, or nil when none exists.
	BestOffsetStatistics(ctx context.Context, code string, rightsMonth int) (*models.OffsetStatistics, error)
	Close() error
}

// ResultPublisher emits timing results to an external sink.
type ResultPublisher interface {
	Publish(ctx context.Context, res *models.OptimalTimingResult) error
	PublishBatch(ctx context.Context, results []*models.OptimalTimingResult) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordMessageSent(backend, code string)
	RecordError(kind string)
	RecordBestOffset(code string, offset int)
	RecordLatency(op string, seconds float64)
	RecordBatchProgress(completed, total int)
}

// BarUpsert is the wire form of one price-bar write coming off the bars
// topic. Date accepts the daily layout, RFC3339, or unix seconds.
type BarUpsert struct {
	Code   string  `json:"code"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
