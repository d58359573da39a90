package di

import (
	"context"
	"testing"

	"YutaiScan/internal/domain/models"
	"YutaiScan/internal/usecase"
	"YutaiScan/pkg/config"
	applogger "YutaiScan/pkg/logger"
)

type stubPrices struct{}

func (stubPrices) GetPriceSeries(ctx context.Context, code string, years int) ([]models.PriceBar, error) {
	return nil, nil
}
func (stubPrices) PutPriceSeries(ctx context.Context, bars []models.PriceBar) error { return nil }
func (stubPrices) Health(ctx context.Context) error                                 { return nil }

type stubInstruments struct{}

func (stubInstruments) GetAllInstruments(ctx context.Context, rightsMonth int) ([]models.Instrument, error) {
	return nil, nil
}
func (stubInstruments) GetInstrument(ctx context.Context, code string) (*models.Instrument, error) {
	return nil, nil
}

type stubResults struct{}

func (stubResults) SaveTimingResult(ctx context.Context, res *models.OptimalTimingResult) error {
	return nil
}
func (stubResults) BestOffsetStatistics(ctx context.Context, code string, rightsMonth int) (*models.OffsetStatistics, error) {
	return nil, nil
}
func (stubResults) Close() error { return nil }

type stubRisk struct{}

func (stubRisk) Analyze(win, lose []models.Trade) models.RiskMetrics { return models.RiskMetrics{} }

type stubMetrics struct{}

func (stubMetrics) RecordMessageSent(backend, code string)   {}
func (stubMetrics) RecordError(kind string)                  {}
func (stubMetrics) RecordBestOffset(code string, offset int) {}
func (stubMetrics) RecordLatency(op string, seconds float64) {}
func (stubMetrics) RecordBatchProgress(completed, total int) {}

type monthRecorder struct {
	months []int
}

func (r *monthRecorder) Scan(bars []models.PriceBar, rightsMonth int) *models.OptimalTimingResult {
	r.months = append(r.months, rightsMonth)
	return nil
}

// A batch run has no per-request month, so the runner's scan function must
// let each instrument fall back to its own rights month.
func TestProvideBatchRunnerScansInstrumentRightsMonth(t *testing.T) {
	rec := &monthRecorder{}
	analyzer := usecase.NewTimingAnalyzer(
		stubPrices{}, stubInstruments{}, stubResults{},
		rec, stubRisk{}, stubMetrics{}, applogger.Nop(), 10,
	)

	cfg := &config.Config{}
	cfg.Batch.Workers = 1
	runner := ProvideBatchRunner(analyzer, stubMetrics{}, applogger.Nop(), cfg)
	if runner == nil {
		t.Fatal("expected a batch runner")
	}

	events := runner.Run(context.Background(), []models.Instrument{
		{Code: "9001", Name: "March Co", RightsMonth: 3},
	})
	for range events {
	}

	if len(rec.months) != 1 || rec.months[0] != 3 {
		t.Fatalf("scanner saw months %v, want [3]", rec.months)
	}
}
