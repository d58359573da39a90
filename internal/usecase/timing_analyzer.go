package usecase

import (
	"context"
	"fmt"
	"time"

	"YutaiScan/internal/domain/models"
	domrepo "YutaiScan/internal/domain/repository"
	domsvc "YutaiScan/internal/domain/service"
	applogger "YutaiScan/pkg/logger"
)

// TimingAnalyzer orchestrates price loading, offset scanning and risk
// analysis for single instruments.
type TimingAnalyzer struct {
	prices      domrepo.PriceStore
	instruments domrepo.InstrumentStore
	results     domrepo.ResultStore
	scanner     domsvc.TimingScanner
	risk        domsvc.RiskAnalyzer
	metrics     domrepo.Metrics
	log         *applogger.Logger
	periodYears int
}

func NewTimingAnalyzer(
	prices domrepo.PriceStore,
	instruments domrepo.InstrumentStore,
	results domrepo.ResultStore,
	scanner domsvc.TimingScanner,
	risk domsvc.RiskAnalyzer,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	periodYears int,
) *TimingAnalyzer {
	return &TimingAnalyzer{
		prices:      prices,
		instruments: instruments,
		results:     results,
		scanner:     scanner,
		risk:        risk,
		metrics:     metrics,
		log:         log,
		periodYears: periodYears,
	}
}

// Analyze scans one instrument. month <= 0 falls back to the instrument's
// rights month. A nil result with nil error means insufficient history.
func (a *TimingAnalyzer) Analyze(ctx context.Context, inst models.Instrument, month int) (*models.OptimalTimingResult, error) {
	if month <= 0 {
		month = inst.RightsMonth
	}

	start := time.Now()
	bars, err := a.prices.GetPriceSeries(ctx, inst.Code, a.periodYears)
	if err != nil {
		a.metrics.RecordError("price_fetch")
		return nil, fmt.Errorf("load price series %s: %w", inst.Code, err)
	}

	res := a.scanner.Scan(bars, month)
	a.metrics.RecordLatency("scan", time.Since(start).Seconds())
	if res == nil {
		a.log.Debug("insufficient history",
			applogger.String("code", inst.Code),
			applogger.Int("bars", len(bars)),
			applogger.Int("month", month),
		)
		return nil, nil
	}

	res.Name = inst.Name
	a.metrics.RecordBestOffset(inst.Code, res.OptimalOffset)
	return res, nil
}

// AnalyzeCode resolves the instrument first.
func (a *TimingAnalyzer) AnalyzeCode(ctx context.Context, code string, month int) (*models.OptimalTimingResult, error) {
	inst, err := a.instruments.GetInstrument(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load instrument %s: %w", code, err)
	}
	if inst == nil {
		return nil, fmt.Errorf("instrument %s not found", code)
	}
	return a.Analyze(ctx, *inst, month)
}

// RiskReport analyzes the instrument and derives risk metrics from the
// optimal offset's trade populations. Both results are nil when history is
// insufficient.
func (a *TimingAnalyzer) RiskReport(ctx context.Context, code string, month int) (*models.RiskMetrics, *models.OptimalTimingResult, error) {
	res, err := a.AnalyzeCode(ctx, code, month)
	if err != nil || res == nil {
		return nil, nil, err
	}
	m := a.risk.Analyze(res.WinTrades, res.LoseTrades)
	return &m, res, nil
}

// InstrumentStats assembles allocator inputs from stored best-offset
// statistics, scanning fresh when nothing is stored yet.
func (a *TimingAnalyzer) InstrumentStats(ctx context.Context, codes []string, month int) ([]models.InstrumentStats, error) {
	out := make([]models.InstrumentStats, 0, len(codes))
	for _, code := range codes {
		inst, err := a.instruments.GetInstrument(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("load instrument %s: %w", code, err)
		}
		if inst == nil {
			return nil, fmt.Errorf("instrument %s not found", code)
		}

		m := month
		if m <= 0 {
			m = inst.RightsMonth
		}
		best, err := a.results.BestOffsetStatistics(ctx, code, m)
		if err != nil {
			return nil, fmt.Errorf("load best offset %s: %w", code, err)
		}
		if best == nil {
			res, err := a.Analyze(ctx, *inst, m)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return nil, fmt.Errorf("no offset statistics for %s", code)
			}
			best = &res.Best
		}

		out = append(out, models.InstrumentStats{
			Code:           inst.Code,
			Name:           inst.Name,
			ExpectedReturn: best.ExpectedReturn,
			WinRate:        best.WinRate,
			AvgWinReturn:   best.AvgWinReturn,
			AvgLoseReturn:  best.AvgLoseReturn,
		})
	}
	return out, nil
}
