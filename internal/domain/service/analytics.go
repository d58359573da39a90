package service

import (
	"YutaiScan/internal/domain/models"
)

// TimingScanner finds the historically best buy offset for a price series.
type TimingScanner interface {
	// Scan returns nil when the series has no offset clearing the minimum
	// sample floor.
	Scan(bars []models.PriceBar, rightsMonth int) *models.OptimalTimingResult
}

// RiskAnalyzer derives risk metrics from win/lose trade populations.
type RiskAnalyzer interface {
	Analyze(win, lose []models.Trade) models.RiskMetrics
}

// PortfolioAllocator computes weighted portfolio metrics and allocations
// over best-offset instrument snapshots.
type PortfolioAllocator interface {
	Metrics(stats []models.InstrumentStats, weights []float64) (*models.PortfolioMetrics, error)
	Optimize(stats []models.InstrumentStats, objective models.Objective) ([]float64, error)
	Frontier(stats []models.InstrumentStats, points int) ([]models.FrontierPoint, error)
	Suggest(stats []models.InstrumentStats, total string, riskTolerance string) (*models.AllocationPlan, error)
}
