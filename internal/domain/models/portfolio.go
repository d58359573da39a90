package models

import "github.com/shopspring/decimal"

// Objective selects what the portfolio optimizer targets.
type Objective string

const (
	ObjectiveSharpe Objective = "sharpe"
	ObjectiveReturn Objective = "return"
	ObjectiveRisk   Objective = "risk"
)

// InstrumentStats is the per-instrument snapshot the allocator works from,
// taken from the instrument's best-offset statistics.
type InstrumentStats struct {
	Code           string
	Name           string
	ExpectedReturn float64
	WinRate        float64
	AvgWinReturn   float64
	AvgLoseReturn  float64
}

// PortfolioMetrics describes a weighted portfolio of instrument stats.
// Returns and risks are percentages per holding period.
type PortfolioMetrics struct {
	ExpectedReturn float64
	WinRate        float64
	Variance       float64
	Risk           float64
	SharpeRatio    float64
	RiskReduction  float64 // percent vs the equal-weight baseline
	WorstCase95    float64
	DownsideRisk   float64
	SortinoRatio   float64
	Weights        []float64
}

// FrontierPoint is one sampled portfolio on the risk/return plane.
type FrontierPoint struct {
	Return  float64
	Risk    float64
	Sharpe  float64
	Weights []float64
}

// AllocationLine is one instrument's share of a suggested allocation.
type AllocationLine struct {
	Code   string
	Name   string
	Weight float64
	Amount decimal.Decimal
}

// AllocationPlan is a concrete money split produced by Suggest. When the
// optimizer fails to converge the plan falls back to equal weights and
// EqualWeight is set.
type AllocationPlan struct {
	Objective   Objective
	Total       decimal.Decimal
	Lines       []AllocationLine
	Metrics     PortfolioMetrics
	EqualWeight bool
}
