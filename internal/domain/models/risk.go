package models

// DrawdownMetrics describes the worst peak-to-trough decline of the
// compounded return path. Percentages are negative or zero.
type DrawdownMetrics struct {
	MaxDrawdown     float64
	CurrentDrawdown float64
	DurationDays    int
}

// ValueAtRisk holds historical VaR and conditional VaR at the two standard
// confidence levels, in return percent.
type ValueAtRisk struct {
	VaR95  float64
	VaR99  float64
	CVaR95 float64
	CVaR99 float64
}

// DistributionStats are population moments and quantiles of the return
// sample.
type DistributionStats struct {
	Mean     float64
	Median   float64
	Std      float64
	Skewness float64
	Kurtosis float64 // excess kurtosis
	Min      float64
	Max      float64
	P25      float64
	P75      float64
}

// StreakMetrics summarizes consecutive win/lose runs in chronological
// order. CurrentType is "win", "lose" or "" for an empty sample.
type StreakMetrics struct {
	MaxWinStreak  int
	MaxLoseStreak int
	AvgWinStreak  float64
	AvgLoseStreak float64
	CurrentStreak int
	CurrentType   string
}

// RiskMetrics is the full risk report for one instrument's optimal-offset
// trade population. When NoDownsideRisk is set the Sortino ratio is
// unbounded and SortinoRatio carries no information.
type RiskMetrics struct {
	Drawdown       DrawdownMetrics
	VaR            ValueAtRisk
	Distribution   DistributionStats
	SortinoRatio   float64
	NoDownsideRisk bool
	CalmarRatio    float64
	Streaks        StreakMetrics
	SampleSize     int
}
