package models

import "time"

// Trade is one historical buy-at-offset outcome: bought at EntryPrice on
// EntryDate, exited at ExitPrice on Date (the rights cutoff day). ReturnPct
// is the percent change between the two closes.
type Trade struct {
	Date       time.Time
	EntryDate  time.Time
	EntryPrice float64
	ExitPrice  float64
	ReturnPct  float64
}

// OffsetStatistics aggregates all historical trades for one days-before
// offset. Returns are percentages; WinRate is a fraction in [0, 1].
type OffsetStatistics struct {
	Offset         int
	WinCount       int
	LoseCount      int
	TotalCount     int
	WinRate        float64
	AvgWinReturn   float64
	AvgLoseReturn  float64
	MaxWinReturn   float64
	MaxLoseReturn  float64
	ExpectedReturn float64
}

// Score ranks offsets: expected return weighted by the probability of
// realizing it.
func (s OffsetStatistics) Score() float64 {
	return s.ExpectedReturn * s.WinRate
}

// OptimalTimingResult is the outcome of a full offset scan for one
// instrument: the winning offset, its trade populations for risk analysis,
// and every offset that cleared the minimum sample floor.
type OptimalTimingResult struct {
	Code          string
	Name          string
	RightsMonth   int
	OptimalOffset int
	Best          OffsetStatistics
	AllOffsets    []OffsetStatistics
	WinTrades     []Trade
	LoseTrades    []Trade
	GeneratedAt   time.Time
}
