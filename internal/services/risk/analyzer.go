package risk

import (
	"math"
	"sort"

	"YutaiScan/internal/domain/models"
)

// Config tunes the risk report.
type Config struct {
	TargetReturn   float64 // minimum acceptable return for Sortino
	PeriodsPerYear int     // annualization base
}

func DefaultConfig() Config {
	return Config{TargetReturn: 0, PeriodsPerYear: 252}
}

// Analyzer derives risk metrics from the win/lose trade populations of an
// optimal-offset scan. All methods are pure; calling Analyze twice on the
// same inputs yields identical output.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = 252
	}
	return &Analyzer{cfg: cfg}
}

func (a *Analyzer) Analyze(win, lose []models.Trade) models.RiskMetrics {
	trades := make([]models.Trade, 0, len(win)+len(lose))
	trades = append(trades, win...)
	trades = append(trades, lose...)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date.Before(trades[j].Date)
	})

	returns := make([]float64, len(trades))
	for i, t := range trades {
		returns[i] = t.ReturnPct
	}

	m := models.RiskMetrics{
		Drawdown:     a.drawdown(trades),
		VaR:          a.valueAtRisk(returns),
		Distribution: a.distribution(returns),
		Streaks:      a.streaks(returns),
		SampleSize:   len(returns),
	}

	m.SortinoRatio, m.NoDownsideRisk = a.sortino(returns)
	m.CalmarRatio = a.calmar(m.Distribution.Mean, m.Drawdown.MaxDrawdown)
	return m
}

// drawdown compounds the chronological returns and tracks the deepest
// peak-to-trough decline. Fewer than 2 trades carry no path to draw down.
func (a *Analyzer) drawdown(trades []models.Trade) models.DrawdownMetrics {
	if len(trades) < 2 {
		return models.DrawdownMetrics{}
	}

	var d models.DrawdownMetrics
	cum := 1.0
	runMax := math.Inf(-1)
	peakIdx, maxPeakIdx, troughIdx := 0, 0, 0
	last := 0.0
	for i, t := range trades {
		cum *= 1 + t.ReturnPct/100
		if cum > runMax {
			runMax = cum
			peakIdx = i
		}
		dd := (cum - runMax) / runMax * 100
		if dd < d.MaxDrawdown {
			d.MaxDrawdown = dd
			troughIdx = i
			maxPeakIdx = peakIdx
		}
		last = dd
	}
	d.CurrentDrawdown = last
	if d.MaxDrawdown < 0 {
		span := trades[troughIdx].Date.Sub(trades[maxPeakIdx].Date)
		d.DurationDays = int(span.Hours() / 24)
	}
	return d
}

func (a *Analyzer) valueAtRisk(returns []float64) models.ValueAtRisk {
	if len(returns) == 0 {
		return models.ValueAtRisk{}
	}
	s := append([]float64(nil), returns...)
	sort.Float64s(s)

	v := models.ValueAtRisk{
		VaR95: percentile(s, 5),
		VaR99: percentile(s, 1),
	}
	v.CVaR95 = tailMean(s, v.VaR95)
	v.CVaR99 = tailMean(s, v.VaR99)
	return v
}

// tailMean averages the returns at or below the VaR threshold, falling back
// to the threshold itself when nothing lies in the tail.
func tailMean(sorted []float64, threshold float64) float64 {
	sum, n := 0.0, 0
	for _, r := range sorted {
		if r > threshold {
			break
		}
		sum += r
		n++
	}
	if n == 0 {
		return threshold
	}
	return sum / float64(n)
}

func (a *Analyzer) distribution(returns []float64) models.DistributionStats {
	n := len(returns)
	if n == 0 {
		return models.DistributionStats{}
	}

	s := append([]float64(nil), returns...)
	sort.Float64s(s)

	var d models.DistributionStats
	d.Min = s[0]
	d.Max = s[n-1]
	d.Median = percentile(s, 50)
	d.P25 = percentile(s, 25)
	d.P75 = percentile(s, 75)

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	d.Mean = sum / float64(n)

	var m2, m3, m4 float64
	for _, r := range returns {
		dev := r - d.Mean
		m2 += dev * dev
		m3 += dev * dev * dev
		m4 += dev * dev * dev * dev
	}
	m2 /= float64(n)
	m3 /= float64(n)
	m4 /= float64(n)

	d.Std = math.Sqrt(m2)
	if m2 > 0 {
		d.Skewness = m3 / math.Pow(m2, 1.5)
		d.Kurtosis = m4/(m2*m2) - 3
	}
	return d
}

// sortino annualizes the mean excess return over the downside deviation.
// The second result reports an unbounded ratio: no returns below target, or
// a degenerate downside with zero deviation.
func (a *Analyzer) sortino(returns []float64) (float64, bool) {
	if len(returns) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var downside []float64
	for _, r := range returns {
		if r < a.cfg.TargetReturn {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0, true
	}

	dSum := 0.0
	for _, r := range downside {
		dSum += r
	}
	dMean := dSum / float64(len(downside))
	var dVar float64
	for _, r := range downside {
		dVar += (r - dMean) * (r - dMean)
	}
	dev := math.Sqrt(dVar / float64(len(downside)))
	if dev == 0 {
		return 0, true
	}

	return (mean - a.cfg.TargetReturn) / dev * math.Sqrt(float64(a.cfg.PeriodsPerYear)), false
}

func (a *Analyzer) calmar(mean, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return mean * float64(a.cfg.PeriodsPerYear) / math.Abs(maxDrawdown)
}

func (a *Analyzer) streaks(returns []float64) models.StreakMetrics {
	var m models.StreakMetrics
	if len(returns) == 0 {
		return m
	}

	var winRuns, loseRuns []int
	curLen := 0
	curWin := returns[0] > 0
	flush := func() {
		if curWin {
			winRuns = append(winRuns, curLen)
		} else {
			loseRuns = append(loseRuns, curLen)
		}
	}
	for _, r := range returns {
		w := r > 0
		if curLen > 0 && w != curWin {
			flush()
			curLen = 0
		}
		curWin = w
		curLen++
	}
	flush()

	m.CurrentStreak = curLen
	if curWin {
		m.CurrentType = "win"
	} else {
		m.CurrentType = "lose"
	}
	m.MaxWinStreak, m.AvgWinStreak = runStats(winRuns)
	m.MaxLoseStreak, m.AvgLoseStreak = runStats(loseRuns)
	return m
}

func runStats(runs []int) (int, float64) {
	if len(runs) == 0 {
		return 0, 0
	}
	max, sum := 0, 0
	for _, r := range runs {
		if r > max {
			max = r
		}
		sum += r
	}
	return max, float64(sum) / float64(len(runs))
}

// percentile computes the linearly interpolated percentile of an ascending
// sample.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
