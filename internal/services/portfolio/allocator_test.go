package portfolio

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"YutaiScan/internal/domain/models"
)

func twoInstruments() []models.InstrumentStats {
	// Equal expected return, variances 4 and 16.
	return []models.InstrumentStats{
		{Code: "1001", Name: "Low Vol", ExpectedReturn: 2, WinRate: 0.5, AvgWinReturn: 4, AvgLoseReturn: 0},
		{Code: "1002", Name: "High Vol", ExpectedReturn: 2, WinRate: 0.5, AvgWinReturn: 6, AvgLoseReturn: -2},
	}
}

func TestMetricsKnownPortfolio(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	m, err := a.Metrics(twoInstruments(), []float64{0.5, 0.5})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	if math.Abs(m.ExpectedReturn-2) > 1e-12 {
		t.Fatalf("expected return = %v, want 2", m.ExpectedReturn)
	}
	if math.Abs(m.WinRate-0.5) > 1e-12 {
		t.Fatalf("win rate = %v, want 0.5", m.WinRate)
	}
	// 0.25*4 + 0.25*16 + 2*0.25*0.3*2*4
	if math.Abs(m.Variance-6.2) > 1e-9 {
		t.Fatalf("variance = %v, want 6.2", m.Variance)
	}
	if math.Abs(m.Risk-math.Sqrt(6.2)) > 1e-9 {
		t.Fatalf("risk = %v, want sqrt(6.2)", m.Risk)
	}
	if math.Abs(m.SharpeRatio-2/math.Sqrt(6.2)) > 1e-9 {
		t.Fatalf("sharpe = %v", m.SharpeRatio)
	}
	wantRR := (1 - math.Sqrt(6.2)/math.Sqrt(10)) * 100
	if math.Abs(m.RiskReduction-wantRR) > 1e-9 {
		t.Fatalf("risk reduction = %v, want %v", m.RiskReduction, wantRR)
	}
	if math.Abs(m.WorstCase95-(2-1.645*math.Sqrt(6.2))) > 1e-9 {
		t.Fatalf("worst case = %v", m.WorstCase95)
	}
	// Only the second instrument has a negative average loss.
	if math.Abs(m.DownsideRisk-1) > 1e-12 {
		t.Fatalf("downside risk = %v, want 1", m.DownsideRisk)
	}
	if math.Abs(m.SortinoRatio-2) > 1e-12 {
		t.Fatalf("sortino = %v, want 2", m.SortinoRatio)
	}
}

func TestMetricsWeightsWinRate(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	stats := twoInstruments()
	stats[0].WinRate = 0.9
	stats[1].WinRate = 0.5

	m, err := a.Metrics(stats, []float64{0.75, 0.25})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if math.Abs(m.WinRate-0.8) > 1e-12 {
		t.Fatalf("win rate = %v, want 0.8", m.WinRate)
	}
}

func TestMetricsValidation(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	stats := twoInstruments()

	if _, err := a.Metrics(stats, []float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("mismatch: got %v", err)
	}
	if _, err := a.Metrics(stats, []float64{1.5, -0.5}); !errors.Is(err, ErrNegativeWeight) {
		t.Fatalf("negative: got %v", err)
	}
	if _, err := a.Metrics(stats, []float64{0.6, 0.6}); !errors.Is(err, ErrWeightSum) {
		t.Fatalf("sum: got %v", err)
	}
	if _, err := a.Metrics(nil, nil); !errors.Is(err, ErrTooFewInstruments) {
		t.Fatalf("empty: got %v", err)
	}
}

func TestOptimizeRiskPrefersLowVariance(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	w, err := a.Optimize(twoInstruments(), models.ObjectiveRisk)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	sum := 0.0
	for _, x := range w {
		if x < 0 || x > 1 {
			t.Fatalf("weight %v outside [0,1]", x)
		}
		sum += x
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("weights sum to %v", sum)
	}
	if w[0] <= 0.7 {
		t.Fatalf("low-variance weight = %v, want > 0.7", w[0])
	}
}

func TestOptimizeReturnConcentrates(t *testing.T) {
	stats := []models.InstrumentStats{
		{Code: "1001", ExpectedReturn: 1, WinRate: 0.5, AvgWinReturn: 3, AvgLoseReturn: -1},
		{Code: "1002", ExpectedReturn: 3, WinRate: 0.5, AvgWinReturn: 7, AvgLoseReturn: -1},
	}
	a := NewAllocator(DefaultConfig())
	w, err := a.Optimize(stats, models.ObjectiveReturn)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if w[1] < 0.99 {
		t.Fatalf("high-return weight = %v, want ~1", w[1])
	}
}

func TestOptimizeRequiresTwoInstruments(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	_, err := a.Optimize(twoInstruments()[:1], models.ObjectiveSharpe)
	if !errors.Is(err, ErrTooFewInstruments) {
		t.Fatalf("got %v, want ErrTooFewInstruments", err)
	}
}

func TestFrontierSortedByRisk(t *testing.T) {
	a := NewAllocator(DefaultConfig(), WithSeed(42))
	points, err := a.Frontier(twoInstruments(), 50)
	if err != nil {
		t.Fatalf("frontier: %v", err)
	}
	if len(points) != 50 {
		t.Fatalf("points = %d, want 50", len(points))
	}
	for i, p := range points {
		sum := 0.0
		for _, w := range p.Weights {
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("point %d weights sum to %v", i, sum)
		}
		if i > 0 && p.Risk < points[i-1].Risk {
			t.Fatalf("frontier not sorted at %d", i)
		}
	}
}

func TestSuggestAllocatesTotal(t *testing.T) {
	a := NewAllocator(DefaultConfig(), WithSeed(1))
	plan, err := a.Suggest(twoInstruments(), "1000000", "low")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if plan.Objective != models.ObjectiveRisk {
		t.Fatalf("objective = %v, want risk", plan.Objective)
	}

	sum := decimal.Zero
	for _, l := range plan.Lines {
		sum = sum.Add(l.Amount)
	}
	if !sum.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("allocated %s, want 1000000", sum)
	}
}

func TestSuggestFallsBackToEqualWeights(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	a.opt.MaxIter = 0 // force non-convergence

	plan, err := a.Suggest(twoInstruments(), "100", "medium")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !plan.EqualWeight {
		t.Fatal("expected equal-weight fallback")
	}
	for _, l := range plan.Lines {
		if math.Abs(l.Weight-0.5) > 1e-12 {
			t.Fatalf("weight = %v, want 0.5", l.Weight)
		}
	}
}

func TestSuggestRejectsBadAmount(t *testing.T) {
	a := NewAllocator(DefaultConfig())
	if _, err := a.Suggest(twoInstruments(), "not-a-number", "medium"); err == nil {
		t.Fatal("expected error for invalid amount")
	}
	if _, err := a.Suggest(twoInstruments(), "-5", "medium"); err == nil {
		t.Fatal("expected error for negative amount")
	}
}
