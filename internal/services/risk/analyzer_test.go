package risk

import (
	"math"
	"reflect"
	"testing"
	"time"

	"YutaiScan/internal/domain/models"
)

func trade(year int, r float64) models.Trade {
	return models.Trade{Date: time.Date(year, time.March, 10, 0, 0, 0, 0, time.UTC), ReturnPct: r}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	win := []models.Trade{trade(2015, 2.5), trade(2017, 4.0), trade(2018, 1.2)}
	lose := []models.Trade{trade(2016, -3.0), trade(2019, -0.5)}

	m1 := a.Analyze(win, lose)
	m2 := a.Analyze(win, lose)
	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("analyze not idempotent:\n%+v\n%+v", m1, m2)
	}
	if m1.SampleSize != 5 {
		t.Fatalf("sample size = %d, want 5", m1.SampleSize)
	}
}

func TestDrawdown(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	win := []models.Trade{trade(2015, 10), trade(2018, 20)}
	lose := []models.Trade{trade(2016, -10), trade(2017, -10)}

	m := a.Analyze(win, lose)
	// Path 1.1 -> 0.99 -> 0.891 -> 1.0692 against a 1.1 peak.
	approx(t, "max drawdown", m.Drawdown.MaxDrawdown, -19.0, 1e-9)
	approx(t, "current drawdown", m.Drawdown.CurrentDrawdown, -2.8, 1e-9)
	// Peak 2015-03-10, trough 2017-03-10; 2016 is a leap year.
	if m.Drawdown.DurationDays != 731 {
		t.Fatalf("duration = %d days, want 731", m.Drawdown.DurationDays)
	}
}

func TestDrawdownNeedsTwoTrades(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	m := a.Analyze([]models.Trade{trade(2015, 5)}, nil)
	if m.Drawdown != (models.DrawdownMetrics{}) {
		t.Fatalf("single trade drawdown = %+v, want zeros", m.Drawdown)
	}
}

func TestValueAtRisk(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	var win, lose []models.Trade
	for i, r := range []float64{-5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5} {
		if r > 0 {
			win = append(win, trade(2000+i, r))
		} else {
			lose = append(lose, trade(2000+i, r))
		}
	}

	m := a.Analyze(win, lose)
	approx(t, "VaR95", m.VaR.VaR95, -4.5, 1e-9)
	approx(t, "VaR99", m.VaR.VaR99, -4.9, 1e-9)
	approx(t, "CVaR95", m.VaR.CVaR95, -5.0, 1e-9)
	approx(t, "CVaR99", m.VaR.CVaR99, -5.0, 1e-9)
}

func TestTailMeanFallsBackToThreshold(t *testing.T) {
	got := tailMean([]float64{1, 2, 3}, -10)
	approx(t, "tail mean", got, -10, 0)
}

func TestSortino(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	m := a.Analyze([]models.Trade{trade(2015, 2)},
		[]models.Trade{trade(2016, -1), trade(2017, -3)})
	if m.NoDownsideRisk {
		t.Fatal("downside exists, flag must be false")
	}
	// mean -2/3, downside deviation 1.
	approx(t, "sortino", m.SortinoRatio, -2.0/3.0*math.Sqrt(252), 1e-9)

	m = a.Analyze([]models.Trade{trade(2015, 1), trade(2016, 2)}, nil)
	if !m.NoDownsideRisk {
		t.Fatal("no losing trades, flag must be set")
	}
	if m.SortinoRatio != 0 {
		t.Fatalf("unbounded sortino reported as %v, want 0", m.SortinoRatio)
	}
}

func TestCalmarZeroWhenNoDrawdown(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	m := a.Analyze([]models.Trade{trade(2015, 1), trade(2016, 2), trade(2017, 3)}, nil)
	if m.CalmarRatio != 0 {
		t.Fatalf("calmar = %v, want 0 on flat drawdown", m.CalmarRatio)
	}
}

func TestStreaks(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	seq := []float64{1, 2, -1, 1, 1, 1, -2, -2}
	var win, lose []models.Trade
	for i, r := range seq {
		tr := trade(2000+i, r)
		if r > 0 {
			win = append(win, tr)
		} else {
			lose = append(lose, tr)
		}
	}

	m := a.Analyze(win, lose)
	s := m.Streaks
	if s.MaxWinStreak != 3 || s.MaxLoseStreak != 2 {
		t.Fatalf("max streaks = %d/%d, want 3/2", s.MaxWinStreak, s.MaxLoseStreak)
	}
	approx(t, "avg win streak", s.AvgWinStreak, 2.5, 1e-12)
	approx(t, "avg lose streak", s.AvgLoseStreak, 1.5, 1e-12)
	if s.CurrentStreak != 2 || s.CurrentType != "lose" {
		t.Fatalf("current streak = %d %q, want 2 lose", s.CurrentStreak, s.CurrentType)
	}
}

func TestEmptySample(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	m := a.Analyze(nil, nil)
	if m.SampleSize != 0 {
		t.Fatalf("sample size = %d, want 0", m.SampleSize)
	}
	if m.Streaks.CurrentType != "" {
		t.Fatalf("current type = %q, want empty", m.Streaks.CurrentType)
	}
}
