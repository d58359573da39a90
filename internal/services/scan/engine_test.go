package scan

import (
	"math"
	"testing"
	"time"

	"YutaiScan/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// yearlyBars builds ten years of synthetic history. Each year contributes
// eight March bars followed by three April bars, so the last March bar is a
// month-end confirmation day and, with kenrlast=2, the rights-cutoff day
// lands on the sixth March bar of every year.
func yearlyBars(march [8]float64, april [3]float64, years int) []models.PriceBar {
	var bars []models.PriceBar
	for y := 0; y < years; y++ {
		for i, c := range march {
			bars = append(bars, models.PriceBar{Code: "7412", Date: day(2015+y, time.March, 1+i), Close: c})
		}
		for i, c := range april {
			bars = append(bars, models.PriceBar{Code: "7412", Date: day(2015+y, time.April, 1+i), Close: c})
		}
	}
	return bars
}

func TestScanFindsBestOffset(t *testing.T) {
	// Price dips three trading days before the rights day every year, so
	// offset 3 carries the largest expected return at a perfect win rate.
	bars := yearlyBars(
		[8]float64{100, 100, 90, 100, 104, 110, 111, 112},
		[3]float64{100, 100, 100},
		10,
	)
	e := NewEngine(Config{MaxOffset: 5, MinTradeCount: 3, Kenrlast: 2})

	res := e.Scan(bars, 3)
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	if res.OptimalOffset != 3 {
		t.Fatalf("optimal offset = %d, want 3", res.OptimalOffset)
	}
	if res.Best.WinRate != 1.0 {
		t.Fatalf("win rate = %v, want 1.0", res.Best.WinRate)
	}
	if res.Best.TotalCount != 10 {
		t.Fatalf("total count = %d, want 10", res.Best.TotalCount)
	}
	if len(res.WinTrades) != 10 || len(res.LoseTrades) != 0 {
		t.Fatalf("trades = %d win / %d lose, want 10/0", len(res.WinTrades), len(res.LoseTrades))
	}
	if len(res.AllOffsets) != 5 {
		t.Fatalf("recorded offsets = %d, want 5", len(res.AllOffsets))
	}
	for i := 1; i < len(res.AllOffsets); i++ {
		if res.AllOffsets[i].Score() > res.AllOffsets[i-1].Score() {
			t.Fatalf("offsets not ordered by descending score at %d", i)
		}
	}

	// First year's trade: bought the March 3 dip at 90, exited the March 6
	// rights-day close at 110.
	tr := res.WinTrades[0]
	if !tr.EntryDate.Equal(day(2015, time.March, 3)) || !tr.Date.Equal(day(2015, time.March, 6)) {
		t.Fatalf("trade dates = %v -> %v", tr.EntryDate, tr.Date)
	}
	if tr.EntryPrice != 90 || tr.ExitPrice != 110 {
		t.Fatalf("trade prices = %v -> %v, want 90 -> 110", tr.EntryPrice, tr.ExitPrice)
	}
}

func TestScanTieBreaksTowardSmallerOffset(t *testing.T) {
	// Flat series except the rights-day close: every offset yields the same
	// return, so the smallest offset must win.
	bars := yearlyBars(
		[8]float64{100, 100, 100, 100, 100, 110, 100, 100},
		[3]float64{100, 100, 100},
		10,
	)
	e := NewEngine(Config{MaxOffset: 5, MinTradeCount: 3, Kenrlast: 2})

	res := e.Scan(bars, 3)
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	if res.OptimalOffset != 1 {
		t.Fatalf("optimal offset = %d, want 1", res.OptimalOffset)
	}
}

func TestScanSkipsEntriesBeforeSeriesStart(t *testing.T) {
	bars := yearlyBars(
		[8]float64{100, 100, 90, 100, 104, 110, 111, 112},
		[3]float64{100, 100, 100},
		10,
	)
	e := NewEngine(Config{MaxOffset: 6, MinTradeCount: 3, Kenrlast: 2})

	res := e.Scan(bars, 3)
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	for _, s := range res.AllOffsets {
		want := 10
		if s.Offset == 6 {
			// The first year's rights day sits at index 5; offset 6 cannot
			// reach an entry bar there.
			want = 9
		}
		if s.TotalCount != want {
			t.Fatalf("offset %d total count = %d, want %d", s.Offset, s.TotalCount, want)
		}
	}
}

func TestScanInsufficientHistory(t *testing.T) {
	e := NewEngine(DefaultConfig())

	if res := e.Scan(nil, 3); res != nil {
		t.Fatalf("empty series: got %+v, want nil", res)
	}

	// Two years of history leaves every offset below the three-sample floor.
	bars := yearlyBars(
		[8]float64{100, 100, 90, 100, 104, 110, 111, 112},
		[3]float64{100, 100, 100},
		2,
	)
	if res := e.Scan(bars, 3); res != nil {
		t.Fatalf("two samples: got %+v, want nil", res)
	}
}

func TestScanFiltersRightsMonth(t *testing.T) {
	bars := yearlyBars(
		[8]float64{100, 100, 90, 100, 104, 110, 111, 112},
		[3]float64{100, 100, 100},
		10,
	)
	e := NewEngine(DefaultConfig())

	if res := e.Scan(bars, 9); res != nil {
		t.Fatalf("no september rights days: got %+v, want nil", res)
	}
}

func TestBuildStatisticsExpectedReturn(t *testing.T) {
	wins := []float64{3.0, 2.5, 3.1, 2.6, 2.9}
	losses := []float64{-1.0, -2.0, -1.6}

	var win, lose []models.Trade
	for i, r := range wins {
		win = append(win, models.Trade{Date: day(2015+i, time.March, 10), ReturnPct: r})
	}
	for i, r := range losses {
		lose = append(lose, models.Trade{Date: day(2020+i, time.March, 10), ReturnPct: r})
	}

	s := buildStatistics(7, win, lose)
	if s.WinRate != 0.625 {
		t.Fatalf("win rate = %v, want 0.625", s.WinRate)
	}
	if math.Abs(s.AvgWinReturn-2.82) > 1e-12 {
		t.Fatalf("avg win = %v, want 2.82", s.AvgWinReturn)
	}
	if math.Abs(s.MaxLoseReturn-(-2.0)) > 1e-12 {
		t.Fatalf("max lose = %v, want -2.0", s.MaxLoseReturn)
	}

	want := s.AvgWinReturn*s.WinRate + s.AvgLoseReturn*(1-s.WinRate)
	if math.Abs(s.ExpectedReturn-want) > 1e-12 {
		t.Fatalf("expected return identity broken: %v vs %v", s.ExpectedReturn, want)
	}
	if math.Abs(s.ExpectedReturn-1.1875) > 1e-9 {
		t.Fatalf("expected return = %v, want 1.1875", s.ExpectedReturn)
	}
}
