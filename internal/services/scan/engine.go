package scan

import (
	"sort"
	"time"

	"YutaiScan/internal/domain/models"
	"YutaiScan/pkg/util"
)

// Config bounds the offset scan.
type Config struct {
	MaxOffset     int // largest days-before offset to test
	MinTradeCount int // minimum samples for an offset to be recorded
	Kenrlast      int // trading-day lag between rights day and month end
}

// DefaultConfig mirrors the standard scan settings.
func DefaultConfig() Config {
	return Config{MaxOffset: 120, MinTradeCount: 3, Kenrlast: 2}
}

// Engine scans a daily price series for the historically best buy offset
// ahead of the recurring rights-cutoff day.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.MaxOffset <= 0 {
		cfg.MaxOffset = 120
	}
	if cfg.MinTradeCount <= 0 {
		cfg.MinTradeCount = 3
	}
	if cfg.Kenrlast <= 0 {
		cfg.Kenrlast = 2
	}
	return &Engine{cfg: cfg}
}

// rightsDays returns indexes of rights-cutoff bars: bar i qualifies when the
// bar Kenrlast positions later is a month-end confirmation day. A bar
// confirms a month end when the following bar belongs to a different
// calendar month; the final bar never confirms.
func (e *Engine) rightsDays(bars []models.PriceBar) []int {
	monthEnd := make([]bool, len(bars))
	for i := 0; i+1 < len(bars); i++ {
		monthEnd[i] = !util.SameMonth(bars[i].Date, bars[i+1].Date)
	}

	var idx []int
	for i := 0; i+e.cfg.Kenrlast < len(bars); i++ {
		if monthEnd[i+e.cfg.Kenrlast] {
			idx = append(idx, i)
		}
	}
	return idx
}

type offsetPopulation struct {
	stats models.OffsetStatistics
	win   []models.Trade
	lose  []models.Trade
}

// Scan tests every offset in [1, MaxOffset] against rights days falling in
// rightsMonth and returns the offset maximizing expected_return*win_rate.
// Offsets with fewer than MinTradeCount samples are dropped; nil means the
// series has no qualifying offset (insufficient history, not an error).
func (e *Engine) Scan(bars []models.PriceBar, rightsMonth int) *models.OptimalTimingResult {
	if len(bars) == 0 {
		return nil
	}

	anchors := make([]int, 0)
	for _, i := range e.rightsDays(bars) {
		if int(bars[i].Date.Month()) == rightsMonth {
			anchors = append(anchors, i)
		}
	}
	if len(anchors) == 0 {
		return nil
	}

	pops := make([]offsetPopulation, 0, e.cfg.MaxOffset)
	for d := 1; d <= e.cfg.MaxOffset; d++ {
		var win, lose []models.Trade
		for _, i := range anchors {
			if i < d {
				continue // entry bar predates the series
			}
			entry := bars[i-d].Close
			if entry <= 0 {
				continue
			}
			r := (bars[i].Close - entry) / entry * 100
			t := models.Trade{
				Date:       bars[i].Date,
				EntryDate:  bars[i-d].Date,
				EntryPrice: entry,
				ExitPrice:  bars[i].Close,
				ReturnPct:  r,
			}
			if r > 0 {
				win = append(win, t)
			} else {
				lose = append(lose, t)
			}
		}
		if len(win)+len(lose) < e.cfg.MinTradeCount {
			continue
		}
		pops = append(pops, offsetPopulation{
			stats: buildStatistics(d, win, lose),
			win:   win,
			lose:  lose,
		})
	}
	if len(pops) == 0 {
		return nil
	}

	// Stable sort over ascending offsets keeps the smallest offset on score
	// ties.
	sort.SliceStable(pops, func(a, b int) bool {
		return pops[a].stats.Score() > pops[b].stats.Score()
	})

	all := make([]models.OffsetStatistics, len(pops))
	for i, p := range pops {
		all[i] = p.stats
	}
	best := pops[0]

	return &models.OptimalTimingResult{
		Code:          bars[0].Code,
		RightsMonth:   rightsMonth,
		OptimalOffset: best.stats.Offset,
		Best:          best.stats,
		AllOffsets:    all,
		WinTrades:     best.win,
		LoseTrades:    best.lose,
		GeneratedAt:   time.Now(),
	}
}

func buildStatistics(offset int, win, lose []models.Trade) models.OffsetStatistics {
	s := models.OffsetStatistics{
		Offset:     offset,
		WinCount:   len(win),
		LoseCount:  len(lose),
		TotalCount: len(win) + len(lose),
	}
	s.WinRate = float64(s.WinCount) / float64(s.TotalCount)

	for i, t := range win {
		s.AvgWinReturn += t.ReturnPct
		if i == 0 || t.ReturnPct > s.MaxWinReturn {
			s.MaxWinReturn = t.ReturnPct
		}
	}
	if s.WinCount > 0 {
		s.AvgWinReturn /= float64(s.WinCount)
	}

	for i, t := range lose {
		s.AvgLoseReturn += t.ReturnPct
		if i == 0 || t.ReturnPct < s.MaxLoseReturn {
			s.MaxLoseReturn = t.ReturnPct
		}
	}
	if s.LoseCount > 0 {
		s.AvgLoseReturn /= float64(s.LoseCount)
	}

	s.ExpectedReturn = s.AvgWinReturn*s.WinRate + s.AvgLoseReturn*(1-s.WinRate)
	return s
}
