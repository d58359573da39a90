package portfolio

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"YutaiScan/internal/domain/models"
)

// DefaultCorrelation is the assumed pairwise correlation between benefit
// instruments. Rights-month clustering makes them co-move more than
// independent names but far from perfectly.
const DefaultCorrelation = 0.3

var (
	ErrDimensionMismatch = errors.New("portfolio: stats and weights length differ")
	ErrNegativeWeight    = errors.New("portfolio: negative weight")
	ErrWeightSum         = errors.New("portfolio: weights must sum to 1")
	ErrTooFewInstruments = errors.New("portfolio: at least 2 instruments required")
	ErrBadAmount         = errors.New("portfolio: total amount must be a positive number")
)

// Config tunes the allocator.
type Config struct {
	Correlation  float64 // pairwise correlation assumption
	RiskFreeRate float64
}

func DefaultConfig() Config {
	return Config{Correlation: DefaultCorrelation}
}

// Allocator computes weighted portfolio metrics over best-offset
// instrument snapshots, optimizes weights for an objective, samples the
// efficient frontier, and turns weights into money allocations.
type Allocator struct {
	cfg Config
	opt *Optimizer
	rng *rand.Rand
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithSeed fixes the frontier RNG for reproducible sampling.
func WithSeed(seed int64) Option {
	return func(a *Allocator) {
		a.rng = rand.New(rand.NewSource(seed))
	}
}

func NewAllocator(cfg Config, opts ...Option) *Allocator {
	if cfg.Correlation == 0 {
		cfg.Correlation = DefaultCorrelation
	}
	a := &Allocator{
		cfg: cfg,
		opt: NewOptimizer(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// instrumentVariance is the two-point estimate from the win/lose split.
func instrumentVariance(s models.InstrumentStats) float64 {
	dw := s.AvgWinReturn - s.ExpectedReturn
	dl := s.AvgLoseReturn - s.ExpectedReturn
	return s.WinRate*dw*dw + (1-s.WinRate)*dl*dl
}

// Metrics validates the weights and computes the portfolio report.
func (a *Allocator) Metrics(stats []models.InstrumentStats, weights []float64) (*models.PortfolioMetrics, error) {
	if len(stats) == 0 {
		return nil, ErrTooFewInstruments
	}
	if len(stats) != len(weights) {
		return nil, ErrDimensionMismatch
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, ErrNegativeWeight
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("%w: got %v", ErrWeightSum, sum)
	}

	m := a.metrics(stats, weights)
	return &m, nil
}

// metrics computes the report without weight validation; the optimizer and
// frontier sampler call it with weights already on the simplex.
func (a *Allocator) metrics(stats []models.InstrumentStats, weights []float64) models.PortfolioMetrics {
	n := len(stats)
	variances := make([]float64, n)
	for i, s := range stats {
		variances[i] = instrumentVariance(s)
	}

	var m models.PortfolioMetrics
	for i, s := range stats {
		m.ExpectedReturn += weights[i] * s.ExpectedReturn
		m.WinRate += weights[i] * s.WinRate
	}

	for i := 0; i < n; i++ {
		m.Variance += weights[i] * weights[i] * variances[i]
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.Variance += weights[i] * weights[j] * a.cfg.Correlation *
				math.Sqrt(variances[i]) * math.Sqrt(variances[j])
		}
	}
	if m.Variance < 0 {
		m.Variance = 0
	}
	m.Risk = math.Sqrt(m.Variance)

	if m.Risk > 0 {
		m.SharpeRatio = (m.ExpectedReturn - a.cfg.RiskFreeRate) / m.Risk
	}

	avgVar := 0.0
	for _, v := range variances {
		avgVar += v
	}
	avgVar /= float64(n)
	if avgVar > 0 {
		m.RiskReduction = (1 - m.Risk/math.Sqrt(avgVar)) * 100
	}

	m.WorstCase95 = m.ExpectedReturn - 1.645*m.Risk

	downVar := 0.0
	for i, s := range stats {
		if s.AvgLoseReturn < 0 {
			downVar += weights[i] * weights[i] * s.AvgLoseReturn * s.AvgLoseReturn
		}
	}
	m.DownsideRisk = math.Sqrt(downVar)
	if m.DownsideRisk == 0 {
		m.DownsideRisk = m.Risk
	}
	if m.DownsideRisk > 0 {
		m.SortinoRatio = m.ExpectedReturn / m.DownsideRisk
	}

	m.Weights = append([]float64(nil), weights...)
	return m
}

// Optimize finds weights minimizing the chosen objective. Non-convergence
// surfaces as ErrNoConvergence so callers can fall back to equal weights.
func (a *Allocator) Optimize(stats []models.InstrumentStats, objective models.Objective) ([]float64, error) {
	if len(stats) < 2 {
		return nil, ErrTooFewInstruments
	}

	var f func([]float64) float64
	switch objective {
	case models.ObjectiveReturn:
		f = func(w []float64) float64 {
			return -a.metrics(stats, w).ExpectedReturn
		}
	case models.ObjectiveRisk:
		f = func(w []float64) float64 {
			return a.metrics(stats, w).Variance
		}
	case models.ObjectiveSharpe, "":
		f = func(w []float64) float64 {
			m := a.metrics(stats, w)
			if m.Risk < 1e-12 {
				return 0
			}
			return -(m.ExpectedReturn - a.cfg.RiskFreeRate) / m.Risk
		}
	default:
		return nil, fmt.Errorf("portfolio: unknown objective %q", objective)
	}

	w, err := a.opt.Minimize(f, EqualWeights(len(stats)))
	if err != nil {
		return nil, err
	}

	// Clean numeric residue and renormalize.
	sum := 0.0
	for i := range w {
		if w[i] < 1e-12 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		return nil, ErrNoConvergence
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}

// Frontier samples random portfolios and orders them by ascending risk.
func (a *Allocator) Frontier(stats []models.InstrumentStats, points int) ([]models.FrontierPoint, error) {
	if len(stats) < 2 {
		return nil, ErrTooFewInstruments
	}
	if points <= 0 {
		points = 1000
	}

	out := make([]models.FrontierPoint, 0, points)
	w := make([]float64, len(stats))
	for len(out) < points {
		sum := 0.0
		for i := range w {
			w[i] = a.rng.Float64()
			sum += w[i]
		}
		if sum == 0 {
			continue
		}
		for i := range w {
			w[i] /= sum
		}
		m := a.metrics(stats, w)
		out = append(out, models.FrontierPoint{
			Return:  m.ExpectedReturn,
			Risk:    m.Risk,
			Sharpe:  m.SharpeRatio,
			Weights: append([]float64(nil), w...),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Risk < out[j].Risk })
	return out, nil
}

// Suggest maps risk tolerance to an objective, optimizes, and splits the
// total amount accordingly. Optimizer failure degrades to equal weights.
func (a *Allocator) Suggest(stats []models.InstrumentStats, total string, riskTolerance string) (*models.AllocationPlan, error) {
	if len(stats) < 2 {
		return nil, ErrTooFewInstruments
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadAmount, total)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrBadAmount, amount)
	}

	var objective models.Objective
	switch riskTolerance {
	case "low":
		objective = models.ObjectiveRisk
	case "high":
		objective = models.ObjectiveReturn
	default:
		objective = models.ObjectiveSharpe
	}

	plan := &models.AllocationPlan{Objective: objective, Total: amount}
	weights, err := a.Optimize(stats, objective)
	if err != nil {
		if !errors.Is(err, ErrNoConvergence) {
			return nil, err
		}
		weights = EqualWeights(len(stats))
		plan.EqualWeight = true
	}
	plan.Metrics = a.metrics(stats, weights)

	// Round per-line amounts to cents; the last line absorbs the residue so
	// the lines always sum to the total.
	allocated := decimal.Zero
	for i, s := range stats {
		line := models.AllocationLine{Code: s.Code, Name: s.Name, Weight: weights[i]}
		if i == len(stats)-1 {
			line.Amount = amount.Sub(allocated)
		} else {
			line.Amount = amount.Mul(decimal.NewFromFloat(weights[i])).Round(2)
			allocated = allocated.Add(line.Amount)
		}
		plan.Lines = append(plan.Lines, line)
	}
	return plan, nil
}

// EqualWeights is the uniform allocation over n instruments.
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}
