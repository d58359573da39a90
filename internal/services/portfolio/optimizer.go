package portfolio

import (
	"errors"
	"math"
	"sort"
)

// ErrNoConvergence reports that the optimizer ran out of iterations before
// reaching a stationary point. Callers fall back to equal weights.
var ErrNoConvergence = errors.New("portfolio: optimizer did not converge")

// Optimizer minimizes a smooth objective over the probability simplex
// (weights non-negative, summing to one) with projected gradient descent
// and numeric gradients.
type Optimizer struct {
	MaxIter int
	Tol     float64
}

func NewOptimizer() *Optimizer {
	return &Optimizer{MaxIter: 1000, Tol: 1e-10}
}

// Minimize runs descent from x0, which must already lie on the simplex.
func (o *Optimizer) Minimize(f func([]float64) float64, x0 []float64) ([]float64, error) {
	x := append([]float64(nil), x0...)
	fx := f(x)
	step := 0.1

	for iter := 0; iter < o.MaxIter; iter++ {
		g := numericGradient(f, x)
		if vectorNorm(g) < o.Tol {
			return x, nil
		}

		improved := false
		for ls := 0; ls < 40; ls++ {
			cand := make([]float64, len(x))
			for i := range x {
				cand[i] = x[i] - step*g[i]
			}
			projectSimplex(cand)
			fc := f(cand)
			if fc < fx-o.Tol {
				x, fx = cand, fc
				improved = true
				step *= 1.5
				break
			}
			step *= 0.5
		}
		if !improved {
			// No descent direction on the simplex: stationary point.
			return x, nil
		}
	}
	return nil, ErrNoConvergence
}

func numericGradient(f func([]float64) float64, x []float64) []float64 {
	const h = 1e-7
	g := make([]float64, len(x))
	probe := append([]float64(nil), x...)
	for i := range x {
		probe[i] = x[i] + h
		fp := f(probe)
		probe[i] = x[i] - h
		fm := f(probe)
		probe[i] = x[i]
		g[i] = (fp - fm) / (2 * h)
	}
	return g
}

func vectorNorm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// projectSimplex replaces v in place with its Euclidean projection onto
// {w : w_i >= 0, sum w_i = 1}.
func projectSimplex(v []float64) {
	n := len(v)
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	cum := 0.0
	theta := 0.0
	for j := 0; j < n; j++ {
		cum += u[j]
		t := (cum - 1) / float64(j+1)
		if u[j]-t > 0 {
			theta = t
		}
	}
	for i := range v {
		if w := v[i] - theta; w > 0 {
			v[i] = w
		} else {
			v[i] = 0
		}
	}
}
