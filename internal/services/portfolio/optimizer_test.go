package portfolio

import (
	"math"
	"testing"
)

func TestProjectSimplex(t *testing.T) {
	cases := []struct {
		in, want []float64
	}{
		{[]float64{0.2, 0.8}, []float64{0.2, 0.8}},
		{[]float64{2, 0}, []float64{1, 0}},
		{[]float64{0.5, 0.5, 2}, []float64{0, 0, 1}},
		{[]float64{-1, -1}, []float64{0.5, 0.5}},
	}
	for _, c := range cases {
		v := append([]float64(nil), c.in...)
		projectSimplex(v)
		for i := range v {
			if math.Abs(v[i]-c.want[i]) > 1e-9 {
				t.Fatalf("project(%v) = %v, want %v", c.in, v, c.want)
			}
		}
	}
}

func TestMinimizeQuadratic(t *testing.T) {
	target := []float64{0.7, 0.2, 0.1}
	f := func(w []float64) float64 {
		s := 0.0
		for i := range w {
			d := w[i] - target[i]
			s += d * d
		}
		return s
	}

	o := NewOptimizer()
	w, err := o.Minimize(f, EqualWeights(3))
	if err != nil {
		t.Fatalf("minimize: %v", err)
	}
	for i := range w {
		if math.Abs(w[i]-target[i]) > 1e-3 {
			t.Fatalf("w = %v, want %v", w, target)
		}
	}
}

func TestMinimizeExhaustedIterations(t *testing.T) {
	o := &Optimizer{MaxIter: 0, Tol: 1e-10}
	if _, err := o.Minimize(func(w []float64) float64 { return w[0] }, EqualWeights(2)); err != ErrNoConvergence {
		t.Fatalf("got %v, want ErrNoConvergence", err)
	}
}
