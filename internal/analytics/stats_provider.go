package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// fallbackTQuantile approximates the two-tailed 95% quantile of the
// Student's t distribution with the normal one. Exact only for large df;
// for small df it understates the interval, which is why results computed
// with it carry the CIApproximate flag.
const fallbackTQuantile = 1.96

// StatsProvider is the statistics dependency of the engine. It is chosen
// once at construction, never probed at call time.
type StatsProvider interface {
	Mean(values []float64) float64
	StdDev(values []float64) float64
	Correlation(x, y []float64) float64
	// TQuantile returns the p-quantile of the Student's t distribution
	// with df degrees of freedom. df must be positive.
	TQuantile(p float64, df int) float64
	// ApproximateQuantiles reports whether TQuantile is an approximation.
	ApproximateQuantiles() bool
}

// GonumStats is the production StatsProvider.
type GonumStats struct{}

func (GonumStats) Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func (GonumStats) StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

func (GonumStats) Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}

func (GonumStats) TQuantile(p float64, df int) float64 {
	if df <= 0 {
		return fallbackTQuantile
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return t.Quantile(p)
}

func (GonumStats) ApproximateQuantiles() bool { return false }

// FallbackStats is the deterministic StatsProvider used when the real
// statistics dependency is not wanted (tests, constrained builds). Its
// quantile is the documented normal approximation.
type FallbackStats struct{}

func (FallbackStats) Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (f FallbackStats) StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := f.Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func (f FallbackStats) Correlation(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0
	}
	meanX, meanY := f.Mean(x), f.Mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

func (FallbackStats) TQuantile(_ float64, _ int) float64 {
	return fallbackTQuantile
}

func (FallbackStats) ApproximateQuantiles() bool { return true }
