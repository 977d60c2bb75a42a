package analytics

import (
	"math"
	"time"
)

// DataPoint is one (date, value) observation fed into the regression.
type DataPoint struct {
	Date  time.Time
	Value float64
}

// Regression fits ordinary least squares on (days since first point,
// value), points pre-sorted ascending by date. The confidence band around
// the mean response uses the t quantile at 1−alpha/2 from the given
// StatsProvider. Degenerate input (fewer than two points, or all x equal)
// still yields fitted values but nil CI fields, as does df ≤ 0.
func Regression(points []DataPoint, alpha float64, stats StatsProvider) *RegressionResult {
	n := len(points)
	if n == 0 {
		return nil
	}

	x := make([]float64, n)
	y := make([]float64, n)
	first := points[0].Date
	for i, p := range points {
		x[i] = daysBetween(first, p.Date)
		y[i] = p.Value
	}

	meanX := stats.Mean(x)
	meanY := stats.Mean(y)

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}

	slopeDefined := sxx > 0
	var slope float64
	if slopeDefined {
		slope = sxy / sxx
	}
	intercept := meanY - slope*meanX

	result := &RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		Points:    make([]RegressionPoint, n),
	}
	for i, p := range points {
		result.Points[i] = RegressionPoint{
			Date:            p.Date,
			RegressionValue: intercept + slope*x[i],
		}
	}

	df := n - 2
	if df <= 0 || !slopeDefined {
		return result
	}

	var rss float64
	for i := range y {
		r := y[i] - result.Points[i].RegressionValue
		rss += r * r
	}
	see := math.Sqrt(rss / float64(df))

	tq := stats.TQuantile(1-alpha/2, df)
	result.CIApproximate = stats.ApproximateQuantiles()

	for i := range result.Points {
		dx := x[i] - meanX
		se := see * math.Sqrt(1/float64(n)+dx*dx/sxx)
		margin := tq * se
		lower := result.Points[i].RegressionValue - margin
		upper := result.Points[i].RegressionValue + margin
		result.Points[i].LowerCI = &lower
		result.Points[i].UpperCI = &upper
	}

	return result
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}
