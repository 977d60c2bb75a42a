package analytics_test

import (
	"testing"
	"time"

	"github.com/mkelcec/scalewatch/internal/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regressionPoints(start time.Time, values ...float64) []analytics.DataPoint {
	points := make([]analytics.DataPoint, len(values))
	for i, v := range values {
		points[i] = analytics.DataPoint{
			Date:  start.AddDate(0, 0, i),
			Value: v,
		}
	}
	return points
}

func TestRegression_CollinearPoints(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// y = -0.25x + 80, exactly
	points := regressionPoints(start, 80, 79.75, 79.5, 79.25, 79, 78.75)

	result := analytics.Regression(points, 0.05, analytics.GonumStats{})
	require.NotNil(t, result)

	assert.InDelta(t, -0.25, result.Slope, 1e-9)
	assert.InDelta(t, 80, result.Intercept, 1e-9)
	assert.False(t, result.CIApproximate)
	require.Len(t, result.Points, len(points))

	for i, p := range result.Points {
		assert.InDeltaf(t, points[i].Value, p.RegressionValue, 1e-9, "index %d", i)
		// zero residual means zero interval width
		require.NotNil(t, p.LowerCI)
		require.NotNil(t, p.UpperCI)
		assert.InDeltaf(t, p.RegressionValue, *p.LowerCI, 1e-9, "index %d", i)
		assert.InDeltaf(t, p.RegressionValue, *p.UpperCI, 1e-9, "index %d", i)
	}
}

func TestRegression_TooFewPointsForCI(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, points := range [][]analytics.DataPoint{
		regressionPoints(start, 80),
		regressionPoints(start, 80, 79),
	} {
		result := analytics.Regression(points, 0.05, analytics.GonumStats{})
		require.NotNil(t, result)
		require.Len(t, result.Points, len(points))
		for _, p := range result.Points {
			assert.Nil(t, p.LowerCI)
			assert.Nil(t, p.UpperCI)
		}
	}
}

func TestRegression_TwoPointsFitExactly(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := regressionPoints(start, 80, 78)

	result := analytics.Regression(points, 0.05, analytics.GonumStats{})
	require.NotNil(t, result)
	assert.InDelta(t, -2, result.Slope, 1e-9)
	assert.InDelta(t, 80, result.Points[0].RegressionValue, 1e-9)
	assert.InDelta(t, 78, result.Points[1].RegressionValue, 1e-9)
}

func TestRegression_EmptyInput(t *testing.T) {
	assert.Nil(t, analytics.Regression(nil, 0.05, analytics.GonumStats{}))
}

func TestRegression_AllSameDay(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := []analytics.DataPoint{
		{Date: day, Value: 80},
		{Date: day, Value: 82},
		{Date: day, Value: 81},
	}

	result := analytics.Regression(points, 0.05, analytics.GonumStats{})
	require.NotNil(t, result)
	assert.Zero(t, result.Slope, "slope undefined when all x are equal")
	assert.InDelta(t, 81, result.Intercept, 1e-9)
	for _, p := range result.Points {
		assert.InDelta(t, 81, p.RegressionValue, 1e-9)
		assert.Nil(t, p.LowerCI)
		assert.Nil(t, p.UpperCI)
	}
}

func TestRegression_NoisyDataGetsBands(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := regressionPoints(start, 80.2, 79.7, 80.1, 79.3, 79.6, 79.0, 79.2, 78.8)

	result := analytics.Regression(points, 0.05, analytics.GonumStats{})
	require.NotNil(t, result)
	assert.Negative(t, result.Slope)

	for _, p := range result.Points {
		require.NotNil(t, p.LowerCI)
		require.NotNil(t, p.UpperCI)
		assert.Less(t, *p.LowerCI, p.RegressionValue)
		assert.Greater(t, *p.UpperCI, p.RegressionValue)
	}

	// band is narrowest at the mean of x
	mid := result.Points[3]
	edge := result.Points[0]
	assert.Less(t, *mid.UpperCI-*mid.LowerCI, *edge.UpperCI-*edge.LowerCI)
}

func TestRegression_FallbackProviderMarksApproximation(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := regressionPoints(start, 80, 79.5, 79.4, 79.1, 78.6)

	fallback := analytics.Regression(points, 0.05, analytics.FallbackStats{})
	require.NotNil(t, fallback)
	assert.True(t, fallback.CIApproximate)

	production := analytics.Regression(points, 0.05, analytics.GonumStats{})
	require.NotNil(t, production)
	assert.False(t, production.CIApproximate)

	// with df = 3 the real t quantile is wider than the normal 1.96,
	// so the fallback understates the interval
	assert.Less(t,
		*fallback.Points[0].UpperCI-*fallback.Points[0].LowerCI,
		*production.Points[0].UpperCI-*production.Points[0].LowerCI,
	)
}
