package analytics_test

import (
	"testing"

	"github.com/mkelcec/scalewatch/internal/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fp(v float64) *float64 {
	return &v
}

func TestRollingAverage_GapScenario(t *testing.T) {
	// five consecutive days, one missed weigh-in
	series := []*float64{fp(70), nil, fp(71), fp(69), fp(72)}

	out := analytics.RollingAverage(series, 3)
	require.Len(t, out, len(series))

	expected := []float64{70, 70, 70.33, 70, 70.67}
	for i, want := range expected {
		require.NotNilf(t, out[i], "index %d", i)
		assert.InDeltaf(t, want, *out[i], 0.005, "index %d", i)
	}
}

func TestRollingAverage_FullWindowEqualsMean(t *testing.T) {
	series := []*float64{fp(1), fp(2), fp(3), fp(4), fp(5), fp(6)}

	out := analytics.RollingAverage(series, 3)
	require.Len(t, out, 6)

	require.NotNil(t, out[5])
	assert.InDelta(t, 5, *out[5], 1e-9) // mean(4, 5, 6)
	require.NotNil(t, out[2])
	assert.InDelta(t, 2, *out[2], 1e-9) // mean(1, 2, 3)
}

func TestRollingAverage_WindowOfOne(t *testing.T) {
	series := []*float64{fp(80), fp(81), nil, fp(79)}

	out := analytics.RollingAverage(series, 1)
	require.Len(t, out, 4)
	assert.Equal(t, 80.0, *out[0])
	assert.Equal(t, 81.0, *out[1])
	assert.Nil(t, out[2], "window holds only the missed day")
	assert.Equal(t, 79.0, *out[3])
}

func TestRollingAverage_AllNil(t *testing.T) {
	out := analytics.RollingAverage([]*float64{nil, nil, nil}, 2)
	require.Len(t, out, 3)
	for i := range out {
		assert.Nilf(t, out[i], "index %d", i)
	}
}

func TestRollingAverage_LeadingNils(t *testing.T) {
	series := []*float64{nil, nil, fp(75), fp(77)}

	out := analytics.RollingAverage(series, 3)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1])
	require.NotNil(t, out[2])
	assert.InDelta(t, 75, *out[2], 1e-9)
	require.NotNil(t, out[3])
	assert.InDelta(t, 76, *out[3], 1e-9)
}

func TestRollingAverage_InvalidWindow(t *testing.T) {
	out := analytics.RollingAverage([]*float64{fp(70)}, 0)
	require.Len(t, out, 1)
	assert.Nil(t, out[0])
}

func TestRollingStdDev(t *testing.T) {
	series := []*float64{fp(1), fp(2), fp(3)}

	out := analytics.RollingStdDev(series, 3)
	require.Len(t, out, 3)
	assert.Nil(t, out[0], "one sample has no spread")
	require.NotNil(t, out[1])
	assert.InDelta(t, 0.7071, *out[1], 0.001)
	require.NotNil(t, out[2])
	assert.InDelta(t, 1, *out[2], 1e-9)
}

func TestRollingStdDev_ConstantSeriesIsZero(t *testing.T) {
	series := []*float64{fp(70), fp(70), fp(70), fp(70)}

	out := analytics.RollingStdDev(series, 3)
	require.NotNil(t, out[3])
	assert.Zero(t, *out[3])
}

func TestExponentialAverage_SeedAndHold(t *testing.T) {
	series := []*float64{nil, fp(70), nil, fp(71)}

	out := analytics.ExponentialAverage(series, 9) // alpha = 0.2
	assert.Nil(t, out[0], "nothing to smooth before the first value")
	require.NotNil(t, out[1])
	assert.Equal(t, 70.0, *out[1], "first value seeds the series")
	require.NotNil(t, out[2])
	assert.Equal(t, 70.0, *out[2], "gap holds the previous value")
	require.NotNil(t, out[3])
	assert.InDelta(t, 70.2, *out[3], 1e-9)
}

func TestExponentialAverage_ConstantSeriesStaysPut(t *testing.T) {
	series := []*float64{fp(82), fp(82), fp(82), fp(82), fp(82)}

	out := analytics.ExponentialAverage(series, 5)
	for i := range out {
		require.NotNilf(t, out[i], "index %d", i)
		assert.InDeltaf(t, 82, *out[i], 1e-9, "index %d", i)
	}
}

func TestDifferences(t *testing.T) {
	series := []*float64{fp(70), fp(70.5), nil, fp(71)}

	out := analytics.Differences(series)
	require.Len(t, out, 4)
	assert.Nil(t, out[0])
	require.NotNil(t, out[1])
	assert.InDelta(t, 0.5, *out[1], 1e-9)
	assert.Nil(t, out[2])
	assert.Nil(t, out[3], "change across a gap is not a daily change")
}

func TestWeeklyRate_LinearTrend(t *testing.T) {
	// smoothed series losing 0.1 per day
	series := make([]*float64, 15)
	for i := range series {
		series[i] = fp(80 - 0.1*float64(i))
	}

	out := analytics.WeeklyRate(series, 7)
	assert.Nil(t, out[0])
	require.NotNil(t, out[14])
	assert.InDelta(t, -0.7, *out[14], 1e-9)
	// early indexes use the span available so far
	require.NotNil(t, out[3])
	assert.InDelta(t, -0.7, *out[3], 1e-9)
}

func TestWeeklyRate_GapsYieldNil(t *testing.T) {
	series := []*float64{nil, fp(80), fp(80)}

	out := analytics.WeeklyRate(series, 7)
	assert.Nil(t, out[0])
	assert.Nil(t, out[1], "window start has no smoothed value")
	assert.Nil(t, out[2])
}
