package analytics_test

import (
	"testing"
	"time"

	"github.com/mkelcec/scalewatch/internal/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRecords(start time.Time, weights []*float64) []analytics.DailyRecord {
	records := make([]analytics.DailyRecord, len(weights))
	for i := range weights {
		records[i] = analytics.DailyRecord{
			Date:   start.AddDate(0, 0, i),
			Weight: weights[i],
		}
	}
	return records
}

func TestProcess_SortsAndDeduplicates(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := []analytics.DailyRecord{
		{Date: start.AddDate(0, 0, 2), Weight: fp(71)},
		{Date: start, Weight: fp(70)},
		{Date: start.AddDate(0, 0, 1), Weight: fp(70.5)},
		{Date: start, Weight: fp(69.5)}, // duplicate day, later entry wins
	}

	out := analytics.Process(records, analytics.DefaultConfig())
	require.Len(t, out, 3)
	assert.Equal(t, start, out[0].Date)
	assert.Equal(t, 69.5, *out[0].Weight)
	assert.True(t, out[0].Date.Before(out[1].Date))
	assert.True(t, out[1].Date.Before(out[2].Date))
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := rawRecords(start, []*float64{fp(70), fp(70.2), fp(70.4)})

	_ = analytics.Process(records, analytics.DefaultConfig())

	for i, r := range records {
		assert.Nilf(t, r.SMA, "input record %d gained a derived field", i)
		assert.Nilf(t, r.EMA, "input record %d gained a derived field", i)
	}
}

func TestProcess_DerivedFields(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	weights := make([]*float64, 30)
	for i := range weights {
		weights[i] = fp(80 - 0.05*float64(i))
	}

	out := analytics.Process(rawRecords(start, weights), analytics.DefaultConfig())
	require.Len(t, out, 30)

	last := out[29]
	require.NotNil(t, last.SMA)
	require.NotNil(t, last.EMA)
	require.NotNil(t, last.StdDev)
	require.NotNil(t, last.LowerBound)
	require.NotNil(t, last.UpperBound)
	require.NotNil(t, last.SmoothedWeeklyRate)
	assert.Less(t, *last.LowerBound, *last.SMA)
	assert.Greater(t, *last.UpperBound, *last.SMA)
	assert.InDelta(t, -0.35, *last.SmoothedWeeklyRate, 0.01)
	assert.False(t, last.IsOutlier)
}

func TestProcess_FlagsOutlier(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	weights := []*float64{
		fp(80), fp(80.1), fp(79.9), fp(80), fp(80.1),
		fp(90), // scale misread
		fp(80), fp(80.1), fp(79.9),
	}

	out := analytics.Process(rawRecords(start, weights), analytics.DefaultConfig())

	flagged := 0
	for _, r := range out {
		if r.IsOutlier {
			flagged++
			assert.Equal(t, 90.0, *r.Weight)
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestProcess_TDEEFromIntakeAndRate(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := make([]analytics.DailyRecord, 21)
	for i := range records {
		records[i] = analytics.DailyRecord{
			Date:          start.AddDate(0, 0, i),
			Weight:        fp(80 - 0.1*float64(i)),
			CalorieIntake: fp(2000),
			Expenditure:   fp(2600),
		}
	}

	out := analytics.Process(records, analytics.DefaultConfig())

	last := out[20]
	require.NotNil(t, last.AdaptiveTDEE)
	// steady -0.7/week on 2000 kcal puts TDEE near 2770; the EMA lag
	// keeps the estimate slightly under it
	assert.InDelta(t, 2770, *last.AdaptiveTDEE, 40)
	require.NotNil(t, last.TDEEDifference)
	assert.InDelta(t, *last.AdaptiveTDEE-2600, *last.TDEEDifference, 1e-9)
}

func TestRegressionPoints_SkipsOutliersAndGaps(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := []analytics.DailyRecord{
		{Date: start, Weight: fp(80)},
		{Date: start.AddDate(0, 0, 1)},
		{Date: start.AddDate(0, 0, 2), Weight: fp(90), IsOutlier: true},
		{Date: start.AddDate(0, 0, 3), Weight: fp(79.8)},
	}

	points := analytics.RegressionPoints(records)
	require.Len(t, points, 2)
	assert.Equal(t, 80.0, points[0].Value)
	assert.Equal(t, 79.8, points[1].Value)
}

func TestWeeklySummaries(t *testing.T) {
	// Monday 2024-04-01 through Sunday 2024-04-14: two full ISO weeks
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := make([]analytics.DailyRecord, 14)
	for i := range records {
		w := 80.0
		if i >= 7 {
			w = 79.3
		}
		records[i] = analytics.DailyRecord{
			Date:          start.AddDate(0, 0, i),
			Weight:        fp(w),
			CalorieIntake: fp(2100),
		}
	}

	summaries := analytics.WeeklySummaries(records)
	require.Len(t, summaries, 2)

	first, second := summaries[0], summaries[1]
	require.NotNil(t, first.AvgWeight)
	assert.InDelta(t, 80, *first.AvgWeight, 1e-9)
	assert.Nil(t, first.ObservedRate, "no previous week to compare against")
	require.NotNil(t, first.TotalIntake)
	assert.InDelta(t, 14700, *first.TotalIntake, 1e-9)

	require.NotNil(t, second.ObservedRate)
	assert.InDelta(t, -0.7, *second.ObservedRate, 1e-9)
}

func TestComputeDisplayStats(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	weights := make([]*float64, 28)
	for i := range weights {
		weights[i] = fp(72 - 0.1*float64(i))
	}

	cfg := analytics.DefaultConfig()
	processed := analytics.Process(rawRecords(start, weights), cfg)

	goal := analytics.Goal{Weight: fp(65)}
	stats := analytics.ComputeDisplayStats(processed, goal, cfg, start.AddDate(0, 0, 28))

	require.NotNil(t, stats.CurrentWeight)
	require.NotNil(t, stats.StartWeight)
	require.NotNil(t, stats.TotalChange)
	assert.Negative(t, *stats.TotalChange)

	require.NotNil(t, stats.TimeToGoal)
	assert.Equal(t, analytics.GoalOnTrack, stats.TimeToGoal.Kind)
	assert.Positive(t, stats.TimeToGoal.Weeks)

	assert.Nil(t, stats.RequiredWeeklyRate, "goal has no target date")
}

func TestComputeDisplayStats_NoMeasurements(t *testing.T) {
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	records := rawRecords(start, []*float64{nil, nil})

	stats := analytics.ComputeDisplayStats(records, analytics.Goal{}, analytics.DefaultConfig(), start)
	require.NotNil(t, stats)
	assert.Nil(t, stats.CurrentWeight)
	assert.Nil(t, stats.TimeToGoal)
}
