package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkelcec/scalewatch/internal/analytics"
)

func TestReduce_SetRawRecords_payloadIsolation(t *testing.T) {
	records := []analytics.DailyRecord{
		{Date: day(2024, 4, 1), Weight: fp(80)},
		{Date: day(2024, 4, 2), Weight: fp(79.5)},
	}

	next := reduce(DefaultState(), SetRawRecords{Records: records})
	require.Len(t, next.RawRecords, 2)

	// caller keeps its slice, the tree keeps its own copy
	*records[0].Weight = 999
	assert.Equal(t, 80.0, *next.RawRecords[0].Weight)
}

func TestReduce_SetProcessedRecords(t *testing.T) {
	records := []analytics.DailyRecord{
		{Date: day(2024, 4, 1), Weight: fp(80), SMA: fp(80)},
	}
	next := reduce(DefaultState(), SetProcessedRecords{Records: records})
	require.Len(t, next.ProcessedRecords, 1)
	assert.Equal(t, 80.0, *next.ProcessedRecords[0].SMA)
}

func TestReduce_SetWeeklySummaries(t *testing.T) {
	summaries := []analytics.WeeklySummary{
		{Year: 2024, Week: 14, AvgWeight: fp(79.8)},
	}
	next := reduce(DefaultState(), SetWeeklySummaries{Summaries: summaries})
	require.Len(t, next.WeeklySummaries, 1)

	*summaries[0].AvgWeight = 999
	assert.Equal(t, 79.8, *next.WeeklySummaries[0].AvgWeight)

	next = reduce(next, SetWeeklySummaries{Summaries: nil})
	assert.Nil(t, next.WeeklySummaries)
}

func TestReduce_SetRegressionResult(t *testing.T) {
	result := &analytics.RegressionResult{
		Slope:     -0.05,
		Intercept: 80,
		Points: []analytics.RegressionPoint{
			{Date: day(2024, 4, 1), RegressionValue: 80, LowerCI: fp(79.5), UpperCI: fp(80.5)},
		},
	}
	next := reduce(DefaultState(), SetRegressionResult{Result: result})
	require.NotNil(t, next.Regression)
	assert.Equal(t, -0.05, next.Regression.Slope)

	*result.Points[0].LowerCI = 999
	assert.Equal(t, 79.5, *next.Regression.Points[0].LowerCI)
}

func TestReduce_GoalAndAnnotations(t *testing.T) {
	goal := analytics.Goal{Weight: fp(72), Date: timePtr(day(2024, 9, 1))}
	next := reduce(DefaultState(), LoadGoal{Goal: goal})
	require.NotNil(t, next.Goal.Weight)
	assert.Equal(t, 72.0, *next.Goal.Weight)

	*goal.Weight = 999
	assert.Equal(t, 72.0, *next.Goal.Weight)

	annotations := []Annotation{
		{ID: "a1", Date: day(2024, 4, 5), Text: "started creatine"},
	}
	next = reduce(next, SetAnnotations{Annotations: annotations})
	require.Len(t, next.Annotations, 1)
	assert.Equal(t, "started creatine", next.Annotations[0].Text)
}

func TestReduce_ToggleSeriesVisibility(t *testing.T) {
	state := DefaultState()

	next := reduce(state, ToggleSeriesVisibility{Series: "sma"})
	assert.False(t, next.SeriesVisibility["sma"])

	next = reduce(next, ToggleSeriesVisibility{Series: "sma"})
	assert.True(t, next.SeriesVisibility["sma"])

	// unknown series starts from false and toggles on
	next = reduce(next, ToggleSeriesVisibility{Series: "volatility"})
	assert.True(t, next.SeriesVisibility["volatility"])
}

func TestReduce_RangeSortTheme(t *testing.T) {
	state := DefaultState()

	r := DateRange{From: day(2024, 4, 1), To: day(2024, 6, 1)}
	next := reduce(state, SetAnalysisRange{Range: r})
	assert.Equal(t, r, next.AnalysisRange)

	next = reduce(next, SetSortOptions{Options: SortOptions{Field: "weight", Ascending: false}})
	assert.Equal(t, "weight", next.SortOptions.Field)
	assert.False(t, next.SortOptions.Ascending)

	next = reduce(next, SetTheme{Theme: "dark"})
	assert.Equal(t, "dark", next.Theme)
}

func timePtr(t time.Time) *time.Time { return &t }
