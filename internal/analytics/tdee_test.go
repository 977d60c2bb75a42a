package analytics_test

import (
	"testing"
	"time"

	"github.com/mkelcec/scalewatch/internal/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTDEE(t *testing.T) {
	// losing 0.7 kg/week on 2000 kcal/day means burning about 2770
	tdee := analytics.DeriveTDEE(2000, -0.7, 7700)
	assert.InDelta(t, 2770, tdee, 1e-9)

	// maintenance: no change means intake equals expenditure
	assert.InDelta(t, 2400, analytics.DeriveTDEE(2400, 0, 7700), 1e-9)

	// gaining weight means burning less than eaten
	assert.InDelta(t, 2230, analytics.DeriveTDEE(2450, 0.2, 7700), 1e-9)
}

func TestRequiredWeeklyRate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	target := now.AddDate(0, 0, 70)
	goal := analytics.Goal{Weight: fp(65), Date: &target}

	rate := analytics.RequiredWeeklyRate(goal, 70, now)
	require.NotNil(t, rate)
	assert.InDelta(t, -0.5, *rate, 1e-9)
}

func TestRequiredWeeklyRate_MissingParts(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, analytics.RequiredWeeklyRate(analytics.Goal{}, 70, now))
	assert.Nil(t, analytics.RequiredWeeklyRate(analytics.Goal{Weight: fp(65)}, 70, now))

	past := now.AddDate(0, 0, -1)
	goal := analytics.Goal{Weight: fp(65), Date: &past}
	assert.Nil(t, analytics.RequiredWeeklyRate(goal, 70, now), "no time left means no rate")
}

func TestEstimatedTimeToGoal_OnTrack(t *testing.T) {
	cfg := analytics.DefaultConfig()

	ttg := analytics.EstimatedTimeToGoal(70, 65, -0.5, cfg)
	assert.Equal(t, analytics.GoalOnTrack, ttg.Kind)
	assert.InDelta(t, 10, ttg.Weeks, 1e-9)
}

func TestEstimatedTimeToGoal_Achieved(t *testing.T) {
	cfg := analytics.DefaultConfig()

	ttg := analytics.EstimatedTimeToGoal(65.1, 65, -0.5, cfg)
	assert.Equal(t, analytics.GoalAchieved, ttg.Kind)
}

func TestEstimatedTimeToGoal_TrendingAway(t *testing.T) {
	cfg := analytics.DefaultConfig()

	ttg := analytics.EstimatedTimeToGoal(70, 65, 0.3, cfg)
	assert.Equal(t, analytics.GoalTrendingAway, ttg.Kind)
}

func TestEstimatedTimeToGoal_FlatTrend(t *testing.T) {
	cfg := analytics.DefaultConfig()

	ttg := analytics.EstimatedTimeToGoal(70, 65, -0.01, cfg)
	assert.Equal(t, analytics.GoalFlatTrend, ttg.Kind, "division by a near-zero rate is avoided")
}

func TestEstimatedTimeToGoal_AbsurdProjectionReadsAsFlat(t *testing.T) {
	cfg := analytics.DefaultConfig()
	cfg.FlatWeeklyRateLimit = 0.0001

	ttg := analytics.EstimatedTimeToGoal(120, 65, -0.001, cfg)
	assert.Equal(t, analytics.GoalFlatTrend, ttg.Kind)
}
