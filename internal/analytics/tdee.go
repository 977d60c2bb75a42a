package analytics

import (
	"math"
	"time"
)

// TimeToGoalKind classifies the goal projection outcome.
type TimeToGoalKind string

const (
	GoalAchieved     TimeToGoalKind = "achieved"
	GoalTrendingAway TimeToGoalKind = "trending-away"
	GoalFlatTrend    TimeToGoalKind = "flat-trend"
	GoalOnTrack      TimeToGoalKind = "on-track"
)

// TimeToGoal is the projection from the current weight and rate to the
// goal weight. Weeks is meaningful only for GoalOnTrack.
type TimeToGoal struct {
	Kind  TimeToGoalKind `json:"kind"`
	Weeks float64        `json:"weeks"`
}

// DeriveTDEE infers the total daily energy expenditure from the average
// intake over a period and the observed weekly weight change during it:
// the energy not showing up on the scale must have been burned.
func DeriveTDEE(avgDailyIntake, weeklyRate, kcalPerKg float64) float64 {
	dailyRate := weeklyRate / 7
	return avgDailyIntake - dailyRate*kcalPerKg
}

// RequiredWeeklyRate returns the kg-per-week rate needed to move from
// currentWeight to goal.Weight by goal.Date, nil when the goal has no
// weight or date, or the date leaves no time.
func RequiredWeeklyRate(goal Goal, currentWeight float64, now time.Time) *float64 {
	if goal.Weight == nil || goal.Date == nil {
		return nil
	}
	daysRemaining := daysBetween(now, *goal.Date)
	if daysRemaining <= 0 {
		return nil
	}
	rate := (*goal.Weight - currentWeight) / (daysRemaining / 7)
	return &rate
}

// EstimatedTimeToGoal projects how long the current weekly rate takes to
// close the gap to the goal weight. Explicit branches keep the division
// safe: within tolerance means achieved, a rate below the flat threshold
// means no projection, and a rate pointing away from the goal means the
// gap is widening.
func EstimatedTimeToGoal(currentWeight, goalWeight, weeklyRate float64, cfg Config) TimeToGoal {
	remaining := goalWeight - currentWeight
	if math.Abs(remaining) <= cfg.GoalToleranceKg {
		return TimeToGoal{Kind: GoalAchieved}
	}
	if math.Abs(weeklyRate) < cfg.FlatWeeklyRateLimit {
		return TimeToGoal{Kind: GoalFlatTrend}
	}
	if remaining*weeklyRate < 0 {
		return TimeToGoal{Kind: GoalTrendingAway}
	}

	weeks := remaining / weeklyRate
	if cfg.MaxProjectedGoalWeeks > 0 && weeks > cfg.MaxProjectedGoalWeeks {
		return TimeToGoal{Kind: GoalFlatTrend}
	}
	return TimeToGoal{Kind: GoalOnTrack, Weeks: weeks}
}

// attachTDEE fills AdaptiveTDEE and TDEEDifference on every record with
// enough trailing intake and rate data.
func attachTDEE(records []DailyRecord, cfg Config) {
	if cfg.TDEEWindowDays < 1 {
		return
	}

	for i := range records {
		if records[i].SmoothedWeeklyRate == nil {
			continue
		}

		from := i - cfg.TDEEWindowDays + 1
		if from < 0 {
			from = 0
		}
		var intakeSum float64
		var intakeCount int
		for j := from; j <= i; j++ {
			if records[j].CalorieIntake != nil {
				intakeSum += *records[j].CalorieIntake
				intakeCount++
			}
		}
		if intakeCount == 0 {
			continue
		}

		tdee := DeriveTDEE(intakeSum/float64(intakeCount), *records[i].SmoothedWeeklyRate, cfg.KcalPerKg)
		records[i].AdaptiveTDEE = &tdee

		if records[i].Expenditure != nil {
			diff := tdee - *records[i].Expenditure
			records[i].TDEEDifference = &diff
		}
	}
}
