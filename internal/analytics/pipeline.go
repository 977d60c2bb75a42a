package analytics

import (
	"math"
	"sort"
	"time"
)

// Process runs the full derivation pipeline over raw records and returns
// a new, date-sorted slice with every derived field recomputed. The input
// is not modified. Duplicate dates keep the later entry. Regression is
// not part of this pass since it runs over the caller's analysis window.
func Process(records []DailyRecord, cfg Config) []DailyRecord {
	out := normalize(records)
	if len(out) == 0 {
		return out
	}

	weights := make([]*float64, len(out))
	for i := range out {
		weights[i] = out[i].Weight
	}

	sma := RollingAverage(weights, cfg.SMAWindowDays)
	sd := RollingStdDev(weights, cfg.SMAWindowDays)
	ema := ExponentialAverage(weights, cfg.EMAWindowDays)
	volatility := RollingStdDev(Differences(weights), cfg.VolatilityWindowDays)
	rate := WeeklyRate(ema, cfg.RateWindowDays)

	for i := range out {
		out[i].SMA = sma[i]
		out[i].EMA = ema[i]
		out[i].StdDev = sd[i]
		out[i].RollingVolatility = volatility[i]
		out[i].SmoothedWeeklyRate = rate[i]

		if sma[i] != nil && sd[i] != nil {
			lower := *sma[i] - cfg.BandStdDevFactor**sd[i]
			upper := *sma[i] + cfg.BandStdDevFactor**sd[i]
			out[i].LowerBound = &lower
			out[i].UpperBound = &upper
		}

		out[i].IsOutlier = isOutlier(out[i], cfg)
	}

	attachTDEE(out, cfg)

	return out
}

// isOutlier flags a measured value deviating from the local smoothed
// value by more than the configured number of local standard deviations.
// Zero local variance never flags.
func isOutlier(r DailyRecord, cfg Config) bool {
	if r.Weight == nil || r.SMA == nil || r.StdDev == nil || *r.StdDev == 0 {
		return false
	}
	return math.Abs(*r.Weight-*r.SMA) > cfg.OutlierStdDevFactor**r.StdDev
}

// RegressionPoints extracts the (date, weight) pairs regression runs on:
// measured, non-outlier records only, in date order.
func RegressionPoints(records []DailyRecord) []DataPoint {
	var points []DataPoint
	for _, r := range records {
		if r.Weight == nil || r.IsOutlier {
			continue
		}
		points = append(points, DataPoint{Date: r.Date, Value: *r.Weight})
	}
	return points
}

// WeeklySummaries aggregates processed records per ISO week, oldest
// first. The observed rate of a week is the average-weight change against
// the previous week that had one.
func WeeklySummaries(records []DailyRecord) []WeeklySummary {
	type bucket struct {
		year, week int
		records    []DailyRecord
	}

	var buckets []bucket
	index := map[[2]int]int{}
	for _, r := range normalize(records) {
		year, week := r.Date.ISOWeek()
		key := [2]int{year, week}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, bucket{year: year, week: week})
		}
		buckets[i].records = append(buckets[i].records, r)
	}

	summaries := make([]WeeklySummary, 0, len(buckets))
	var prevAvgWeight *float64
	for _, b := range buckets {
		s := WeeklySummary{Year: b.year, Week: b.week}

		var weightSum, intakeSum, expSum float64
		var weightCount, intakeCount, expCount int
		for _, r := range b.records {
			if r.Weight != nil {
				weightSum += *r.Weight
				weightCount++
			}
			if r.CalorieIntake != nil {
				intakeSum += *r.CalorieIntake
				intakeCount++
			}
			if r.Expenditure != nil {
				expSum += *r.Expenditure
				expCount++
			}
		}
		if weightCount > 0 {
			avg := weightSum / float64(weightCount)
			s.AvgWeight = &avg
			if prevAvgWeight != nil {
				rate := avg - *prevAvgWeight
				s.ObservedRate = &rate
			}
			prevAvgWeight = &avg
		}
		if intakeCount > 0 {
			avg := intakeSum / float64(intakeCount)
			total := intakeSum
			s.AvgIntake = &avg
			s.TotalIntake = &total
		}
		if expCount > 0 {
			avg := expSum / float64(expCount)
			s.AvgExpenditure = &avg
		}

		summaries = append(summaries, s)
	}

	return summaries
}

// ComputeDisplayStats derives the text-panel numbers from processed
// records and the goal. Missing inputs leave the corresponding fields
// nil.
func ComputeDisplayStats(records []DailyRecord, goal Goal, cfg Config, now time.Time) *DisplayStats {
	stats := &DisplayStats{}

	var first, last *DailyRecord
	for i := range records {
		if records[i].Weight == nil {
			continue
		}
		if first == nil {
			first = &records[i]
		}
		last = &records[i]
	}
	if first == nil || last == nil {
		return stats
	}

	stats.StartWeight = clonePtr(smoothedValue(*first))
	stats.CurrentWeight = clonePtr(smoothedValue(*last))
	if stats.StartWeight != nil && stats.CurrentWeight != nil {
		change := *stats.CurrentWeight - *stats.StartWeight
		stats.TotalChange = &change
	}
	stats.SmoothedWeeklyRate = clonePtr(last.SmoothedWeeklyRate)
	stats.AdaptiveTDEE = clonePtr(last.AdaptiveTDEE)

	if stats.CurrentWeight != nil {
		stats.RequiredWeeklyRate = RequiredWeeklyRate(goal, *stats.CurrentWeight, now)
		if goal.Weight != nil && stats.SmoothedWeeklyRate != nil {
			ttg := EstimatedTimeToGoal(*stats.CurrentWeight, *goal.Weight, *stats.SmoothedWeeklyRate, cfg)
			stats.TimeToGoal = &ttg
		}
	}

	return stats
}

// normalize returns a copy sorted ascending by calendar day, truncated to
// UTC midnight, one record per day (later entries win).
func normalize(records []DailyRecord) []DailyRecord {
	byDay := make(map[time.Time]DailyRecord, len(records))
	for _, r := range records {
		c := r.Clone()
		c.Date = day(r.Date)
		byDay[c.Date] = c
	}

	out := make([]DailyRecord, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
