package analytics

import "math"

// Plateaus scans the records chronologically and emits every maximal run
// of at least minDurationDays consecutive days whose smoothed weekly rate
// is defined and below weeklyRateLimit in magnitude. A run still open at
// the end of the series is closed at the final record.
func Plateaus(records []DailyRecord, minDurationDays int, weeklyRateLimit float64) []Plateau {
	if minDurationDays < 1 {
		return nil
	}

	var plateaus []Plateau
	runStart := -1

	closeRun := func(endIdx int) {
		if runStart < 0 {
			return
		}
		if endIdx-runStart+1 >= minDurationDays {
			plateaus = append(plateaus, Plateau{
				StartDate: records[runStart].Date,
				EndDate:   records[endIdx].Date,
			})
		}
		runStart = -1
	}

	for i, r := range records {
		flat := r.SmoothedWeeklyRate != nil && math.Abs(*r.SmoothedWeeklyRate) < weeklyRateLimit
		if flat {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		closeRun(i - 1)
	}
	closeRun(len(records) - 1)

	return plateaus
}

// TrendChanges compares, for every interior day with at least windowDays
// records on both sides, the slope of the trailing window against the
// slope of the leading window. Each slope is endpoint-based: first vs last
// smoothed value divided by the elapsed days, requiring at least two
// smoothed points per sub-window. Days where the slopes differ by at
// least minSlopeDiff (a per-day threshold) are emitted with the signed
// difference as magnitude.
func TrendChanges(records []DailyRecord, windowDays int, minSlopeDiff float64) []TrendChangePoint {
	n := len(records)
	if windowDays < 1 || n < 2*windowDays+1 {
		return nil
	}

	var changes []TrendChangePoint
	for i := windowDays; i < n-windowDays; i++ {
		before, okBefore := endpointSlope(records[i-windowDays : i+1])
		after, okAfter := endpointSlope(records[i : i+windowDays+1])
		if !okBefore || !okAfter {
			continue
		}
		diff := after - before
		if math.Abs(diff) >= minSlopeDiff {
			changes = append(changes, TrendChangePoint{
				Date:      records[i].Date,
				Magnitude: diff,
			})
		}
	}

	return changes
}

// endpointSlope returns the value-per-day slope between the first and
// last smoothed values of the window, false when fewer than two smoothed
// points exist or no time elapses between them.
func endpointSlope(window []DailyRecord) (float64, bool) {
	firstIdx, lastIdx := -1, -1
	valid := 0
	for i, r := range window {
		if smoothedValue(r) == nil {
			continue
		}
		valid++
		if firstIdx < 0 {
			firstIdx = i
		}
		lastIdx = i
	}
	if valid < 2 {
		return 0, false
	}

	elapsed := daysBetween(window[firstIdx].Date, window[lastIdx].Date)
	if elapsed <= 0 {
		return 0, false
	}
	return (*smoothedValue(window[lastIdx]) - *smoothedValue(window[firstIdx])) / elapsed, true
}

// smoothedValue prefers the EMA, falls back to the SMA, then to the raw
// weight.
func smoothedValue(r DailyRecord) *float64 {
	if r.EMA != nil {
		return r.EMA
	}
	if r.SMA != nil {
		return r.SMA
	}
	return r.Weight
}
