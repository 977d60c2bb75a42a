package analytics

import "math"

// RollingAverage computes a simple moving average over a trailing window
// of daily values. A nil entry still occupies a window slot and advances
// the window; it contributes the previous smoothed value to the running
// sum, so a missed measurement reads as "unchanged" instead of shrinking
// the window. Output at an index whose window holds zero measured values
// is nil. Runs in O(n): the sum is maintained incrementally, never
// recomputed per step.
func RollingAverage(values []*float64, window int) []*float64 {
	n := len(values)
	out := make([]*float64, n)
	if window < 1 {
		return out
	}

	// contributions[i] is what index i added to the running sum, kept so
	// the exact amount can be subtracted once the slot leaves the window
	contributions := make([]*float64, n)

	var sum float64
	var count int    // slots currently contributing
	var measured int // raw non-nil values currently in the window

	for i := 0; i < n; i++ {
		var contribution *float64
		switch {
		case values[i] != nil:
			contribution = clonePtr(values[i])
		case i > 0 && out[i-1] != nil:
			contribution = clonePtr(out[i-1])
		}
		contributions[i] = contribution
		if contribution != nil {
			sum += *contribution
			count++
		}
		if values[i] != nil {
			measured++
		}

		if leaving := i - window; leaving >= 0 {
			if contributions[leaving] != nil {
				sum -= *contributions[leaving]
				count--
			}
			if values[leaving] != nil {
				measured--
			}
		}

		if measured == 0 || count == 0 {
			continue
		}
		avg := sum / float64(count)
		out[i] = &avg
	}

	return out
}

// RollingStdDev computes the sample standard deviation of the measured
// values inside a trailing window. Indexes whose window holds fewer than
// two measured values get nil.
func RollingStdDev(values []*float64, window int) []*float64 {
	n := len(values)
	out := make([]*float64, n)
	if window < 1 {
		return out
	}

	var sum, sumSq float64
	var count int

	for i := 0; i < n; i++ {
		if v := values[i]; v != nil {
			sum += *v
			sumSq += *v * *v
			count++
		}
		if leaving := i - window; leaving >= 0 && values[leaving] != nil {
			v := *values[leaving]
			sum -= v
			sumSq -= v * v
			count--
		}

		if count < 2 {
			continue
		}
		mean := sum / float64(count)
		variance := (sumSq - float64(count)*mean*mean) / float64(count-1)
		if variance < 0 {
			// floating point cancellation can push a zero variance
			// slightly negative
			variance = 0
		}
		sd := math.Sqrt(variance)
		out[i] = &sd
	}

	return out
}

// ExponentialAverage computes an EMA with the smoothing constant
// 2/(windowDays+1). The first non-nil value seeds the series; before the
// seed the output is nil, and a nil input carries the previous EMA
// forward unchanged.
func ExponentialAverage(values []*float64, windowDays int) []*float64 {
	n := len(values)
	out := make([]*float64, n)
	if windowDays < 1 {
		return out
	}

	alpha := 2.0 / (float64(windowDays) + 1)
	var ema *float64

	for i := 0; i < n; i++ {
		switch {
		case values[i] == nil:
			// hold
		case ema == nil:
			ema = clonePtr(values[i])
		default:
			next := alpha**values[i] + (1-alpha)**ema
			ema = &next
		}
		out[i] = clonePtr(ema)
	}

	return out
}

// Differences returns the day-to-day change series: output[i] is
// values[i]−values[i−1] when both are measured, nil otherwise.
func Differences(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i] == nil || values[i-1] == nil {
			continue
		}
		d := *values[i] - *values[i-1]
		out[i] = &d
	}
	return out
}

// WeeklyRate derives a kg-per-week rate series from a smoothed value
// series: the change over a trailing windowDays span, scaled to 7 days.
// Early indexes use the span available since the start of the series.
func WeeklyRate(smoothed []*float64, windowDays int) []*float64 {
	n := len(smoothed)
	out := make([]*float64, n)
	if windowDays < 1 {
		return out
	}

	for i := 1; i < n; i++ {
		j := i - windowDays
		if j < 0 {
			j = 0
		}
		if smoothed[i] == nil || smoothed[j] == nil {
			continue
		}
		elapsed := float64(i - j)
		rate := (*smoothed[i] - *smoothed[j]) / elapsed * 7
		out[i] = &rate
	}

	return out
}
