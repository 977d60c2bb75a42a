package analytics

import "time"

// DailyRecord is one calendar day of raw measurements plus the derived
// fields the processing pipeline attaches to it. Nullable raw values are
// pointers; derived pointer fields are nil until (or unless) the pipeline
// could compute them. Records are always kept sorted ascending by date,
// with at most one record per date.
type DailyRecord struct {
	Date          time.Time `json:"date"`
	Weight        *float64  `json:"weight"`
	CalorieIntake *float64  `json:"calorieIntake"`
	Expenditure   *float64  `json:"expenditure"`

	// derived fields, recomputed from the raw fields on every pipeline run
	SMA                *float64 `json:"sma"`
	EMA                *float64 `json:"ema"`
	StdDev             *float64 `json:"stdDev"`
	IsOutlier          bool     `json:"isOutlier"`
	LowerBound         *float64 `json:"lowerBound"`
	UpperBound         *float64 `json:"upperBound"`
	RollingVolatility  *float64 `json:"rollingVolatility"`
	SmoothedWeeklyRate *float64 `json:"smoothedWeeklyRate"`
	AdaptiveTDEE       *float64 `json:"adaptiveTDEE"`
	TDEEDifference     *float64 `json:"tdeeDifference"`
}

// Clone returns a copy of the record with no shared pointers.
func (r DailyRecord) Clone() DailyRecord {
	c := r
	c.Weight = clonePtr(r.Weight)
	c.CalorieIntake = clonePtr(r.CalorieIntake)
	c.Expenditure = clonePtr(r.Expenditure)
	c.SMA = clonePtr(r.SMA)
	c.EMA = clonePtr(r.EMA)
	c.StdDev = clonePtr(r.StdDev)
	c.LowerBound = clonePtr(r.LowerBound)
	c.UpperBound = clonePtr(r.UpperBound)
	c.RollingVolatility = clonePtr(r.RollingVolatility)
	c.SmoothedWeeklyRate = clonePtr(r.SmoothedWeeklyRate)
	c.AdaptiveTDEE = clonePtr(r.AdaptiveTDEE)
	c.TDEEDifference = clonePtr(r.TDEEDifference)
	return c
}

// CloneRecords deep-copies a record slice.
func CloneRecords(records []DailyRecord) []DailyRecord {
	if records == nil {
		return nil
	}
	out := make([]DailyRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// RegressionPoint is the fitted value for one input date, with the
// confidence interval around the mean response. CI fields are nil when
// the degrees of freedom are not positive or the slope is undefined.
type RegressionPoint struct {
	Date            time.Time `json:"date"`
	RegressionValue float64   `json:"regressionValue"`
	LowerCI         *float64  `json:"lowerCI"`
	UpperCI         *float64  `json:"upperCI"`
}

// RegressionResult is an ordinary least squares fit over a date window.
// Points spans the exact input window. CIApproximate marks intervals
// computed with the fallback normal quantile instead of a proper
// Student's t quantile.
type RegressionResult struct {
	Slope         float64           `json:"slope"`
	Intercept     float64           `json:"intercept"`
	CIApproximate bool              `json:"ciApproximate"`
	Points        []RegressionPoint `json:"points"`
}

// Clone returns a copy with no shared pointers.
func (r *RegressionResult) Clone() *RegressionResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Points = make([]RegressionPoint, len(r.Points))
	for i, p := range r.Points {
		cp := p
		cp.LowerCI = clonePtr(p.LowerCI)
		cp.UpperCI = clonePtr(p.UpperCI)
		c.Points[i] = cp
	}
	return &c
}

// Plateau is a maximal run of consecutive days where the smoothed weekly
// rate stayed below the configured threshold. Start and end are inclusive.
type Plateau struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// TrendChangePoint marks a day where the slope of the leading window
// differs from the slope of the trailing window by more than the
// configured threshold. Magnitude is the per-day slope difference.
type TrendChangePoint struct {
	Date      time.Time `json:"date"`
	Magnitude float64   `json:"magnitude"`
}

// Goal is the user's target, every part of it optional.
type Goal struct {
	Weight     *float64   `json:"weight"`
	Date       *time.Time `json:"date"`
	TargetRate *float64   `json:"targetRate"`
}

// Clone returns a copy of the goal with no shared pointers.
func (g Goal) Clone() Goal {
	c := g
	c.Weight = clonePtr(g.Weight)
	c.TargetRate = clonePtr(g.TargetRate)
	if g.Date != nil {
		d := *g.Date
		c.Date = &d
	}
	return c
}

// WeeklySummary aggregates one ISO week of records.
type WeeklySummary struct {
	Year           int      `json:"year"`
	Week           int      `json:"week"`
	AvgWeight      *float64 `json:"avgWeight"`
	AvgIntake      *float64 `json:"avgIntake"`
	TotalIntake    *float64 `json:"totalIntake"`
	AvgExpenditure *float64 `json:"avgExpenditure"`
	// ObservedRate is the weight change vs the previous summarized week.
	ObservedRate *float64 `json:"observedRate"`
}

// DisplayStats are the numbers shown in the dashboard text panels.
type DisplayStats struct {
	CurrentWeight      *float64    `json:"currentWeight"`
	StartWeight        *float64    `json:"startWeight"`
	TotalChange        *float64    `json:"totalChange"`
	SmoothedWeeklyRate *float64    `json:"smoothedWeeklyRate"`
	AdaptiveTDEE       *float64    `json:"adaptiveTDEE"`
	RequiredWeeklyRate *float64    `json:"requiredWeeklyRate"`
	TimeToGoal         *TimeToGoal `json:"timeToGoal"`
}

// Clone returns a copy with no shared pointers.
func (s *DisplayStats) Clone() *DisplayStats {
	if s == nil {
		return nil
	}
	c := *s
	c.CurrentWeight = clonePtr(s.CurrentWeight)
	c.StartWeight = clonePtr(s.StartWeight)
	c.TotalChange = clonePtr(s.TotalChange)
	c.SmoothedWeeklyRate = clonePtr(s.SmoothedWeeklyRate)
	c.AdaptiveTDEE = clonePtr(s.AdaptiveTDEE)
	c.RequiredWeeklyRate = clonePtr(s.RequiredWeeklyRate)
	if s.TimeToGoal != nil {
		ttg := *s.TimeToGoal
		c.TimeToGoal = &ttg
	}
	return &c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
