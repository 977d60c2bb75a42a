package analytics

// Config is the single tunable profile for the whole pipeline. The
// detectors read the smoothed rate series, so the smoothing windows and
// the detector thresholds deliberately live in one place.
type Config struct {
	// smoothing
	SMAWindowDays        int
	EMAWindowDays        int
	VolatilityWindowDays int
	RateWindowDays       int

	// outliers and bands: SMA ± k·stdDev
	OutlierStdDevFactor float64
	BandStdDevFactor    float64

	// regression
	RegressionAlpha float64

	// detectors; rate thresholds are kg per week
	PlateauMinDurationDays int
	PlateauWeeklyRateLimit float64
	TrendChangeWindowDays  int
	TrendChangeWeeklyLimit float64

	// energy/goal arithmetic
	TDEEWindowDays        int
	KcalPerKg             float64
	GoalToleranceKg       float64
	FlatWeeklyRateLimit   float64
	MaxProjectedGoalWeeks float64
}

// DefaultConfig returns the profile used by the dashboard unless the
// caller overrides it.
func DefaultConfig() Config {
	return Config{
		SMAWindowDays:        7,
		EMAWindowDays:        10,
		VolatilityWindowDays: 14,
		RateWindowDays:       7,

		OutlierStdDevFactor: 2.0,
		BandStdDevFactor:    2.0,

		RegressionAlpha: 0.05,

		PlateauMinDurationDays: 14,
		PlateauWeeklyRateLimit: 0.15,
		TrendChangeWindowDays:  7,
		TrendChangeWeeklyLimit: 0.35,

		TDEEWindowDays:        14,
		KcalPerKg:             7700,
		GoalToleranceKg:       0.25,
		FlatWeeklyRateLimit:   0.05,
		MaxProjectedGoalWeeks: 520,
	}
}
