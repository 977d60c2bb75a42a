package store

import (
	"github.com/mkelcec/scalewatch/internal/analytics"
)

// Action is the closed set of state mutations. One struct per action
// keeps the payload shape a compile-time contract; the reducer matches
// exhaustively on the concrete types.
type Action interface {
	// Name is the wire/logging identifier of the action type.
	Name() string
}

type SetRawRecords struct {
	Records []analytics.DailyRecord
}

type SetProcessedRecords struct {
	Records []analytics.DailyRecord
}

type SetWeeklySummaries struct {
	Summaries []analytics.WeeklySummary
}

type SetRegressionResult struct {
	Result *analytics.RegressionResult
}

type SetPlateaus struct {
	Plateaus []analytics.Plateau
}

type SetTrendChanges struct {
	Points []analytics.TrendChangePoint
}

type SetDisplayStats struct {
	Stats *analytics.DisplayStats
}

type LoadGoal struct {
	Goal analytics.Goal
}

type SetAnnotations struct {
	Annotations []Annotation
}

type SetAnalysisRange struct {
	Range DateRange
}

type ToggleSeriesVisibility struct {
	Series string
}

type SetSortOptions struct {
	Options SortOptions
}

type SetTheme struct {
	Theme string
}

type InitializationStart struct{}

type InitializationComplete struct{}

type InitializationFailed struct {
	Reason string
}

func (SetRawRecords) Name() string          { return "SET_RAW_RECORDS" }
func (SetProcessedRecords) Name() string    { return "SET_PROCESSED_RECORDS" }
func (SetWeeklySummaries) Name() string     { return "SET_WEEKLY_SUMMARIES" }
func (SetRegressionResult) Name() string    { return "SET_REGRESSION_RESULT" }
func (SetPlateaus) Name() string            { return "SET_PLATEAUS" }
func (SetTrendChanges) Name() string        { return "SET_TREND_CHANGES" }
func (SetDisplayStats) Name() string        { return "SET_DISPLAY_STATS" }
func (LoadGoal) Name() string               { return "LOAD_GOAL" }
func (SetAnnotations) Name() string         { return "SET_ANNOTATIONS" }
func (SetAnalysisRange) Name() string       { return "SET_ANALYSIS_RANGE" }
func (ToggleSeriesVisibility) Name() string { return "TOGGLE_SERIES_VISIBILITY" }
func (SetSortOptions) Name() string         { return "SET_SORT_OPTIONS" }
func (SetTheme) Name() string               { return "SET_THEME" }
func (InitializationStart) Name() string    { return "INITIALIZATION_START" }
func (InitializationComplete) Name() string { return "INITIALIZATION_COMPLETE" }
func (InitializationFailed) Name() string   { return "INITIALIZATION_FAILED" }

// Named channels for targeted subscriptions. General subscribers always
// get notified regardless of these.
const (
	ChannelStateChanged       = "state-changed"
	ChannelGoalChanged        = "goal-changed"
	ChannelAnnotationsChanged = "annotations-changed"
	ChannelThemeChanged       = "theme-changed"
	ChannelRangeChanged       = "range-changed"
	ChannelStatusChanged      = "status-changed"
)

// Channel payload shapes. These are deliberately narrower than the raw
// actions: channel subscribers get just the piece they care about.
type GoalChangedPayload struct {
	Goal analytics.Goal `json:"goal"`
}

type AnnotationsChangedPayload struct {
	Annotations []Annotation `json:"annotations"`
}

type ThemeChangedPayload struct {
	Theme string `json:"theme"`
}

type RangeChangedPayload struct {
	Range DateRange `json:"range"`
}

type StatusChangedPayload struct {
	Status InitStatus `json:"status"`
}

// channelFor maps an action to its designated channel and builds the
// channel payload from the post-commit state. Every action type has at
// most one channel; actions not matched here only notify general
// subscribers.
func channelFor(action Action, next ApplicationState) (string, any, bool) {
	switch action.(type) {
	case LoadGoal:
		return ChannelGoalChanged, GoalChangedPayload{Goal: next.Goal}, true
	case SetAnnotations:
		return ChannelAnnotationsChanged, AnnotationsChangedPayload{Annotations: next.Annotations}, true
	case SetTheme:
		return ChannelThemeChanged, ThemeChangedPayload{Theme: next.Theme}, true
	case SetAnalysisRange:
		return ChannelRangeChanged, RangeChangedPayload{Range: next.AnalysisRange}, true
	case InitializationStart, InitializationComplete, InitializationFailed:
		return ChannelStatusChanged, StatusChangedPayload{Status: next.Status}, true
	default:
		return "", nil, false
	}
}
