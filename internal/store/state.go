package store

import (
	"time"

	"github.com/mkelcec/scalewatch/internal/analytics"
)

// InitStatus is the dashboard initialization lifecycle.
type InitStatus string

const (
	StatusIdle    InitStatus = "idle"
	StatusLoading InitStatus = "loading"
	StatusReady   InitStatus = "ready"
	StatusFailed  InitStatus = "failed"
)

// Annotation is a user note pinned to a calendar day.
type Annotation struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// DateRange is the analysis window; zero bounds mean unbounded.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SortOptions orders the record table views.
type SortOptions struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

// ApplicationState is the single canonical state tree. Only the reducer
// replaces its fields; everyone else works on copies.
type ApplicationState struct {
	RawRecords       []analytics.DailyRecord      `json:"rawRecords"`
	ProcessedRecords []analytics.DailyRecord      `json:"processedRecords"`
	WeeklySummaries  []analytics.WeeklySummary    `json:"weeklySummaries"`
	Plateaus         []analytics.Plateau          `json:"plateaus"`
	TrendChanges     []analytics.TrendChangePoint `json:"trendChanges"`
	Regression       *analytics.RegressionResult  `json:"regression"`
	DisplayStats     *analytics.DisplayStats      `json:"displayStats"`

	Goal        analytics.Goal `json:"goal"`
	Annotations []Annotation   `json:"annotations"`

	AnalysisRange    DateRange       `json:"analysisRange"`
	SeriesVisibility map[string]bool `json:"seriesVisibility"`
	SortOptions      SortOptions     `json:"sortOptions"`
	Theme            string          `json:"theme"`

	Status    InitStatus `json:"status"`
	LastError string     `json:"lastError"`
}

// DefaultState is the fixed startup shape of the tree.
func DefaultState() ApplicationState {
	return ApplicationState{
		SeriesVisibility: map[string]bool{
			"raw":        true,
			"sma":        true,
			"ema":        true,
			"bands":      true,
			"regression": true,
			"tdee":       false,
		},
		SortOptions: SortOptions{Field: "date", Ascending: true},
		Theme:       "light",
		Status:      StatusIdle,
	}
}

// Clone deep-copies the tree; the copy shares no pointers, slices or maps
// with the original.
func (s ApplicationState) Clone() ApplicationState {
	c := s
	c.RawRecords = analytics.CloneRecords(s.RawRecords)
	c.ProcessedRecords = analytics.CloneRecords(s.ProcessedRecords)

	if s.WeeklySummaries != nil {
		c.WeeklySummaries = make([]analytics.WeeklySummary, len(s.WeeklySummaries))
		for i, w := range s.WeeklySummaries {
			c.WeeklySummaries[i] = cloneWeeklySummary(w)
		}
	}
	if s.Plateaus != nil {
		c.Plateaus = append([]analytics.Plateau(nil), s.Plateaus...)
	}
	if s.TrendChanges != nil {
		c.TrendChanges = append([]analytics.TrendChangePoint(nil), s.TrendChanges...)
	}
	c.Regression = s.Regression.Clone()
	c.DisplayStats = s.DisplayStats.Clone()

	c.Goal = s.Goal.Clone()
	if s.Annotations != nil {
		c.Annotations = append([]Annotation(nil), s.Annotations...)
	}

	if s.SeriesVisibility != nil {
		c.SeriesVisibility = make(map[string]bool, len(s.SeriesVisibility))
		for k, v := range s.SeriesVisibility {
			c.SeriesVisibility[k] = v
		}
	}

	return c
}

func cloneWeeklySummary(w analytics.WeeklySummary) analytics.WeeklySummary {
	c := w
	c.AvgWeight = cloneFloat(w.AvgWeight)
	c.AvgIntake = cloneFloat(w.AvgIntake)
	c.TotalIntake = cloneFloat(w.TotalIntake)
	c.AvgExpenditure = cloneFloat(w.AvgExpenditure)
	c.ObservedRate = cloneFloat(w.ObservedRate)
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
