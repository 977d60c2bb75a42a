package store

import (
	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/analytics"
)

// reduce computes the next state from the current one. The input state is
// already a private copy, so assigning to its fields is safe; payload
// slices are deep-copied on the way in so the dispatcher's caller cannot
// reach into the committed tree afterwards. An action value the switch
// does not know is a no-op: warn and return the state unchanged.
func reduce(state ApplicationState, action Action) ApplicationState {
	switch a := action.(type) {
	case SetRawRecords:
		state.RawRecords = analytics.CloneRecords(a.Records)

	case SetProcessedRecords:
		state.ProcessedRecords = analytics.CloneRecords(a.Records)

	case SetWeeklySummaries:
		if a.Summaries == nil {
			state.WeeklySummaries = nil
			break
		}
		summaries := make([]analytics.WeeklySummary, len(a.Summaries))
		for i, w := range a.Summaries {
			summaries[i] = cloneWeeklySummary(w)
		}
		state.WeeklySummaries = summaries

	case SetRegressionResult:
		state.Regression = a.Result.Clone()

	case SetPlateaus:
		state.Plateaus = append([]analytics.Plateau(nil), a.Plateaus...)

	case SetTrendChanges:
		state.TrendChanges = append([]analytics.TrendChangePoint(nil), a.Points...)

	case SetDisplayStats:
		state.DisplayStats = a.Stats.Clone()

	case LoadGoal:
		state.Goal = a.Goal.Clone()

	case SetAnnotations:
		state.Annotations = append([]Annotation(nil), a.Annotations...)

	case SetAnalysisRange:
		state.AnalysisRange = a.Range

	case ToggleSeriesVisibility:
		if state.SeriesVisibility == nil {
			state.SeriesVisibility = map[string]bool{}
		}
		state.SeriesVisibility[a.Series] = !state.SeriesVisibility[a.Series]

	case SetSortOptions:
		state.SortOptions = a.Options

	case SetTheme:
		state.Theme = a.Theme

	case InitializationStart:
		state.Status = StatusLoading
		state.LastError = ""

	case InitializationComplete:
		state.Status = StatusReady
		state.LastError = ""

	case InitializationFailed:
		state.Status = StatusFailed
		state.LastError = a.Reason

	default:
		log.Warnf("store: unknown action type [%s], state unchanged", action.Name())
	}

	return state
}
