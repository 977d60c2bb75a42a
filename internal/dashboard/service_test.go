package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/eventbus"
	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fp(v float64) *float64 { return &v }

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *repoMock) (*Service, *store.Store) {
	appStore := store.New(eventbus.New(), metrics.NewTestManager())
	service := NewService(
		repo,
		appStore,
		analytics.DefaultConfig(),
		analytics.GonumStats{},
		metrics.NewTestManager(),
	)
	return service, appStore
}

func seedMonthOfMeasurements(t *testing.T, repo *repoMock) {
	t.Helper()
	gofakeit.Seed(42)
	start := day(2024, 4, 1)
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		weight := 80 - float64(i)*0.05 + gofakeit.Float64Range(-0.3, 0.3)
		require.NoError(t, repo.UpsertWeight(context.Background(), d, weight))
		intake := gofakeit.Float64Range(2200, 2600)
		require.NoError(t, repo.UpsertCalories(context.Background(), d, &intake, nil))
	}
}

func TestService_Initialize(t *testing.T) {
	repo := NewRepoMock()
	seedMonthOfMeasurements(t, repo)
	service, appStore := newTestService(repo)

	require.NoError(t, service.Initialize(context.Background()))

	state := appStore.GetState()
	assert.Equal(t, store.StatusReady, state.Status)
	assert.Empty(t, state.LastError)
	assert.Len(t, state.RawRecords, 30)
	assert.Len(t, state.ProcessedRecords, 30)

	// a month of daily weigh-ins is enough for every derived series
	require.NotNil(t, state.Regression)
	assert.Negative(t, state.Regression.Slope)
	require.NotNil(t, state.DisplayStats)
	assert.NotNil(t, state.DisplayStats.CurrentWeight)
	assert.NotEmpty(t, state.WeeklySummaries)
}

func TestService_Initialize_RepoFails(t *testing.T) {
	repo := NewRepoMock()
	repo.ListErr = errors.New("connection refused")
	service, appStore := newTestService(repo)

	err := service.Initialize(context.Background())
	require.Error(t, err)

	state := appStore.GetState()
	assert.Equal(t, store.StatusFailed, state.Status)
	assert.Contains(t, state.LastError, "connection refused")
}

func TestService_LogWeightTriggersRecompute(t *testing.T) {
	repo := NewRepoMock()
	service, appStore := newTestService(repo)

	require.NoError(t, service.LogWeight(context.Background(), day(2024, 4, 1), 80))
	require.NoError(t, service.LogWeight(context.Background(), day(2024, 4, 2), 79.8))

	state := appStore.GetState()
	require.Len(t, state.RawRecords, 2)
	assert.Equal(t, 79.8, *state.RawRecords[1].Weight)
	require.Len(t, state.ProcessedRecords, 2)
	assert.NotNil(t, state.ProcessedRecords[1].SMA)
}

func TestService_LogWeight_RepoFails(t *testing.T) {
	repo := NewRepoMock()
	repo.WriteErr = errors.New("disk full")
	service, appStore := newTestService(repo)

	err := service.LogWeight(context.Background(), day(2024, 4, 1), 80)
	require.Error(t, err)
	assert.Empty(t, appStore.GetState().RawRecords)
}

func TestService_SetAnalysisRange(t *testing.T) {
	repo := NewRepoMock()
	seedMonthOfMeasurements(t, repo)
	service, appStore := newTestService(repo)
	require.NoError(t, service.Initialize(context.Background()))

	r := store.DateRange{From: day(2024, 4, 10), To: day(2024, 4, 19)}
	require.NoError(t, service.SetAnalysisRange(context.Background(), r))

	state := appStore.GetState()
	assert.Equal(t, r, state.AnalysisRange)
	require.Len(t, state.RawRecords, 10)
	assert.Equal(t, day(2024, 4, 10), state.RawRecords[0].Date)
	assert.Equal(t, day(2024, 4, 19), state.RawRecords[9].Date)
}

func TestService_TrendChangeDetectedOnReversal(t *testing.T) {
	repo := NewRepoMock()
	start := day(2024, 4, 1)
	apex := 30
	for i := 0; i <= 2*apex; i++ {
		d := start.AddDate(0, 0, i)
		weight := 78 + float64(i)*0.1
		if i > apex {
			weight = 78 + float64(2*apex-i)*0.1
		}
		require.NoError(t, repo.UpsertWeight(context.Background(), d, weight))
	}
	service, appStore := newTestService(repo)

	require.NoError(t, service.Initialize(context.Background()))

	// gaining 0.7 kg/week flips to losing 0.7 kg/week at the apex, well
	// past the default 0.35 kg/week sensitivity
	state := appStore.GetState()
	require.NotEmpty(t, state.TrendChanges)

	apexDate := start.AddDate(0, 0, apex)
	foundNearApex := false
	for _, tc := range state.TrendChanges {
		assert.Negative(t, tc.Magnitude)
		if gap := tc.Date.Sub(apexDate).Hours() / 24; gap >= -7 && gap <= 7 {
			foundNearApex = true
		}
	}
	assert.True(t, foundNearApex, "no trend change detected near the reversal at %s", apexDate)
}

func TestService_DeleteWeight(t *testing.T) {
	repo := NewRepoMock()
	service, appStore := newTestService(repo)
	require.NoError(t, service.LogWeight(context.Background(), day(2024, 4, 1), 80))

	require.NoError(t, service.DeleteWeight(context.Background(), day(2024, 4, 1)))
	assert.Empty(t, appStore.GetState().RawRecords)

	err := service.DeleteWeight(context.Background(), day(2024, 4, 1))
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestService_LogCalories(t *testing.T) {
	repo := NewRepoMock()
	service, appStore := newTestService(repo)

	require.NoError(t, service.LogCalories(context.Background(), day(2024, 4, 1), fp(2500), fp(2700)))

	state := appStore.GetState()
	require.Len(t, state.RawRecords, 1)
	assert.Equal(t, 2500.0, *state.RawRecords[0].CalorieIntake)
	assert.Equal(t, 2700.0, *state.RawRecords[0].Expenditure)
	assert.Nil(t, state.RawRecords[0].Weight)
}
