package dashboard

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/metrics"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
)

type dashboardRepo interface {
	UpsertWeight(ctx context.Context, day time.Time, weight float64) error
	DeleteWeight(ctx context.Context, day time.Time) error
	UpsertCalories(ctx context.Context, day time.Time, intake, expenditure *float64) error
	DeleteCalories(ctx context.Context, day time.Time) error
	ListRecords(ctx context.Context, from, to *time.Time) ([]analytics.DailyRecord, error)
}

// Service loads measurements from the repo, runs the analytics pipeline
// over them and pushes the results into the store. Entry mutations go
// through here so every write is followed by a recompute.
type Service struct {
	repo    dashboardRepo
	store   *store.Store
	cfg     analytics.Config
	stats   analytics.StatsProvider
	metrics *metrics.Manager
	now     func() time.Time
}

func NewService(
	repo dashboardRepo,
	appStore *store.Store,
	cfg analytics.Config,
	statsProvider analytics.StatsProvider,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:    repo,
		store:   appStore,
		cfg:     cfg,
		stats:   statsProvider,
		metrics: metricsManager,
		now:     time.Now,
	}
}

// Initialize runs the full startup sequence: status goes to loading, data
// is loaded and analyzed, status ends up ready or failed.
func (s *Service) Initialize(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.initialize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	s.store.Dispatch(store.InitializationStart{})

	if err = s.Reload(ctx); err != nil {
		s.store.Dispatch(store.InitializationFailed{Reason: err.Error()})
		return fmt.Errorf("dashboard initialize: %w", err)
	}

	s.store.Dispatch(store.InitializationComplete{})
	return nil
}

// Reload fetches the records within the current analysis range and runs
// the analytics pipeline over them.
func (s *Service) Reload(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.reload")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	from, to := rangeBounds(s.store.GetState().AnalysisRange)
	records, err := s.repo.ListRecords(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	s.store.Dispatch(store.SetRawRecords{Records: records})
	s.recompute(records)
	return nil
}

// recompute runs the pure analytics over the raw records and dispatches
// every derived slice into the store.
func (s *Service) recompute(records []analytics.DailyRecord) {
	begin := s.now()

	processed := analytics.Process(records, s.cfg)
	regression := analytics.Regression(
		analytics.RegressionPoints(processed),
		s.cfg.RegressionAlpha,
		s.stats,
	)
	plateaus := analytics.Plateaus(processed, s.cfg.PlateauMinDurationDays, s.cfg.PlateauWeeklyRateLimit)
	// the detector takes a per-day slope threshold, the config carries it per week
	trendChanges := analytics.TrendChanges(processed, s.cfg.TrendChangeWindowDays, s.cfg.TrendChangeWeeklyLimit/7)
	summaries := analytics.WeeklySummaries(processed)

	goal := s.store.GetState().Goal
	displayStats := analytics.ComputeDisplayStats(processed, goal, s.cfg, s.now())

	s.store.Dispatch(store.SetProcessedRecords{Records: processed})
	s.store.Dispatch(store.SetRegressionResult{Result: regression})
	s.store.Dispatch(store.SetPlateaus{Plateaus: plateaus})
	s.store.Dispatch(store.SetTrendChanges{Points: trendChanges})
	s.store.Dispatch(store.SetWeeklySummaries{Summaries: summaries})
	s.store.Dispatch(store.SetDisplayStats{Stats: displayStats})

	if s.metrics != nil {
		s.metrics.CounterPipelineRuns.Inc()
		s.metrics.HistPipelineDuration.Observe(s.now().Sub(begin).Seconds())
	}
	log.Debugf("dashboard: pipeline run over %d records, %d plateaus, %d trend changes",
		len(records), len(plateaus), len(trendChanges))
}

// SetAnalysisRange commits the new range and reloads records within it.
func (s *Service) SetAnalysisRange(ctx context.Context, r store.DateRange) error {
	s.store.Dispatch(store.SetAnalysisRange{Range: r})
	return s.Reload(ctx)
}

func (s *Service) LogWeight(ctx context.Context, day time.Time, weight float64) error {
	if err := s.repo.UpsertWeight(ctx, day, weight); err != nil {
		return fmt.Errorf("upsert weight: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CounterWeightEntries.Inc()
	}
	return s.Reload(ctx)
}

func (s *Service) DeleteWeight(ctx context.Context, day time.Time) error {
	if err := s.repo.DeleteWeight(ctx, day); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func (s *Service) LogCalories(ctx context.Context, day time.Time, intake, expenditure *float64) error {
	if err := s.repo.UpsertCalories(ctx, day, intake, expenditure); err != nil {
		return fmt.Errorf("upsert calories: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CounterCalorieEntries.Inc()
	}
	return s.Reload(ctx)
}

func (s *Service) DeleteCalories(ctx context.Context, day time.Time) error {
	if err := s.repo.DeleteCalories(ctx, day); err != nil {
		return err
	}
	return s.Reload(ctx)
}

func rangeBounds(r store.DateRange) (from, to *time.Time) {
	if !r.From.IsZero() {
		from = &r.From
	}
	if !r.To.IsZero() {
		to = &r.To
	}
	return from, to
}
