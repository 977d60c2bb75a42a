package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/auth"
	"github.com/mkelcec/scalewatch/internal/config"
	"github.com/mkelcec/scalewatch/internal/dashboard"
	"github.com/mkelcec/scalewatch/internal/db"
	"github.com/mkelcec/scalewatch/internal/eventbus"
	"github.com/mkelcec/scalewatch/internal/goals"
	"github.com/mkelcec/scalewatch/internal/middleware"
	"github.com/mkelcec/scalewatch/internal/misc"
	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/metrics"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	appStore         *store.Store
	dashboardService *dashboard.Service
	goalsHandler     *goals.Handler
	snapshotCache    *dashboard.SnapshotCache

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "scalewatch_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("scalewatch", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "scalewatch-backend")
	if err != nil {
		return nil, err
	}

	appStore := store.New(eventbus.New(), metricsManager)
	analyticsCfg := analyticsConfig(params.Config)

	dashboardService := dashboard.NewService(
		dashboard.NewRepo(dbPool),
		appStore,
		analyticsCfg,
		analytics.GonumStats{},
		metricsManager,
	)

	var snapshotCache *dashboard.SnapshotCache
	if ttl := params.Config.SnapshotCacheTTLSeconds; ttl > 0 {
		snapshotCache = dashboard.NewSnapshotCache(rdb, time.Duration(ttl)*time.Second)
	}

	goalsHandler := goals.NewHandler(
		goals.NewRepo(dbPool),
		appStore,
		dashboardService,
	)

	s := &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		appStore:         appStore,
		dashboardService: dashboardService,
		goalsHandler:     goalsHandler,
		snapshotCache:    snapshotCache,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

// Initialize loads persisted goal and annotations, then runs the first
// analytics pass. A failed pass leaves the store in failed status; the
// server still serves, entries can be retried via the refresh endpoint.
func (s *Server) Initialize(ctx context.Context) {
	if err := s.goalsHandler.SyncStore(ctx); err != nil {
		log.Errorf("failed to load goal and annotations: %s", err)
	}
	if err := s.dashboardService.Initialize(ctx); err != nil {
		log.Errorf("dashboard initialization failed: %s", err)
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("scalewatch-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.authService, s.appStore, s.versionInfo)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	dashboardHandler := dashboard.NewHandler(s.dashboardService, s.appStore, s.snapshotCache)
	dashboardHandler.SetupRoutes(r.PathPrefix("/dashboard").Subrouter())

	s.goalsHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.AuthMiddlewareHandler(s.loginChecker))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)

	s.Initialize(ctx)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

// analyticsConfig applies the optional config file overrides on top of the
// default analytics profile.
func analyticsConfig(cfg *config.Config) analytics.Config {
	analyticsCfg := analytics.DefaultConfig()
	if cfg.SMAWindowDays > 0 {
		analyticsCfg.SMAWindowDays = cfg.SMAWindowDays
	}
	if cfg.EMAWindowDays > 0 {
		analyticsCfg.EMAWindowDays = cfg.EMAWindowDays
	}
	if cfg.PlateauMinDurationDays > 0 {
		analyticsCfg.PlateauMinDurationDays = cfg.PlateauMinDurationDays
	}
	if cfg.PlateauWeeklyRateLimit > 0 {
		analyticsCfg.PlateauWeeklyRateLimit = cfg.PlateauWeeklyRateLimit
	}
	if cfg.TrendChangeWindowDays > 0 {
		analyticsCfg.TrendChangeWindowDays = cfg.TrendChangeWindowDays
	}
	if cfg.TrendChangeWeeklyLimit > 0 {
		analyticsCfg.TrendChangeWeeklyLimit = cfg.TrendChangeWeeklyLimit
	}
	return analyticsCfg
}
