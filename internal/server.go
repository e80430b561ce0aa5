package internal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/vitalog/vitalog/internal/auth"
	"github.com/vitalog/vitalog/internal/config"
	"github.com/vitalog/vitalog/internal/health/persistence"
	"github.com/vitalog/vitalog/internal/health/records"
	"github.com/vitalog/vitalog/internal/health/stats"
	"github.com/vitalog/vitalog/internal/middleware"
	"github.com/vitalog/vitalog/internal/misc"
	"github.com/vitalog/vitalog/internal/telemetry/metrics"
	"github.com/vitalog/vitalog/internal/telemetry/tracing"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	recordsStore  *records.Store
	validator     *records.Validator
	statsOptions  stats.Options
	quotesManager *misc.QuotesManager

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
	SeedDemoData            bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("vitalog", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 when all is set and running

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

	// use the honeycomb distro to set up the OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "vitalog-backend", rdb)
	if err != nil {
		return nil, err
	}

	bridge, err := recordsBridge(params.Config, rdb)
	if err != nil {
		return nil, fmt.Errorf("create records bridge: %w", err)
	}

	recordsStore := records.NewStore(ctx, bridge)
	if params.SeedDemoData && len(recordsStore.List(ctx)) == 0 {
		seedDemoRecords(ctx, recordsStore)
	}

	quotesCsvFile, err := os.Open(params.Config.QuotesCsvPath)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer func() {
		if err := quotesCsvFile.Close(); err != nil {
			log.Warnf("close quotes csv file: %s", err)
		}
	}()

	quotesManager, err := misc.NewQuoteManager(csv.NewReader(quotesCsvFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create quote manager: %s", err)
	}

	return &Server{
		config:        params.Config,
		versionInfo:   params.VersionInfo,
		recordsStore:  recordsStore,
		validator:     records.NewValidator(validationPolicy(params.Config)),
		statsOptions:  statsOptions(params.Config),
		quotesManager: quotesManager,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	recordsHandler := records.NewHandler(s.recordsStore, s.validator, s.metricsManager)
	statsHandler := stats.NewHandler(s.recordsStore, s.statsOptions)
	r.HandleFunc("/records", recordsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-records")
	r.HandleFunc("/records", recordsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-record")
	// registered before the {id} routes, "summary" is not an id
	r.HandleFunc("/records/summary", statsHandler.HandleSummary).Methods("GET", "OPTIONS").Name("records-summary")
	r.HandleFunc("/records/{id}", recordsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-record")
	r.HandleFunc("/records/{id}", recordsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-record")
	r.HandleFunc("/records/{id}", recordsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-record")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.quotesManager, s.versionInfo, s.authService)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
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
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)
	s.otelShutdown()

	var shutdownErr error
	if s.redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, s.redisClient.Close())
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.httpServer.Shutdown(ctx))
	}
	if s.metricsHttpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.metricsHttpServer.Shutdown(ctx))
	}

	if shutdownErr != nil {
		log.Errorf(" >>> failed to gracefully shutdown: %s", shutdownErr)
	}
	log.Warnln("server shut down")
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

// recordsBridge picks the persistence backend for the record store.
func recordsBridge(cfg *config.Config, rdb *redis.Client) (records.Bridge, error) {
	switch cfg.PersistenceBackend {
	case "redis":
		return persistence.NewRedisBridge(rdb), nil
	case "file", "":
		return persistence.NewFileBridge(cfg.RecordsFilePath)
	default:
		return nil, fmt.Errorf("unknown persistence backend: %s", cfg.PersistenceBackend)
	}
}

func validationPolicy(cfg *config.Config) records.Policy {
	policy := records.DefaultPolicy()
	if cfg.HeartRateMin > 0 {
		policy.HeartRateMin = cfg.HeartRateMin
	}
	if cfg.HeartRateMax > 0 {
		policy.HeartRateMax = cfg.HeartRateMax
	}
	return policy
}

func statsOptions(cfg *config.Config) stats.Options {
	opts := stats.DefaultOptions()
	if cfg.DailyStepGoal > 0 {
		opts.DailyStepGoal = cfg.DailyStepGoal
	}
	if cfg.ConsistencyExcellentMins > 0 {
		opts.Consistency.Excellent = cfg.ConsistencyExcellentMins
	}
	if cfg.ConsistencyGoodMins > 0 {
		opts.Consistency.Good = cfg.ConsistencyGoodMins
	}
	if cfg.ConsistencyFairMins > 0 {
		opts.Consistency.Fair = cfg.ConsistencyFairMins
	}
	return opts
}
