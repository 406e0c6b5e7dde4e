package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/campushub/campushub/pkg/analytics"
	"github.com/campushub/campushub/pkg/api"
	"github.com/campushub/campushub/pkg/audit"
	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/authz"
	"github.com/campushub/campushub/pkg/config"
	"github.com/campushub/campushub/pkg/directory"
	"github.com/campushub/campushub/pkg/login"
	"github.com/campushub/campushub/pkg/media"
	"github.com/campushub/campushub/pkg/middleware"
	"github.com/campushub/campushub/pkg/observability"
	"github.com/campushub/campushub/pkg/settings"
	"github.com/campushub/campushub/pkg/storage"
)

const (
	purgeSchedule = "30 3 * * *"
	// Rollups run after midnight for the previous day.
	rollupSchedule = "15 0 * * *"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("environment", cfg.Environment).Info("starting campushub")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing is optional; the server runs fine without a collector.
	var otelProviders *observability.OTelProviders
	if cfg.Observability.OTelEnabled {
		otelProviders, err = observability.InitOTel(ctx, observability.OTelConfig{
			Enabled:        true,
			Endpoint:       cfg.Observability.OTelEndpoint,
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: cfg.Observability.OTelServiceVersion,
			Insecure:       cfg.Observability.OTelInsecure,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize tracing, continuing without it")
		}
	}

	db, err := sql.Open("postgres", config.DatabaseURL())
	if err != nil {
		logger.WithError(err).Error("failed to open database")
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Error("failed to ping database")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	sessions, redisClient, err := newSessionStore(cfg, db)
	if err != nil {
		logger.WithError(err).Error("failed to initialize session store")
		os.Exit(1)
	}

	dir := directory.NewStore(db)
	resolver := authz.NewResolver(dir)
	gate := authz.NewGate(resolver)
	auditor := audit.NewDBLogger(db)

	mediaResolver, err := newMediaResolver(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to load media defaults")
		os.Exit(1)
	}

	selector, err := storage.NewSelector(ctx, cfg.Storage, logger, metrics)
	if err != nil {
		logger.WithError(err).Error("failed to initialize storage")
		os.Exit(1)
	}

	settingsCache := settings.NewCache(settings.NewSQLStore(db), cfg.SettingsTTL, metrics)

	events := analytics.NewEventTracker(db)
	stats := analytics.NewService(db)

	gates := middleware.NewGateMiddleware(gate, auditor, metrics)
	server := api.NewServer(dir, selector, mediaResolver, settingsCache, gates, auditor, events, stats, logger)

	if cfg.Login.ClientID != "" {
		provider, err := login.NewProvider(ctx, login.Config{
			IssuerURL:    cfg.Login.IssuerURL,
			ClientID:     cfg.Login.ClientID,
			ClientSecret: cfg.Login.ClientSecret,
			RedirectURL:  cfg.Login.RedirectURL,
		})
		if err != nil {
			logger.WithError(err).Error("failed to initialize login provider")
			os.Exit(1)
		}
		login.NewHandlers(provider, dir, sessions, auditor, events, logger).RegisterRoutes(server.Router())
	} else {
		logger.Warn("OIDC client not configured, login routes disabled")
	}

	// Session resolution is optional at this layer; the gate decides
	// per route whether authentication is required.
	sessionMW := middleware.NewSessionMiddleware(sessions, dir, auditor, logger, metrics, true)
	handler := observability.RequestMiddleware(logger)(sessionMW.Handler(server.Router()))
	handler = metrics.InstrumentHandler("api", handler)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := newHealthServer(cfg, db, redisClient, registry)

	jobs := newScheduler(sessions, analytics.NewAggregator(db), metrics, logger)

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server failed")
			stop()
		}
	}()
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()
	jobs.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown failed")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown failed")
	}
	<-jobs.Stop().Done()
	if otelProviders != nil {
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}

	logger.Info("campushub stopped")
}

// newSessionStore selects the configured session backend. The redis
// client is returned separately so the readiness probe can ping it.
func newSessionStore(cfg *config.Config, db *sql.DB) (auth.SessionStore, *redis.Client, error) {
	if cfg.Session.Backend == "redis" {
		store, err := auth.NewRedisSessionStore(cfg.Session.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Client(), nil
	}
	return auth.NewSQLSessionStore(db), nil, nil
}

func newMediaResolver(cfg *config.Config) (*media.Resolver, error) {
	if cfg.MediaDefaultsFile == "" {
		return media.NewResolver(), nil
	}
	return media.NewResolverFromFile(cfg.MediaDefaultsFile)
}

func newHealthServer(cfg *config.Config, db *sql.DB, redisClient *redis.Client, registry *prometheus.Registry) *http.Server {
	checker := observability.NewHealthChecker(db, redisClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", observability.MetricsHandler(registry))
	}

	return &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// newScheduler sets up the nightly jobs: purging expired session rows
// and rolling up analytics events. Expiry is enforced lazily on every
// request; the purge only keeps the table from growing.
func newScheduler(sessions auth.SessionStore, aggregator *analytics.Aggregator, metrics *observability.Metrics, logger *observability.Logger) *cron.Cron {
	c := cron.New()

	mustSchedule(c, purgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		purged, err := sessions.PurgeExpired(ctx, time.Now().UTC())
		if err != nil {
			logger.WithError(err).Warn("session purge failed")
			return
		}
		metrics.SessionsPurged.Add(float64(purged))
		logger.WithField("purged", purged).Info("expired sessions purged")
	})

	mustSchedule(c, rollupSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := aggregator.AggregateAll(ctx, yesterday); err != nil {
			logger.WithError(err).Warn("analytics rollup failed")
			return
		}
		logger.WithField("date", yesterday.Format("2006-01-02")).Info("analytics rollup completed")
	})

	return c
}

func mustSchedule(c *cron.Cron, schedule string, job func()) {
	if _, err := c.AddFunc(schedule, job); err != nil {
		// Schedules are compile-time constants.
		panic(err)
	}
}
