// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/notification-registry/api/openapi"
	"github.com/bissquit/notification-registry/internal/config"
	"github.com/bissquit/notification-registry/internal/pkg/ctxlog"
	"github.com/bissquit/notification-registry/internal/pkg/httputil"
	"github.com/bissquit/notification-registry/internal/pkg/metrics"
	"github.com/bissquit/notification-registry/internal/pkg/postgres"
	"github.com/bissquit/notification-registry/internal/pkg/ratelimit"
	"github.com/bissquit/notification-registry/internal/subscriptions"
	subscriptionspostgres "github.com/bissquit/notification-registry/internal/subscriptions/postgres"
	"github.com/bissquit/notification-registry/internal/users"
	userspostgres "github.com/bissquit/notification-registry/internal/users/postgres"
	"github.com/bissquit/notification-registry/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	dbMetricsInterval    = 15 * time.Second
	statsMetricsInterval = 30 * time.Second
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	redis         *redis.Client
	ping          func(ctx context.Context) error
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
}

// handlers are the module handlers mounted under /api.
type handlers struct {
	subscriptions *subscriptions.Handler
	users         *users.Handler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
		ping:   db.Ping,
	}

	limiter, err := app.newLimiter(connectCtx)
	if err != nil {
		_ = app.closeStores()
		return nil, fmt.Errorf("setup rate limiter: %w", err)
	}

	subscriptionsService := subscriptions.NewService(subscriptionspostgres.NewRepository(db))
	usersService := users.NewService(userspostgres.NewRepository(db))

	metricsCtx, metricsCancel := context.WithCancel(context.Background())
	app.metricsCancel = metricsCancel

	go app.collectDBMetrics(metricsCtx)
	go app.collectSubscriptionStats(metricsCtx, subscriptionsService)

	router := app.newRouter(handlers{
		subscriptions: subscriptions.NewHandler(subscriptionsService),
		users:         users.NewHandler(usersService),
	}, limiter)

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// newLimiter returns nil when rate limiting is disabled. A configured Redis
// must answer a ping before the server starts.
func (a *App) newLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	cfg := a.config.RateLimit
	if !cfg.Enabled {
		a.logger.Warn("rate limiting is disabled")
		return nil, nil
	}

	limits := ratelimit.Config{Requests: cfg.Requests, Window: cfg.Window}

	if cfg.RedisURL == "" {
		a.logger.Info("rate limiting in process memory",
			"requests", cfg.Requests,
			"window", cfg.Window,
		)
		return ratelimit.NewMemory(limits)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.redis = client

	a.logger.Info("rate limiting in redis",
		"addr", opts.Addr,
		"requests", cfg.Requests,
		"window", cfg.Window,
	)
	return ratelimit.NewRedis(client, limits)
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	appendErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			appendErr(fmt.Errorf("shutdown server: %w", err))
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			appendErr(fmt.Errorf("shutdown metrics server: %w", err))
		}
	}()

	wg.Wait()

	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	var err error
	if a.redis != nil {
		if closeErr := a.redis.Close(); closeErr != nil {
			err = fmt.Errorf("close redis: %w", closeErr)
		}
	}
	a.db.Close()
	return err
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(dbMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// collectSubscriptionStats keeps the population gauges fresh between
// calls to the stats endpoint.
func (a *App) collectSubscriptionStats(ctx context.Context, service *subscriptions.Service) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx = ctxlog.WithAttrs(ctx, "component", "stats_collector")

	ticker := time.NewTicker(statsMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := service.GetStats(ctx); err != nil && ctx.Err() == nil {
				ctxlog.FromContext(ctx).Error("failed to collect subscription stats", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) newRouter(h handlers, limiter ratelimit.Limiter) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(httputil.SecurityHeadersMiddleware)
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(httputil.RecovererMiddleware)
	if a.config.Server.RequestTimeout > 0 {
		r.Use(httputil.TimeoutMiddleware(a.config.Server.RequestTimeout))
	}

	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	r.Get("/", a.rootHandler)
	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(httputil.RateLimitMiddleware(limiter))
		}

		r.Get("/openapi.yaml", openAPIHandler)
		r.Route("/notifications", h.subscriptions.RegisterRoutes)
		r.Route("/users", h.users.RegisterRoutes)
	})

	return r
}

func (a *App) rootHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "API is running")
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func openAPIHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Spec)
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
