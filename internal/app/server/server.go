package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"goalrisk/internal/domain/audit"
	"goalrisk/internal/domain/auth"
	"goalrisk/internal/domain/goalrisk"
	"goalrisk/internal/platform/config"
	"goalrisk/internal/platform/db"
	"goalrisk/internal/platform/jobs"
	"goalrisk/internal/platform/metrics"
	"goalrisk/internal/transport/http/api"
	goalriskhandler "goalrisk/internal/transport/http/handlers/goalrisk"
	"goalrisk/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Service *goalrisk.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// RouterDeps is everything NewRouter needs; nil Metrics disables /metrics.
type RouterDeps struct {
	Config      config.Config
	Service     *goalrisk.Service
	Perms       middleware.PermissionStore
	Idempotency *middleware.IdempotencyStore
	Audit       *audit.Service
	Metrics     *metrics.Collector
	Ready       func(ctx context.Context) error
}

func NewLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func LoadWeights(path string) (goalrisk.Weights, error) {
	if path == "" {
		return goalrisk.DefaultWeights(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return goalrisk.Weights{}, fmt.Errorf("read scoring config: %w", err)
	}
	return goalrisk.ParseWeights(data)
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	weights, err := LoadWeights(cfg.ScoringConfigPath)
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	collector := metrics.New()
	svc := goalrisk.NewService(goalrisk.NewStore(pool), goalrisk.NewAssessor(goalrisk.WithWeights(weights)), goalrisk.ServiceConfig{
		Concurrency:    cfg.MonitorConcurrency,
		OwnerCacheSize: cfg.OwnerHistoryCacheSize,
		OwnerCacheTTL:  cfg.OwnerHistoryCacheTTL,
	})
	svc.Observer = collector

	jobSvc := jobs.New(pool, svc, cfg)
	jobSvc.Observer = collector

	deps := RouterDeps{
		Config:      cfg,
		Service:     svc,
		Perms:       auth.NewStaticPermissions(),
		Idempotency: middleware.NewIdempotencyStore(pool),
		Audit:       audit.New(pool),
		Ready:       pool.Ping,
	}
	if cfg.MetricsEnabled {
		deps.Metrics = collector
	}

	return &App{
		Config:  cfg,
		DB:      pool,
		Service: svc,
		Jobs:    jobSvc,
		Metrics: collector,
		Router:  NewRouter(deps),
	}, nil
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(slog.Default()))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.Ready != nil {
			if err := deps.Ready(ctx); err != nil {
				slog.Warn("readiness check failed", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		handler := goalriskhandler.NewHandler(deps.Service, deps.Perms, deps.Idempotency, nil)
		if deps.Audit != nil {
			handler.Audit = deps.Audit
		}
		handler.RegisterRoutes(r)
	})

	return router
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() error {
	cfg := config.Load()
	slog.SetDefault(NewLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("goal risk server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
