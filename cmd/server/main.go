// Package main is the entrypoint for the article generation backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AhmedAllulu/articles-backend-sub000/internal/api"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/api/handler"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/cache"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/catalog"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/config"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/content"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/generate"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/images"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/quota"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/scheduler"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/store"
	"github.com/AhmedAllulu/articles-backend-sub000/internal/trends"
)

const shutdownTimeout = 30 * time.Second

const (
	jobTrendRefresh      = "trend-refresh"
	jobArticleGeneration = "article-generation"
	jobQuotaReset        = "quota-reset"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "content_provider", cfg.Content.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	cat, err := catalog.New()
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	pgStore := store.NewPostgresStore(pool, cat)

	quotaMgr := quota.NewManager(pgStore, cat, cfg.Quota, cfg.Trends)
	if err := quotaMgr.LoadCredentials(ctx); err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	generator, err := content.NewPipeline(cfg.Content, redisCache)
	if err != nil {
		return fmt.Errorf("create content generator: %w", err)
	}
	slog.Info("content generator initialized", "provider", generator.Name())

	var imageClient images.Client = images.Noop{}
	if cfg.Images.BaseURL != "" {
		imageClient = images.NewHTTPClient(cfg.Images.BaseURL, cfg.Images.APIKey, cfg.Images.Timeout)
	}

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Jobs.Timezone, err)
	}

	discovery := trends.NewHTTPClient(cfg.Trends.BaseURL, cfg.Trends.Timeout)
	refresher := trends.NewRefresher(quotaMgr, pgStore, discovery, cfg.Trends.BatchSize)
	orchestrator := generate.NewOrchestrator(pgStore, cat, generator, imageClient, cfg.Generate, loc)

	runner := scheduler.NewRunner(cfg.Jobs.ProgressInterval)

	runRefresh := func(ctx context.Context, count int, force bool) (*trends.RefreshStats, error) {
		if count <= 0 {
			count = cfg.Trends.CombinationsPerRun
		}
		var stats *trends.RefreshStats
		outcome, err := runner.Run(ctx, jobTrendRefresh, func(ctx context.Context) error {
			var runErr error
			stats, runErr = refresher.Run(ctx, count, force)
			if runErr != nil {
				return runErr
			}
			if stats.Outcome == trends.OutcomePartial {
				return fmt.Errorf("refresh partial: %d of %d combinations failed", stats.Failed, stats.Selected)
			}
			return nil
		})
		if outcome == scheduler.OutcomeSkipped {
			return &trends.RefreshStats{Outcome: trends.OutcomeSkipped, Reason: "already_running"}, nil
		}
		return stats, err
	}
	runGenerate := func(ctx context.Context, dailyCap int, force bool) (*generate.CycleStats, error) {
		if dailyCap <= 0 {
			dailyCap = cfg.Generate.DailyCap
		}
		var stats *generate.CycleStats
		outcome, err := runner.Run(ctx, jobArticleGeneration, func(ctx context.Context) error {
			var runErr error
			stats, runErr = orchestrator.RunCycle(ctx, generate.Options{
				DailyCap:        dailyCap,
				MaxCombinations: cfg.Generate.MaxCombinations,
				Force:           force,
			})
			if runErr != nil {
				return runErr
			}
			if stats.Outcome == generate.OutcomePartial {
				return fmt.Errorf("generation partial: %d of %d attempts failed", stats.Failed, stats.Attempted)
			}
			return nil
		})
		if outcome == scheduler.OutcomeSkipped {
			return &generate.CycleStats{Outcome: generate.OutcomeSkipped, Reason: "already_running"}, nil
		}
		return stats, err
	}
	runQuotaReset := func() {
		_, _ = runner.Run(ctx, jobQuotaReset, quotaMgr.LoadCredentials)
	}

	cronSched := scheduler.NewCron(loc)
	if err := cronSched.Add(jobTrendRefresh, cfg.Jobs.RefreshSpec, func() { _, _ = runRefresh(ctx, 0, false) }); err != nil {
		return err
	}
	if err := cronSched.Add(jobArticleGeneration, cfg.Jobs.GenerateSpec, func() { _, _ = runGenerate(ctx, 0, false) }); err != nil {
		return err
	}
	if err := cronSched.Add(jobQuotaReset, cfg.Jobs.QuotaResetSpec, runQuotaReset); err != nil {
		return err
	}
	cronSched.Start()
	defer cronSched.Stop()
	slog.Info("jobs scheduled",
		"refresh", cfg.Jobs.RefreshSpec,
		"generate", cfg.Jobs.GenerateSpec,
		"quota_reset", cfg.Jobs.QuotaResetSpec,
		"timezone", cfg.Jobs.Timezone)

	deps := api.Dependencies{
		HealthHandler:   handler.NewHealthHandler(pgStore, redisCache),
		StatusHandler:   handler.NewStatusHandler(quotaMgr, runner, cronSched),
		TriggerRefresh: handler.NewTriggerHandler(jobTrendRefresh, func(ctx context.Context, p handler.TriggerParams) (any, error) {
			stats, err := runRefresh(ctx, p.Count, p.Force)
			if stats == nil {
				return nil, err
			}
			return stats, err
		}),
		TriggerGenerate: handler.NewTriggerHandler(jobArticleGeneration, func(ctx context.Context, p handler.TriggerParams) (any, error) {
			stats, err := runGenerate(ctx, p.DailyCap, p.Force)
			if stats == nil {
				return nil, err
			}
			return stats, err
		}),
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
