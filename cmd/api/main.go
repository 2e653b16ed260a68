package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency_backend/internal/affiliates"
	"agency_backend/internal/archive"
	"agency_backend/internal/auth"
	"agency_backend/internal/email"
	"agency_backend/internal/events"
	"agency_backend/internal/exports"
	apphttp "agency_backend/internal/http"
	"agency_backend/internal/http/router"
	"agency_backend/internal/notification"
	"agency_backend/internal/quotes"
	"agency_backend/internal/scheduler"
	"agency_backend/migrations"
	"agency_backend/platform/config"
	"agency_backend/platform/db"
	platformevents "agency_backend/platform/events"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/logger"
	"agency_backend/platform/metrics"
	"agency_backend/platform/ratelimit"
	"agency_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := platformevents.NewInMemoryBus(log)
	appMetrics := metrics.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	queue, closeQueue := initNotificationQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	dispatcher, err := notification.New(cfg, sender, queue, appMetrics, log)
	if err != nil {
		log.Error("failed to initialize notifications", "error", err)
		panic("failed to initialize notifications: " + err.Error())
	}

	publicLimiter, closeLimiter := initPublicLimiter(cfg, log)
	if closeLimiter != nil {
		defer closeLimiter()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(cfg, val, log)
	affiliatesModule := affiliates.NewModule(pool, val)

	quotesModule, err := quotes.NewModule(pool, cfg, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize quotes module", "error", err)
		panic("failed to initialize quotes module: " + err.Error())
	}
	quotesModule.SetNotifier(dispatcher)
	quotesModule.SetDiscountValidator(affiliatesModule.Service())
	quotesModule.RegisterMetrics(eventBus, appMetrics)

	exportsModule := exports.NewModule(quotesModule.Service(), val)

	initArchive(ctx, cfg, log, eventBus, quotesModule)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        pool,
		EventBus:      eventBus,
		Metrics:       appMetrics,
		PublicLimiter: publicLimiter,
		Modules: []apphttp.Module{
			authModule,
			affiliatesModule,
			quotesModule,
			exportsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Let in-flight event handlers (archive snapshots) finish.
		eventBus.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initNotificationQueue(cfg *config.Config, log *logger.Logger) (notification.Enqueuer, func()) {
	if cfg.GetNotificationMode() != config.NotificationModeQueue {
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	return client, func() {
		_ = client.Close()
	}
}

// initPublicLimiter shares the public rate limit through redis when it is
// configured, so several API instances count against the same window.
func initPublicLimiter(cfg *config.Config, log *logger.Logger) (httpkit.Limiter, func()) {
	perMinute := cfg.GetPublicRateLimitPerMinute()
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; public rate limit is per instance")
		return httpkit.NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), perMinute, log), nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	client := redis.NewClient(opts)
	return ratelimit.NewRedisLimiter(client, "ratelimit:public", perMinute, time.Minute), func() {
		_ = client.Close()
	}
}

func initArchive(ctx context.Context, cfg *config.Config, log *logger.Logger, bus events.Bus, quotesModule *quotes.Module) {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; accepted quotes are not archived")
		return
	}

	store, err := archive.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize archive storage", "error", err)
		panic("failed to initialize archive storage: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure archive bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinIOArchiveBucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}

	archive.New(store, quotesModule.Service(), log).Subscribe(bus)
	log.Info("quote archive enabled", "bucket", cfg.GetMinIOArchiveBucket())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
