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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/bookkeeper/internal/adapter/http"
	"github.com/iho/bookkeeper/internal/adapter/http/handler"
	"github.com/iho/bookkeeper/internal/adapter/http/middleware"
	"github.com/iho/bookkeeper/internal/app"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/eventpublisher"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
)

const rateLimiterCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := app.NewLogger(cfg, "bookkeeper-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, redisClient, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer redisClient.Close()

	m := metrics.New()
	svc := app.NewServices(cfg, pool, redisClient, m, logger)

	health := handler.NewHealthHandler().
		WithCheck("postgres", pool).
		WithCheck("redis", handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))

	rateLimiter := newRateLimiter(cfg)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		BatchHandler:         handler.NewBatchHandler(svc.Validation, svc.Posting, logger),
		JournalHandler:       handler.NewJournalHandler(svc.Journals),
		ReferenceHandler:     handler.NewReferenceHandler(svc.Reference),
		ConsolidationHandler: handler.NewConsolidationHandler(svc.Consolidation),
		AccrualHandler:       handler.NewAccrualHandler(svc.Accruals, logger),
		LedgerHandler:        handler.NewLedgerHandler(svc.Ledger),
		HealthHandler:        health,
		IdempotencyStore:     svc.Idempotency,
		IdempotencyTTL:       cfg.IdempotencyTTL,
		RateLimiter:          rateLimiter,
		Logger:               logger,
	})

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: svc.Outbox,
		Publisher:  eventpublisher.NewRedisStreamPublisher(redisClient, cfg.OutboxStream, cfg.OutboxStreamMax),
		Logger:     logger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
		Published:  m.OutboxPublished,
		Failed:     m.OutboxErrors,
	})

	server := newHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event publisher: %w", err)
		}
		return nil
	})
	if rateLimiter != nil {
		g.Go(func() error {
			rateLimiter.RunCleanup(gctx, rateLimiterCleanupInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// newRateLimiter returns nil when rate limiting is disabled.
func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, burst)
}
