// Package app wires configuration, storage and use cases for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/bookkeeper/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bookkeeper/internal/adapter/repository/redis"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/logger"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/infrastructure/redis"
	"github.com/iho/bookkeeper/internal/usecase"
)

// NewLogger builds the process logger from configuration, tagging every event
// with the binary's service name.
func NewLogger(cfg *config.Config, service string) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: service})
}

// Connect opens the postgres pool and redis client, applying migrations
// first when enabled.
func Connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, *goredis.Client, error) {
	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Msg("connected to redis")

	return pool, redisClient, nil
}

// AsynqRedisOpts converts the redis URL for the job queue.
func AsynqRedisOpts(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opts, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

// Services holds the repositories and use cases shared by the binaries.
type Services struct {
	Reference   *postgresRepo.ReferenceRepository
	Outbox      *postgresRepo.OutboxRepository
	Idempotency *redisRepo.IdempotencyStore

	Validation    *usecase.BatchValidationUseCase
	Posting       *usecase.BatchPostingUseCase
	Accruals      *usecase.AccrualReversalUseCase
	Consolidation *usecase.ConsolidationUseCase
	Journals      *usecase.JournalUseCase
	Ledger        *usecase.LedgerUseCase
}

// NewServices builds every use case over postgres and redis.
func NewServices(cfg *config.Config, pool *pgxpool.Pool, redisClient *goredis.Client, m *metrics.Metrics, log zerolog.Logger) *Services {
	txManager := postgresRepo.NewTxManager(pool).WithIsoLevel(pgx.RepeatableRead)
	reference := postgresRepo.NewReferenceRepository(pool)
	journals := postgresRepo.NewJournalRepository(pool)
	schedules := postgresRepo.NewAccrualScheduleRepository(pool)
	groups := postgresRepo.NewConsolidationRepository(pool)
	ledger := postgresRepo.NewLedgerRepository(pool)
	outbox := postgresRepo.NewOutboxRepository(pool)
	audit := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier().WithLogger(log)

	validation := usecase.NewBatchValidationUseCase(reference, reference)
	posting := usecase.NewBatchPostingUseCase(txManager, reference, journals, schedules, outbox, idGen).
		WithRetrier(retrier).
		WithAudit(audit).
		WithLogger(log.With().Str("component", "batch_posting").Logger())
	accruals := usecase.NewAccrualReversalUseCase(txManager, journals, schedules, outbox, idGen).
		WithRunLock(redisRepo.NewLocker(redisClient), cfg.AccrualLockTTL).
		WithBatchLimit(cfg.AccrualBatchLimit).
		WithRetrier(retrier).
		WithAudit(audit).
		WithLogger(log.With().Str("component", "accrual_reversal").Logger())
	consolidation := usecase.NewConsolidationUseCase(groups, ledger, idGen).
		WithConcurrency(cfg.ReportConcurrency).
		WithAudit(audit).
		WithLogger(log.With().Str("component", "consolidation").Logger())

	if m != nil {
		retrier.WithOnRetry(m.DBRetry)
		validation.WithMetrics(m)
		posting.WithMetrics(m)
		accruals.WithMetrics(m)
		consolidation.WithMetrics(m)
	}

	return &Services{
		Reference:     reference,
		Outbox:        outbox,
		Idempotency:   redisRepo.NewIdempotencyStore(redisClient),
		Validation:    validation,
		Posting:       posting,
		Accruals:      accruals,
		Consolidation: consolidation,
		Journals: usecase.NewJournalUseCase(txManager, journals, outbox, idGen).
			WithAudit(audit).
			WithLogger(log.With().Str("component", "journal").Logger()),
		Ledger: usecase.NewLedgerUseCase(ledger),
	}
}
