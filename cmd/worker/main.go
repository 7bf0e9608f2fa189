package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iho/bookkeeper/internal/adapter/jobs"
	"github.com/iho/bookkeeper/internal/app"
	"github.com/iho/bookkeeper/internal/infrastructure/config"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := app.NewLogger(cfg, "bookkeeper-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, redisClient, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer redisClient.Close()

	svc := app.NewServices(cfg, pool, redisClient, metrics.New(), logger)

	redisOpts, err := app.AsynqRedisOpts(cfg)
	if err != nil {
		return err
	}

	workerCfg, err := buildWorkerConfig(cfg, redisOpts, svc.Accruals, svc.Ledger, logger, time.Now())
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(workerCfg)
	if err != nil {
		return err
	}
	return worker.Run(ctx)
}

// buildWorkerConfig registers the job handlers and their cron schedules.
// An empty cron expression leaves the task available for manual triggers only.
func buildWorkerConfig(
	cfg *config.Config,
	redisOpts asynq.RedisConnOpt,
	accruals jobs.AccrualProcessor,
	ledger jobs.LedgerChecker,
	logger zerolog.Logger,
	now time.Time,
) (jobs.WorkerConfig, error) {
	accrualTask, err := jobs.NewAccrualReverseTask("scheduler", now)
	if err != nil {
		return jobs.WorkerConfig{}, err
	}
	ledgerTask, err := jobs.NewLedgerConsistencyTask("scheduler", now)
	if err != nil {
		return jobs.WorkerConfig{}, err
	}

	var cron []jobs.CronRegistration
	if cfg.AccrualCron != "" {
		cron = append(cron, jobs.CronRegistration{Cronspec: cfg.AccrualCron, Task: accrualTask})
	}
	if cfg.LedgerCheckCron != "" {
		cron = append(cron, jobs.CronRegistration{Cronspec: cfg.LedgerCheckCron, Task: ledgerTask})
	}

	return jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAccrualReverseDue, Handler: jobs.NewAccrualReversalJob(accruals, logger).Handle},
			{Type: jobs.TaskLedgerConsistency, Handler: jobs.NewLedgerConsistencyJob(ledger, logger).Handle},
		},
		Cron: cron,
	}, nil
}
