package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccrualProcessor runs one pass over the due reversal schedule.
type AccrualProcessor interface {
	ProcessDueAccrualReversals(ctx context.Context) (*domain.ReversalRunResult, error)
}

// AccrualReversalJob is the asynq handler for TaskAccrualReverseDue.
type AccrualReversalJob struct {
	processor AccrualProcessor
	logger    zerolog.Logger
}

// NewAccrualReversalJob constructs the job handler.
func NewAccrualReversalJob(processor AccrualProcessor, logger zerolog.Logger) *AccrualReversalJob {
	return &AccrualReversalJob{processor: processor, logger: logger}
}

// Handle runs the reversal pass. A concurrent run holding the lock is not an
// error: the other run covers the same rows.
func (j *AccrualReversalJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.processor == nil {
		return errors.New("accrual reversal: dependencies not configured")
	}
	payload, err := decodeTrigger(task)
	if err != nil {
		return fmt.Errorf("accrual reversal: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := j.processor.ProcessDueAccrualReversals(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAccrualRunInProgress) {
			j.logger.Info().Str("triggered_by", payload.TriggeredBy).Msg("accrual reversal run skipped, another run holds the lock")
			return nil
		}
		return fmt.Errorf("accrual reversal: %w", err)
	}

	event := j.logger.Info()
	if result.FailCount > 0 {
		event = j.logger.Warn()
	}
	event.
		Str("triggered_by", payload.TriggeredBy).
		Int("success_count", result.SuccessCount).
		Int("fail_count", result.FailCount).
		Msg("accrual reversal run finished")
	return nil
}
