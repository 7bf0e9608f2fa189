package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/usecase"
)

// LedgerChecker runs the ledger-wide integrity check.
type LedgerChecker interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerConsistencyJob is the asynq handler for TaskLedgerConsistency.
type LedgerConsistencyJob struct {
	checker LedgerChecker
	logger  zerolog.Logger
}

// NewLedgerConsistencyJob constructs the job handler.
func NewLedgerConsistencyJob(checker LedgerChecker, logger zerolog.Logger) *LedgerConsistencyJob {
	return &LedgerConsistencyJob{checker: checker, logger: logger}
}

// Handle runs the check. An inconsistent ledger is logged and not retried
// since a retry would read the same rows.
func (j *LedgerConsistencyJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.checker == nil {
		return errors.New("ledger consistency: dependencies not configured")
	}

	report, err := j.checker.CheckConsistency(ctx)
	if err != nil {
		if errors.Is(err, usecase.ErrInconsistentLedger) && report != nil {
			j.logger.Error().
				Str("total_debits", report.TotalDebits.String()).
				Str("total_credits", report.TotalCredits.String()).
				Strs("unbalanced_entry_ids", report.UnbalancedEntryIDs).
				Msg("ledger is inconsistent")
			return fmt.Errorf("ledger consistency: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("ledger consistency: %w", err)
	}

	j.logger.Info().
		Str("total_debits", report.TotalDebits.String()).
		Msg("ledger consistent")
	return nil
}
