package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccrualReversalUseCase posts offsetting entries for accruals whose reversal
// date has arrived.
type AccrualReversalUseCase struct {
	txManager  TransactionManager
	journals   JournalRepository
	schedules  AccrualScheduleRepository
	outbox     OutboxRepository
	audit      AuditRepository
	idGen      IDGenerator
	retrier    Retrier
	lock       RunLock
	lockTTL    time.Duration
	batchLimit int
	metrics    MetricsRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAccrualReversalUseCase creates a new AccrualReversalUseCase.
func NewAccrualReversalUseCase(
	txManager TransactionManager,
	journals JournalRepository,
	schedules AccrualScheduleRepository,
	outbox OutboxRepository,
	idGen IDGenerator,
) *AccrualReversalUseCase {
	return &AccrualReversalUseCase{
		txManager:  txManager,
		journals:   journals,
		schedules:  schedules,
		outbox:     outbox,
		idGen:      idGen,
		retrier:    noRetry{},
		lockTTL:    10 * time.Minute,
		batchLimit: DefaultAccrualBatchLimit,
		metrics:    noopMetrics{},
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
}

// WithRunLock guards each run with a cross-process lock held for at most ttl.
func (uc *AccrualReversalUseCase) WithRunLock(lock RunLock, ttl time.Duration) *AccrualReversalUseCase {
	uc.lock = lock
	if ttl > 0 {
		uc.lockTTL = ttl
	}
	return uc
}

// WithBatchLimit sets the page size used to walk the due rows. Every due row
// is still visited in a run.
func (uc *AccrualReversalUseCase) WithBatchLimit(limit int) *AccrualReversalUseCase {
	if limit > 0 {
		uc.batchLimit = limit
	}
	return uc
}

// WithRetrier retries each reversal transaction on transient storage errors.
func (uc *AccrualReversalUseCase) WithRetrier(r Retrier) *AccrualReversalUseCase {
	if r != nil {
		uc.retrier = r
	}
	return uc
}

// WithAudit records an audit row per reversal.
func (uc *AccrualReversalUseCase) WithAudit(a AuditRepository) *AccrualReversalUseCase {
	uc.audit = a
	return uc
}

// WithMetrics sets the metrics recorder.
func (uc *AccrualReversalUseCase) WithMetrics(m MetricsRecorder) *AccrualReversalUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithLogger sets the logger.
func (uc *AccrualReversalUseCase) WithLogger(l zerolog.Logger) *AccrualReversalUseCase {
	uc.logger = l
	return uc
}

// WithClock overrides the time source.
func (uc *AccrualReversalUseCase) WithClock(now func() time.Time) *AccrualReversalUseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// ProcessDueAccrualReversals reverses every unprocessed schedule row whose
// reversal date is on or before today. Each row is handled in its own
// transaction; a failing row is logged, counted in FailCount and left
// scheduled for the next run. An error is returned only when the due rows
// cannot be listed or another run holds the lock.
func (uc *AccrualReversalUseCase) ProcessDueAccrualReversals(ctx context.Context) (*domain.ReversalRunResult, error) {
	if uc.lock != nil {
		release, ok, err := uc.lock.Acquire(ctx, AccrualRunLockKey, uc.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire accrual run lock: %w", err)
		}
		if !ok {
			return nil, domain.ErrAccrualRunInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				uc.logger.Warn().Err(err).Msg("failed to release accrual run lock")
			}
		}()
	}

	now := uc.now().UTC()
	asOf := domain.TruncateDate(now)

	result := &domain.ReversalRunResult{ReversalIDs: []string{}}
	seen := 0
	var after *domain.ScheduleCursor
	for {
		page, err := uc.schedules.ListDue(ctx, asOf, after, uc.batchLimit)
		if err != nil {
			if after == nil {
				return nil, fmt.Errorf("list due accrual reversals: %w", err)
			}
			// Rows already reversed stay committed; the rest wait for the next run.
			uc.logger.Error().Err(err).Int("listed", seen).Msg("listing further due accrual reversals failed")
			break
		}
		seen += len(page)

		if !uc.processPage(ctx, page, now, result) {
			break
		}
		if len(page) < uc.batchLimit {
			break
		}
		cursor := page[len(page)-1].Cursor()
		after = &cursor
	}

	uc.logger.Info().
		Int("due", seen).
		Int("success", result.SuccessCount).
		Int("failed", result.FailCount).
		Msg("accrual reversal run finished")

	return result, nil
}

// processPage reverses each row of one due page. Failing rows are counted and
// recorded but never stop the page. It returns false when ctx is done.
func (uc *AccrualReversalUseCase) processPage(ctx context.Context, page []*domain.AccrualReversalSchedule, now time.Time, result *domain.ReversalRunResult) bool {
	for _, s := range page {
		if ctx.Err() != nil {
			uc.logger.Warn().Err(ctx.Err()).Msg("accrual reversal run interrupted")
			return false
		}

		reversalID, err := uc.reverse(ctx, s.ID, now)
		if err != nil {
			result.FailCount++
			uc.metrics.ReversalProcessed(false)
			uc.logger.Warn().Err(err).
				Str("schedule_id", s.ID).
				Str("entry_id", s.EntryID).
				Msg("accrual reversal failed, will retry next run")
			if recErr := uc.schedules.RecordFailure(ctx, s.ID, err.Error(), now); recErr != nil {
				uc.logger.Error().Err(recErr).Str("schedule_id", s.ID).Msg("failed to record reversal failure")
			}
			continue
		}
		if reversalID == "" {
			// Claimed by a concurrent run or already processed.
			continue
		}

		result.SuccessCount++
		result.ReversalIDs = append(result.ReversalIDs, reversalID)
		uc.metrics.ReversalProcessed(true)
		uc.recordAudit(ctx, s, reversalID, now)
	}
	return true
}

// reverse posts the mirror of one accrual entry and marks its schedule row
// processed in the same transaction. It returns "" when the row was skipped.
func (uc *AccrualReversalUseCase) reverse(ctx context.Context, scheduleID string, now time.Time) (string, error) {
	var reversalID string

	err := uc.retrier.Retry(ctx, func() error {
		reversalID = ""

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		schedule, err := uc.schedules.ClaimForUpdate(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		if schedule == nil || schedule.Processed {
			return nil
		}

		original, err := uc.journals.GetByIDTx(ctx, tx, schedule.EntryID)
		if err != nil {
			return err
		}
		if original.Status != domain.JournalStatusPosted {
			return fmt.Errorf("%w: %s is %s", domain.ErrOriginalNotPosted, original.ID, original.Status)
		}

		reversal := original.Reversal(uc.idGen.Generate, domain.TruncateDate(schedule.ReversalDate), now)
		if err := reversal.Validate(); err != nil {
			return err
		}
		if err := uc.journals.Create(ctx, tx, reversal); err != nil {
			return err
		}
		if err := uc.schedules.MarkProcessed(ctx, tx, schedule.ID, reversal.ID, now); err != nil {
			return err
		}

		event := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeJournalEntry, reversal.ID,
			domain.EventTypeAccrualReversed, domain.AccrualReversedEvent{
				ScheduleID:      schedule.ID,
				OriginalEntryID: original.ID,
				ReversalEntryID: reversal.ID,
				ReversalDate:    reversal.Date.Format(domain.DateLayout),
			}, now)
		if err := uc.outbox.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		reversalID = reversal.ID
		return nil
	})

	return reversalID, err
}

func (uc *AccrualReversalUseCase) recordAudit(ctx context.Context, s *domain.AccrualReversalSchedule, reversalID string, now time.Time) {
	if uc.audit == nil {
		return
	}

	log := domain.NewAuditLog(uc.idGen.Generate(), s.ClientID, domain.AuditActionAccrualReverse,
		domain.AuditResourceJournalEntry, reversalID, now).
		WithState(domain.JSON{"schedule_id": s.ID, "original_entry_id": s.EntryID})
	err := uc.audit.Create(ctx, log)
	if err != nil {
		uc.logger.Warn().Err(err).Str("schedule_id", s.ID).Msg("failed to write audit log")
	}
}
