package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// BatchPostingUseCase commits approved entry groups as one atomic batch.
type BatchPostingUseCase struct {
	txManager TransactionManager
	accounts  AccountLocker
	journals  JournalRepository
	schedules AccrualScheduleRepository
	outbox    OutboxRepository
	audit     AuditRepository
	idGen     IDGenerator
	retrier   Retrier
	metrics   MetricsRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBatchPostingUseCase creates a new BatchPostingUseCase.
func NewBatchPostingUseCase(
	txManager TransactionManager,
	accounts AccountLocker,
	journals JournalRepository,
	schedules AccrualScheduleRepository,
	outbox OutboxRepository,
	idGen IDGenerator,
) *BatchPostingUseCase {
	return &BatchPostingUseCase{
		txManager: txManager,
		accounts:  accounts,
		journals:  journals,
		schedules: schedules,
		outbox:    outbox,
		idGen:     idGen,
		retrier:   noRetry{},
		metrics:   noopMetrics{},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
}

// WithRetrier retries the batch transaction on transient storage errors.
func (uc *BatchPostingUseCase) WithRetrier(r Retrier) *BatchPostingUseCase {
	if r != nil {
		uc.retrier = r
	}
	return uc
}

// WithAudit records an audit row for every batch attempt.
func (uc *BatchPostingUseCase) WithAudit(a AuditRepository) *BatchPostingUseCase {
	uc.audit = a
	return uc
}

// WithMetrics sets the metrics recorder.
func (uc *BatchPostingUseCase) WithMetrics(m MetricsRecorder) *BatchPostingUseCase {
	if m != nil {
		uc.metrics = m
	}
	return uc
}

// WithLogger sets the logger.
func (uc *BatchPostingUseCase) WithLogger(l zerolog.Logger) *BatchPostingUseCase {
	uc.logger = l
	return uc
}

// WithClock overrides the time source.
func (uc *BatchPostingUseCase) WithClock(now func() time.Time) *BatchPostingUseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// PostBatchInput represents input for posting a batch.
type PostBatchInput struct {
	ClientID  int64
	EntityID  *int64
	Groups    []domain.EntryGroup
	Settings  domain.BatchSettings
	RequestID string
}

// PostBatchResult describes a committed batch.
type PostBatchResult struct {
	BatchID            string
	CreatedCount       int
	CreatedEntryIDs    []string
	Status             domain.JournalStatus
	ScheduledReversals int
}

type preparedGroup struct {
	group domain.EntryGroup
	date  time.Time
}

// Post commits every group in one transaction. Either all entries (and their
// accrual schedules) are saved, or none are; on failure the returned error is
// a *domain.BatchPostError naming the failing groups, or a request-shape
// sentinel when the batch was rejected before any storage call.
func (uc *BatchPostingUseCase) Post(ctx context.Context, input PostBatchInput) (*PostBatchResult, error) {
	if len(input.Groups) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if input.EntityID == nil {
		return nil, domain.ErrMissingEntity
	}
	if input.Settings.IsAccrual && input.Settings.ReversalDate == nil {
		return nil, domain.ErrMissingReversalDate
	}

	prepared, err := uc.prepare(input)
	if err != nil {
		uc.metrics.BatchFailed("invalid_group")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	start := uc.now()

	var result *PostBatchResult
	err = uc.retrier.Retry(ctx, func() error {
		var txErr error
		result, txErr = uc.postInTx(ctx, input, prepared)
		return txErr
	})
	if err != nil {
		uc.metrics.BatchFailed(failureReason(err))
		uc.logger.Error().Err(err).
			Int64("client_id", input.ClientID).
			Int("groups", len(input.Groups)).
			Msg("batch posting rolled back")
		uc.recordAudit(ctx, input, "", domain.AuditStatusFailure, err, nil)
		return nil, err
	}

	uc.metrics.BatchPosted(result.CreatedCount, uc.now().Sub(start))
	uc.logger.Info().
		Int64("client_id", input.ClientID).
		Int64("entity_id", *input.EntityID).
		Str("batch_id", result.BatchID).
		Int("created", result.CreatedCount).
		Int("scheduled_reversals", result.ScheduledReversals).
		Msg("batch posted")
	uc.recordAudit(ctx, input, result.BatchID, domain.AuditStatusSuccess, nil, result)

	return result, nil
}

// prepare re-checks the shape and balance of every group before any
// transaction is opened.
func (uc *BatchPostingUseCase) prepare(input PostBatchInput) ([]preparedGroup, error) {
	prepared := make([]preparedGroup, 0, len(input.Groups))
	var failures []domain.GroupFailure

	fail := func(i int, g domain.EntryGroup, err error) {
		failures = append(failures, domain.GroupFailure{GroupKey: g.GroupKey, Index: i, Reason: err.Error(), Err: err})
	}

	for i, g := range input.Groups {
		date, ok := g.EntryDate()
		switch {
		case len(g.Lines) == 0:
			fail(i, g, domain.ErrEmptyEntryGroup)
			continue
		case !ok:
			fail(i, g, domain.ErrMissingEntryDate)
			continue
		case !g.IsBalanced():
			debits, credits := g.Totals()
			fail(i, g, fmt.Errorf("%w: debits %s, credits %s", domain.ErrUnbalancedEntry, debits.StringFixed(2), credits.StringFixed(2)))
			continue
		}

		if input.Settings.IsAccrual && !domain.TruncateDate(*input.Settings.ReversalDate).After(domain.TruncateDate(date)) {
			fail(i, g, fmt.Errorf("%w: %s is not after %s", domain.ErrInvalidReversalDate,
				input.Settings.ReversalDate.Format(domain.DateLayout), date.Format(domain.DateLayout)))
			continue
		}

		prepared = append(prepared, preparedGroup{group: g, date: domain.TruncateDate(date)})
	}

	if len(failures) > 0 {
		return nil, &domain.BatchPostError{Failures: failures}
	}
	return prepared, nil
}

func (uc *BatchPostingUseCase) postInTx(ctx context.Context, input PostBatchInput, prepared []preparedGroup) (*PostBatchResult, error) {
	groups := make([]domain.EntryGroup, len(prepared))
	for i, p := range prepared {
		groups[i] = p.group
	}
	// Sorted codes give every batch the same lock order.
	codes := domain.AccountCodes(groups)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accounts.GetByCodesForShare(ctx, tx, input.ClientID, codes)
	if err != nil {
		return nil, err
	}
	chart := domain.NewChartOfAccounts(accounts)

	now := uc.now().UTC()
	status := input.Settings.InitialStatus()
	result := &PostBatchResult{
		BatchID:         uc.idGen.Generate(),
		CreatedEntryIDs: make([]string, 0, len(prepared)),
		Status:          status,
	}

	for i, p := range prepared {
		entry, err := uc.buildEntry(input, result.BatchID, p, chart, status, now)
		if err != nil {
			return nil, groupFailure(i, p.group, err)
		}

		if err := uc.journals.Create(ctx, tx, entry); err != nil {
			return nil, groupFailure(i, p.group, err)
		}

		if input.Settings.IsAccrual {
			schedule := &domain.AccrualReversalSchedule{
				ID:           uc.idGen.Generate(),
				EntryID:      entry.ID,
				ClientID:     input.ClientID,
				ReversalDate: domain.TruncateDate(*input.Settings.ReversalDate),
				CreatedAt:    now,
			}
			if err := uc.schedules.Create(ctx, tx, schedule); err != nil {
				return nil, groupFailure(i, p.group, err)
			}
			result.ScheduledReversals++
		}

		if status == domain.JournalStatusPosted {
			if err := uc.outbox.Create(ctx, tx, journalPostedEvent(uc.idGen.Generate(), entry, now)); err != nil {
				return nil, groupFailure(i, p.group, err)
			}
		}

		result.CreatedEntryIDs = append(result.CreatedEntryIDs, entry.ID)
	}

	batchEvent := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeBatch, result.BatchID,
		domain.EventTypeJournalBatchPosted, domain.BatchPostedEvent{
			BatchID:   result.BatchID,
			ClientID:  input.ClientID,
			EntityID:  *input.EntityID,
			EntryIDs:  result.CreatedEntryIDs,
			IsAccrual: input.Settings.IsAccrual,
			Status:    string(status),
		}, now)
	if err := uc.outbox.Create(ctx, tx, batchEvent); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.CreatedCount = len(result.CreatedEntryIDs)
	return result, nil
}

func (uc *BatchPostingUseCase) buildEntry(
	input PostBatchInput,
	batchID string,
	p preparedGroup,
	chart domain.ChartOfAccounts,
	status domain.JournalStatus,
	now time.Time,
) (*domain.JournalEntry, error) {
	description := p.group.Description
	if description == "" {
		description = input.Settings.Description
	}

	entry := &domain.JournalEntry{
		ID:          uc.idGen.Generate(),
		ClientID:    input.ClientID,
		EntityID:    input.EntityID,
		BatchID:     batchID,
		Date:        p.date,
		Description: description,
		Reference:   p.group.Reference,
		Status:      status,
		IsAccrual:   input.Settings.IsAccrual,
		Lines:       make([]domain.JournalLine, 0, len(p.group.Lines)),
		CreatedAt:   now,
	}
	if status == domain.JournalStatusPosted {
		postedAt := now
		entry.PostedAt = &postedAt
	}

	for i, pl := range p.group.Lines {
		acc, ok := chart.Lookup(pl.AccountCode)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, pl.AccountCode)
		}
		if !acc.CanPost() {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, pl.AccountCode)
		}

		line := pl.Normalize(i + 1)
		line.ID = uc.idGen.Generate()
		line.EntryID = entry.ID
		line.AccountID = acc.ID
		entry.Lines = append(entry.Lines, line)
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *BatchPostingUseCase) recordAudit(ctx context.Context, input PostBatchInput, batchID string, status domain.AuditStatus, cause error, result *PostBatchResult) {
	if uc.audit == nil {
		return
	}

	log := domain.NewAuditLog(uc.idGen.Generate(), input.ClientID, domain.AuditActionBatchPost,
		domain.AuditResourceBatch, batchID, uc.now()).
		WithRequestID(input.RequestID)
	if status == domain.AuditStatusFailure {
		log.Failed(cause)
	}
	if result != nil {
		log.WithState(domain.MarshalState(result))
	}

	if err := uc.audit.Create(context.WithoutCancel(ctx), log); err != nil {
		uc.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to write audit log")
	}
}

func groupFailure(i int, g domain.EntryGroup, err error) error {
	reason := err.Error()
	if !isReferenceError(err) && !errors.Is(err, domain.ErrUnbalancedEntry) {
		reason = "storage failure"
	}
	return &domain.BatchPostError{Failures: []domain.GroupFailure{{
		GroupKey: g.GroupKey,
		Index:    i,
		Reason:   reason,
		Err:      err,
	}}}
}

func isReferenceError(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrAccountInactive)
}

func failureReason(err error) string {
	switch {
	case isReferenceError(err):
		return "reference_changed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "storage"
	}
}

func journalPostedEvent(id string, entry *domain.JournalEntry, at time.Time) *domain.OutboxEvent {
	debits, credits := entry.Totals()
	return domain.NewOutboxEvent(id, domain.AggregateTypeJournalEntry, entry.ID, domain.EventTypeJournalPosted,
		domain.JournalPostedEvent{
			EntryID:  entry.ID,
			ClientID: entry.ClientID,
			EntityID: entry.EntityID,
			Date:     entry.Date.Format(domain.DateLayout),
			Debits:   debits.StringFixed(2),
			Credits:  credits.StringFixed(2),
		}, at)
}
