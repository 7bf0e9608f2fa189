package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bookkeeper/internal/domain"
)

// JournalUseCase handles journal entry reads and the approval lifecycle.
type JournalUseCase struct {
	txManager TransactionManager
	journals  JournalRepository
	outbox    OutboxRepository
	audit     AuditRepository
	idGen     IDGenerator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewJournalUseCase creates a new JournalUseCase.
func NewJournalUseCase(txManager TransactionManager, journals JournalRepository, outbox OutboxRepository, idGen IDGenerator) *JournalUseCase {
	return &JournalUseCase{
		txManager: txManager,
		journals:  journals,
		outbox:    outbox,
		idGen:     idGen,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
}

// WithAudit records an audit row for status changes.
func (uc *JournalUseCase) WithAudit(a AuditRepository) *JournalUseCase {
	uc.audit = a
	return uc
}

// WithLogger sets the logger.
func (uc *JournalUseCase) WithLogger(l zerolog.Logger) *JournalUseCase {
	uc.logger = l
	return uc
}

// WithClock overrides the time source.
func (uc *JournalUseCase) WithClock(now func() time.Time) *JournalUseCase {
	if now != nil {
		uc.now = now
	}
	return uc
}

// GetEntry retrieves a journal entry with its lines.
func (uc *JournalUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journals.GetByID(ctx, id)
}

// ListEntries lists journal entries for a client.
func (uc *JournalUseCase) ListEntries(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.journals.List(ctx, filter)
}

// SubmitForApproval moves a draft entry to pending_approval.
func (uc *JournalUseCase) SubmitForApproval(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.transition(ctx, id, domain.JournalStatusPendingApproval, domain.AuditActionEntrySubmit)
}

// Approve posts a pending entry. Its lines must balance.
func (uc *JournalUseCase) Approve(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.transition(ctx, id, domain.JournalStatusPosted, domain.AuditActionEntryApprove)
}

func (uc *JournalUseCase) transition(ctx context.Context, id string, next domain.JournalStatus, action domain.AuditAction) (*domain.JournalEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.journals.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	if err := entry.TransitionTo(next, now); err != nil {
		return nil, err
	}

	if err := uc.journals.UpdateStatus(ctx, tx, entry.ID, entry.Status, entry.PostedAt); err != nil {
		return nil, err
	}

	if next == domain.JournalStatusPosted {
		if err := uc.outbox.Create(ctx, tx, journalPostedEvent(uc.idGen.Generate(), entry, now)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.audit != nil {
		log := domain.NewAuditLog(uc.idGen.Generate(), entry.ClientID, action,
			domain.AuditResourceJournalEntry, entry.ID, now).
			WithState(domain.JSON{"status": string(entry.Status)})
		if err := uc.audit.Create(ctx, log); err != nil {
			uc.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("failed to write audit log")
		}
	}

	return entry, nil
}
