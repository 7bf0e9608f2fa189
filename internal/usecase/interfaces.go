package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// ReferenceDataReader is the read-only view of a client's chart of accounts
// and dimensions.
type ReferenceDataReader interface {
	GetAccounts(ctx context.Context, clientID int64) ([]*domain.Account, error)
	GetDimensions(ctx context.Context, clientID int64) ([]*domain.Dimension, error)
}

// ClientRepository resolves client ids.
type ClientRepository interface {
	Exists(ctx context.Context, clientID int64) (bool, error)
}

// AccountLocker resolves account codes to accounts inside a transaction,
// holding a share lock so they cannot be deactivated until commit.
type AccountLocker interface {
	GetByCodesForShare(ctx context.Context, tx Transaction, clientID int64, codes []string) ([]*domain.Account, error)
}

// JournalRepository defines data access for journal entries and their lines.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.JournalStatus, postedAt *time.Time) error
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
}

// AccrualScheduleRepository defines data access for accrual reversal schedules.
type AccrualScheduleRepository interface {
	Create(ctx context.Context, tx Transaction, schedule *domain.AccrualReversalSchedule) error
	// ListDue returns one page of unprocessed rows with reversal date on or
	// before asOf, ordered by reversal date then id. A non-nil after resumes
	// strictly after that position.
	ListDue(ctx context.Context, asOf time.Time, after *domain.ScheduleCursor, limit int) ([]*domain.AccrualReversalSchedule, error)
	// ClaimForUpdate locks the row; it returns nil when the row is already
	// processed or locked by a concurrent run.
	ClaimForUpdate(ctx context.Context, tx Transaction, id string) (*domain.AccrualReversalSchedule, error)
	MarkProcessed(ctx context.Context, tx Transaction, id, reversalEntryID string, processedAt time.Time) error
	RecordFailure(ctx context.Context, id, reason string, at time.Time) error
}

// ConsolidationRepository defines data access for consolidation groups.
type ConsolidationRepository interface {
	CreateGroup(ctx context.Context, group *domain.ConsolidationGroup) error
	GetGroup(ctx context.Context, groupID string) (*domain.ConsolidationGroup, error)
	// MemberEntityIDs reads the current membership from the junction relation.
	MemberEntityIDs(ctx context.Context, groupID string) ([]int64, error)
	AddEntity(ctx context.Context, groupID string, entityID int64) error
	RemoveEntity(ctx context.Context, groupID string, entityID int64) error
}

// PostedLedgerReader reads posted ledger lines for reporting.
type PostedLedgerReader interface {
	// PostedLines returns posted lines attributed to entityID whose entry date
	// falls within [start, end], ordered by entry date, entry id, line number.
	PostedLines(ctx context.Context, entityID int64, start, end time.Time) ([]domain.PostedLine, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
	UnbalancedEntries(ctx context.Context, tolerance decimal.Decimal, limit int) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RunLock provides mutual exclusion across processes.
type RunLock interface {
	// Acquire returns ok=false when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so a failed request can be retried.
	Delete(ctx context.Context, key string) error
}

// MetricsRecorder receives business metrics from the use cases.
type MetricsRecorder interface {
	BatchValidated(groups, invalid int, issues map[domain.ErrorKind]int)
	BatchPosted(entries int, duration time.Duration)
	BatchFailed(reason string)
	ReversalProcessed(success bool)
	ReportGenerated(reportType domain.ReportType, entities int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) BatchValidated(int, int, map[domain.ErrorKind]int)     {}
func (noopMetrics) BatchPosted(int, time.Duration)                        {}
func (noopMetrics) BatchFailed(string)                                    {}
func (noopMetrics) ReversalProcessed(bool)                                {}
func (noopMetrics) ReportGenerated(domain.ReportType, int, time.Duration) {}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }
