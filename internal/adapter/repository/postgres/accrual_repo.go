package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const scheduleColumns = `id, entry_id, client_id, reversal_date, processed, processed_at,
	reversal_entry_id, attempts, last_error, created_at`

// AccrualScheduleRepository implements usecase.AccrualScheduleRepository.
type AccrualScheduleRepository struct {
	db dbtx
}

// NewAccrualScheduleRepository creates a new AccrualScheduleRepository.
func NewAccrualScheduleRepository(pool *pgxpool.Pool) *AccrualScheduleRepository {
	return newAccrualScheduleRepositoryWithDB(pool)
}

func newAccrualScheduleRepositoryWithDB(db dbtx) *AccrualScheduleRepository {
	return &AccrualScheduleRepository{db: db}
}

// Create inserts a schedule row within a transaction.
func (r *AccrualScheduleRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.AccrualReversalSchedule) error {
	_, err := txConn(tx).Exec(ctx, `
		INSERT INTO accrual_reversal_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID,
		s.EntryID,
		s.ClientID,
		s.ReversalDate,
		s.Processed,
		s.ProcessedAt,
		s.ReversalEntryID,
		s.Attempts,
		s.LastError,
		s.CreatedAt,
	)
	return err
}

// ListDue returns one keyset page of unprocessed rows due on or before asOf.
func (r *AccrualScheduleRepository) ListDue(ctx context.Context, asOf time.Time, after *domain.ScheduleCursor, limit int) ([]*domain.AccrualReversalSchedule, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if after == nil {
		rows, err = r.db.Query(ctx, `
			SELECT `+scheduleColumns+`
			FROM accrual_reversal_schedules
			WHERE processed = false AND reversal_date <= $1::date
			ORDER BY reversal_date, id
			LIMIT $2`, asOf, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+scheduleColumns+`
			FROM accrual_reversal_schedules
			WHERE processed = false AND reversal_date <= $1::date
			  AND (reversal_date, id) > ($2::date, $3)
			ORDER BY reversal_date, id
			LIMIT $4`, asOf, after.ReversalDate, after.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*domain.AccrualReversalSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

// ClaimForUpdate locks an unprocessed row. Rows that are already processed or
// locked by another worker yield nil.
func (r *AccrualScheduleRepository) ClaimForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AccrualReversalSchedule, error) {
	row := txConn(tx).QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM accrual_reversal_schedules
		WHERE id = $1 AND processed = false
		FOR UPDATE SKIP LOCKED`, id)

	s, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// MarkProcessed links the reversal entry and flips the row to processed.
func (r *AccrualScheduleRepository) MarkProcessed(ctx context.Context, tx usecase.Transaction, id, reversalEntryID string, processedAt time.Time) error {
	tag, err := txConn(tx).Exec(ctx, `
		UPDATE accrual_reversal_schedules
		SET processed = true, processed_at = $2, reversal_entry_id = $3, last_error = ''
		WHERE id = $1 AND processed = false`,
		id, processedAt, reversalEntryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReversed
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the last failure reason.
func (r *AccrualScheduleRepository) RecordFailure(ctx context.Context, id, reason string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accrual_reversal_schedules
		SET attempts = attempts + 1, last_error = $2, last_attempt_at = $3
		WHERE id = $1 AND processed = false`,
		id, reason, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}
	return nil
}

func scanSchedule(row pgx.Row) (*domain.AccrualReversalSchedule, error) {
	var s domain.AccrualReversalSchedule
	err := row.Scan(&s.ID, &s.EntryID, &s.ClientID, &s.ReversalDate, &s.Processed, &s.ProcessedAt,
		&s.ReversalEntryID, &s.Attempts, &s.LastError, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
