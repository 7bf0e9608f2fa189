package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository and
// usecase.PostedLedgerReader over posted journal lines.
type LedgerRepository struct {
	db dbtx
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepositoryWithDB(pool)
}

func newLedgerRepositoryWithDB(db dbtx) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency sums every posted debit and credit in the ledger.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalDebits decimal.Decimal, totalCredits decimal.Decimal, err error) {
	var debits, credits string
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'debit'), 0)::text,
		       COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'credit'), 0)::text
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.status = 'posted'`).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if totalDebits, err = decimal.NewFromString(debits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if totalCredits, err = decimal.NewFromString(credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return totalDebits, totalCredits, nil
}

// UnbalancedEntries lists posted entries whose own debits and credits differ
// by more than tolerance.
func (r *LedgerRepository) UnbalancedEntries(ctx context.Context, tolerance decimal.Decimal, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		WHERE e.status = 'posted'
		GROUP BY e.id
		HAVING ABS(SUM(CASE WHEN l.side = 'debit' THEN l.amount ELSE -l.amount END)) > $1::numeric
		ORDER BY e.id
		LIMIT $2`, tolerance.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// PostedLines returns posted lines attributed to entityID within [start, end].
// A line's own entity overrides the entity of its entry.
func (r *LedgerRepository) PostedLines(ctx context.Context, entityID int64, start, end time.Time) ([]domain.PostedLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.entry_date, a.id, a.code, a.name, a.type, l.side, l.amount::text
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.status = 'posted'
		  AND COALESCE(l.entity_id, e.entity_id) = $1
		  AND e.entry_date BETWEEN $2 AND $3
		ORDER BY e.entry_date, e.id, l.line_no`, entityID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.PostedLine, 0)
	for rows.Next() {
		var (
			pl                domain.PostedLine
			accountType, side string
			amount            string
		)
		if err := rows.Scan(&pl.EntryID, &pl.EntryDate, &pl.AccountID, &pl.AccountCode, &pl.AccountName,
			&accountType, &side, &amount); err != nil {
			return nil, err
		}
		pl.EntityID = entityID
		pl.AccountType = domain.AccountType(accountType)
		pl.Side = domain.Side(side)
		if pl.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("entry %s amount: %w", pl.EntryID, err)
		}
		lines = append(lines, pl)
	}

	return lines, rows.Err()
}
