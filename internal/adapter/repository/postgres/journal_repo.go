package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const entryColumns = `id, client_id, entity_id, batch_id, entry_date, description, reference,
	status, is_accrual, reversal_of_id, created_at, posted_at`

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	db dbtx
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return newJournalRepositoryWithDB(pool)
}

func newJournalRepositoryWithDB(db dbtx) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts an entry and its lines within a transaction.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	conn := txConn(tx)

	_, err := conn.Exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID,
		entry.ClientID,
		entry.EntityID,
		entry.BatchID,
		entry.Date,
		entry.Description,
		entry.Reference,
		string(entry.Status),
		entry.IsAccrual,
		entry.ReversalOfID,
		entry.CreatedAt,
		entry.PostedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && entry.ReversalOfID != nil {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyReversed, *entry.ReversalOfID)
		}
		return err
	}

	for _, l := range entry.Lines {
		dims, err := json.Marshal(dimensionsOrEmpty(l.Dimensions))
		if err != nil {
			return err
		}

		_, err = conn.Exec(ctx, `
			INSERT INTO journal_lines (id, entry_id, line_no, account_id, side, amount, description, entity_id, dimensions)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID,
			entry.ID,
			l.LineNo,
			l.AccountID,
			string(l.Side),
			l.Amount.String(),
			l.Description,
			l.EntityID,
			dims,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return getEntry(ctx, r.db, id, "")
}

// GetByIDTx retrieves an entry with its lines inside a transaction.
func (r *JournalRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return getEntry(ctx, txConn(tx), id, "")
}

// GetByIDForUpdate retrieves an entry and locks its row.
func (r *JournalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return getEntry(ctx, txConn(tx), id, "FOR UPDATE")
}

// UpdateStatus sets the lifecycle status and posting time of an entry.
func (r *JournalRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.JournalStatus, postedAt *time.Time) error {
	tag, err := txConn(tx).Exec(ctx,
		`UPDATE journal_entries SET status = $2, posted_at = $3 WHERE id = $1`,
		id, string(status), postedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJournalEntryNotFound
	}
	return nil
}

// List returns entries matching filter, newest first, with their lines.
func (r *JournalRepository) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	where := []string{"client_id = $1"}
	args := []any{filter.ClientID}

	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s
		ORDER BY entry_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.JournalEntry, 0)
	byID := make(map[string]*domain.JournalEntry)
	ids := make([]string, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, e)
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return entries, nil
	}

	lines, err := queryLines(ctx, r.db, `entry_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		e := byID[l.EntryID]
		e.Lines = append(e.Lines, l)
	}

	return entries, nil
}

func getEntry(ctx context.Context, db dbtx, id, lock string) (*domain.JournalEntry, error) {
	row := db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1 `+lock, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJournalEntryNotFound
		}
		return nil, err
	}

	entry.Lines, err = queryLines(ctx, db, `entry_id = $1`, id)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		e      domain.JournalEntry
		status string
	)
	err := row.Scan(&e.ID, &e.ClientID, &e.EntityID, &e.BatchID, &e.Date, &e.Description, &e.Reference,
		&status, &e.IsAccrual, &e.ReversalOfID, &e.CreatedAt, &e.PostedAt)
	if err != nil {
		return nil, err
	}
	e.Status = domain.JournalStatus(status)
	e.Lines = []domain.JournalLine{}
	return &e, nil
}

func queryLines(ctx context.Context, db dbtx, cond string, arg any) ([]domain.JournalLine, error) {
	rows, err := db.Query(ctx, `
		SELECT l.id, l.entry_id, l.line_no, l.account_id, a.code, l.side, l.amount::text,
		       l.description, l.entity_id, l.dimensions
		FROM journal_lines l
		JOIN accounts a ON a.id = l.account_id
		WHERE l.`+cond+`
		ORDER BY l.entry_id, l.line_no`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.JournalLine, 0)
	for rows.Next() {
		var (
			l      domain.JournalLine
			side   string
			amount string
			dims   []byte
		)
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNo, &l.AccountID, &l.AccountCode, &side, &amount,
			&l.Description, &l.EntityID, &dims); err != nil {
			return nil, err
		}
		l.Side = domain.Side(side)
		if l.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("line %s amount: %w", l.ID, err)
		}
		if len(dims) > 0 {
			if err := json.Unmarshal(dims, &l.Dimensions); err != nil {
				return nil, fmt.Errorf("line %s dimensions: %w", l.ID, err)
			}
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

func dimensionsOrEmpty(tags []domain.DimensionTag) []domain.DimensionTag {
	if tags == nil {
		return []domain.DimensionTag{}
	}
	return tags
}
