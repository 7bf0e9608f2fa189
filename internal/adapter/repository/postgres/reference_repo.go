package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

const accountColumns = `id, client_id, code, name, description, type, parent_code, active, created_at, updated_at`

// ReferenceRepository reads the externally owned reference data: clients,
// the chart of accounts and dimensions.
type ReferenceRepository struct {
	db dbtx
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return newReferenceRepositoryWithDB(pool)
}

func newReferenceRepositoryWithDB(db dbtx) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Exists reports whether the client is known.
func (r *ReferenceRepository) Exists(ctx context.Context, clientID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
	return exists, err
}

// GetAccounts returns the client's non-deleted accounts ordered by code.
func (r *ReferenceRepository) GetAccounts(ctx context.Context, clientID int64) ([]*domain.Account, error) {
	return queryAccounts(ctx, r.db, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE client_id = $1 AND deleted_at IS NULL
		ORDER BY code`, clientID)
}

// GetByCodesForShare loads the accounts named by codes and holds a share lock
// on them until the transaction ends, so a concurrent deactivation waits for
// the batch to finish. Rows are locked in code order.
func (r *ReferenceRepository) GetByCodesForShare(ctx context.Context, tx usecase.Transaction, clientID int64, codes []string) ([]*domain.Account, error) {
	if len(codes) == 0 {
		return []*domain.Account{}, nil
	}
	return queryAccounts(ctx, txConn(tx), `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE client_id = $1 AND code = ANY($2) AND deleted_at IS NULL
		ORDER BY code
		FOR SHARE`, clientID, codes)
}

// GetDimensions returns the client's dimensions with their values ordered by
// sort order.
func (r *ReferenceRepository) GetDimensions(ctx context.Context, clientID int64) ([]*domain.Dimension, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.code, d.name, v.id, v.code, v.name, v.sort_order
		FROM dimensions d
		LEFT JOIN dimension_values v ON v.dimension_id = d.id
		WHERE d.client_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.code, v.sort_order, v.code`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dimensions := make([]*domain.Dimension, 0)
	byID := make(map[int64]*domain.Dimension)
	for rows.Next() {
		var (
			dimID                int64
			dimCode, dimName     string
			valueID, sortOrder   *int64
			valueCode, valueName *string
		)
		if err := rows.Scan(&dimID, &dimCode, &dimName, &valueID, &valueCode, &valueName, &sortOrder); err != nil {
			return nil, err
		}

		d, ok := byID[dimID]
		if !ok {
			d = &domain.Dimension{ID: dimID, ClientID: clientID, Code: dimCode, Name: dimName, Values: []domain.DimensionValue{}}
			byID[dimID] = d
			dimensions = append(dimensions, d)
		}
		if valueID == nil {
			continue
		}

		v := domain.DimensionValue{ID: *valueID, Code: deref(valueCode)}
		v.Name = deref(valueName)
		if sortOrder != nil {
			v.SortOrder = int(*sortOrder)
		}
		d.Values = append(d.Values, v)
	}

	return dimensions, rows.Err()
}

func queryAccounts(ctx context.Context, db dbtx, sql string, args ...any) ([]*domain.Account, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		var (
			a           domain.Account
			accountType string
			description *string
		)
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Code, &a.Name, &description, &accountType,
			&a.ParentCode, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Type = domain.AccountType(accountType)
		a.Description = deref(description)
		accounts = append(accounts, &a)
	}

	return accounts, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
