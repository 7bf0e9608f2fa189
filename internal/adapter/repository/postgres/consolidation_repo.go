package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
)

type groupPool interface {
	dbtx
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ConsolidationRepository implements usecase.ConsolidationRepository.
// Membership lives only in consolidation_group_entities.
type ConsolidationRepository struct {
	db groupPool
}

// NewConsolidationRepository creates a new ConsolidationRepository.
func NewConsolidationRepository(pool *pgxpool.Pool) *ConsolidationRepository {
	return newConsolidationRepositoryWithDB(pool)
}

func newConsolidationRepositoryWithDB(db groupPool) *ConsolidationRepository {
	return &ConsolidationRepository{db: db}
}

// CreateGroup inserts a group and its initial members atomically.
func (r *ConsolidationRepository) CreateGroup(ctx context.Context, g *domain.ConsolidationGroup) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO consolidation_groups (id, client_id, name, currency, start_date, end_date, period_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.ClientID, g.Name, g.Currency, g.StartDate, g.EndDate, string(g.PeriodType), g.CreatedAt)
	if err != nil {
		return err
	}

	for _, entityID := range g.EntityIDs {
		if err := insertMember(ctx, tx, g.ID, entityID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetGroup returns the group row; EntityIDs is left empty.
func (r *ConsolidationRepository) GetGroup(ctx context.Context, groupID string) (*domain.ConsolidationGroup, error) {
	var (
		g          domain.ConsolidationGroup
		periodType string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, client_id, name, currency, start_date, end_date, period_type, created_at
		FROM consolidation_groups
		WHERE id = $1`, groupID).
		Scan(&g.ID, &g.ClientID, &g.Name, &g.Currency, &g.StartDate, &g.EndDate, &periodType, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	g.PeriodType = domain.PeriodType(periodType)
	return &g, nil
}

// MemberEntityIDs reads the current membership of a group.
func (r *ConsolidationRepository) MemberEntityIDs(ctx context.Context, groupID string) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT entity_id FROM consolidation_group_entities
		WHERE group_id = $1
		ORDER BY entity_id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// AddEntity links an entity to a group.
func (r *ConsolidationRepository) AddEntity(ctx context.Context, groupID string, entityID int64) error {
	return insertMember(ctx, r.db, groupID, entityID)
}

// RemoveEntity unlinks an entity from a group.
func (r *ConsolidationRepository) RemoveEntity(ctx context.Context, groupID string, entityID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM consolidation_group_entities WHERE group_id = $1 AND entity_id = $2`,
		groupID, entityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func insertMember(ctx context.Context, db dbtx, groupID string, entityID int64) error {
	_, err := db.Exec(ctx,
		`INSERT INTO consolidation_group_entities (group_id, entity_id) VALUES ($1, $2)`,
		groupID, entityID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: entity %d", domain.ErrDuplicateMember, entityID)
	}
	return err
}
