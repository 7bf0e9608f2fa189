package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bookkeeper/internal/domain"
)

// AuditRepository appends rows to the audit trail. Writes happen outside
// the audited transaction, so a replayed id is ignored rather than failing.
type AuditRepository struct {
	db dbtx
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return newAuditRepositoryWithDB(pool)
}

func newAuditRepositoryWithDB(db dbtx) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	var state []byte
	if log.AfterState != nil {
		var err error
		if state, err = json.Marshal(log.AfterState); err != nil {
			return fmt.Errorf("encode audit state for %s %s: %w", log.ResourceType, log.ResourceID, err)
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (
			id, client_id, action, resource_type, resource_id,
			request_id, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		log.ID,
		log.ClientID,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		state,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log %s: %w", log.Action, err)
	}
	return nil
}
