package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to the audit_events table. The
// table is INSERT-only; retention is an operational concern.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, type, actor_user_id, actor_email, ip_address, target_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, string(e.Type), e.ActorUserID, e.ActorEmail, e.IPAddress, e.TargetID, e.Message, e.CreatedAt,
	)
	return err
}
