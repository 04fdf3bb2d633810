package agents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists agents in the agents table.
type PostgresRepo struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const agentColumns = "id, agent_id, name, status, created_at, updated_at"

func scanAgent(row interface{ Scan(...any) error }) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.AgentID, &a.Name, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *PostgresRepo) GetByAgentID(ctx context.Context, agentID string) (Agent, error) {
	const q = `
SELECT id, agent_id, name, status, created_at, updated_at
FROM agents
WHERE agent_id = $1
`
	a, err := scanAgent(r.db.QueryRowContext(ctx, q, agentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}

func (r *PostgresRepo) List(ctx context.Context, p ListParams) ([]Agent, int, error) {
	where := ""
	args := []any{}
	if p.Status != "" {
		where = "WHERE status = $1"
		args = append(args, p.Status)
	}

	var total int
	countQ := fmt.Sprintf("SELECT COUNT(*) FROM agents %s", where)
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`
SELECT %s
FROM agents
%s
ORDER BY created_at DESC, id DESC
LIMIT %d OFFSET %d
`, agentColumns, where, p.Limit, p.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	now := r.clock().UTC()
	if a.Status == "" {
		a.Status = StatusActive
	}
	const q = `
INSERT INTO agents (agent_id, name, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING id, agent_id, name, status, created_at, updated_at
`
	created, err := scanAgent(r.db.QueryRowContext(ctx, q, a.AgentID, a.Name, a.Status, now))
	if err != nil {
		if isUniqueViolation(err) {
			return Agent{}, ErrConflict
		}
		return Agent{}, err
	}
	return created, nil
}

func (r *PostgresRepo) Update(ctx context.Context, agentID string, upd Update) (Agent, error) {
	now := r.clock().UTC()
	const q = `
UPDATE agents
SET name = COALESCE($2, name),
    status = COALESCE($3, status),
    updated_at = $4
WHERE agent_id = $1
RETURNING id, agent_id, name, status, created_at, updated_at
`
	a, err := scanAgent(r.db.QueryRowContext(ctx, q, agentID, upd.Name, upd.Status, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return a, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, agentID, name string) (Agent, error) {
	now := r.clock().UTC()
	// Status is intentionally absent from the conflict update: a
	// deactivated agent stays INACTIVE across sync runs.
	const q = `
INSERT INTO agents (agent_id, name, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (agent_id)
DO UPDATE SET name = EXCLUDED.name,
              updated_at = EXCLUDED.updated_at
RETURNING id, agent_id, name, status, created_at, updated_at
`
	return scanAgent(r.db.QueryRowContext(ctx, q, agentID, name, StatusActive, now))
}

func (r *PostgresRepo) Deactivate(ctx context.Context, agentID string) (Agent, error) {
	status := StatusInactive
	return r.Update(ctx, agentID, Update{Status: &status})
}

func (r *PostgresRepo) Count(ctx context.Context, status Status) (int, error) {
	var total int
	if status == "" {
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents").Scan(&total)
		return total, err
	}
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents WHERE status = $1", status).Scan(&total)
	return total, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
