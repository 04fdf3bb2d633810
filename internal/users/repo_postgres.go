package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callpulse/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists users in the users table.
type PostgresRepo struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, email, password_hash, name, role, status, created_at, updated_at
FROM users
WHERE id = $1
`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, email, password_hash, name, role, status, created_at, updated_at
FROM users
WHERE email = $1
`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) List(ctx context.Context, p ListParams) ([]User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT id, email, password_hash, name, role, status, created_at, updated_at
FROM users
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.db.QueryContext(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	now := r.clock().UTC()
	const q = `
INSERT INTO users (id, email, password_hash, name, role, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING id, email, password_hash, name, role, status, created_at, updated_at
`
	created, err := scanUser(r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status, now))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return created, nil
}

// Update applies a partial update inside a transaction so concurrent
// role changes on the same row serialize.
func (r *PostgresRepo) Update(ctx context.Context, id string, upd Update) (User, error) {
	now := r.clock().UTC()
	var out User

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const lockQ = `
SELECT id, email, password_hash, name, role, status, created_at, updated_at
FROM users
WHERE id = $1
FOR UPDATE
`
		u, err := scanUser(tx.QueryRowContext(ctx, lockQ, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
		if upd.Status != nil {
			u.Status = *upd.Status
		}
		u.UpdatedAt = now

		const updateQ = `
UPDATE users
SET name = $2, role = $3, status = $4, updated_at = $5
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, updateQ, id, u.Name, u.Role, u.Status, now); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total)
	return total, err
}
