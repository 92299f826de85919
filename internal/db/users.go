package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// User represents a users row
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

const userColumns = "id, email, name, role, password_hash, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// UpsertUser creates a user or, for an existing email, resets name, role
// and password.
func (q *Queries) UpsertUser(ctx context.Context, p CreateUserParams) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, role, password_hash) VALUES ($1, lower($2), $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash
		RETURNING `+userColumns,
		p.ID, p.Email, p.Name, p.Role, p.PasswordHash,
	))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = lower($1)", email))
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}
