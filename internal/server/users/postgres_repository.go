package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/remarkly/backend/internal/shared"
)

const pgUniqueViolation = "23505"

// compile-time interface check
var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	query :=
		`INSERT INTO users (username, password_hash, email, credits)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Email, user.Credits).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, shared.ErrorUserExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {

	query :=
		`SELECT username, password_hash, email, credits, created_at FROM users
		 WHERE username = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username, &user.PasswordHash, &user.Email, &user.Credits, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

// AdjustCredits applies the delta with a single conditional UPDATE, so the
// read-modify-write happens inside the database and concurrent adjustments
// for the same user cannot lose updates or overdraw the balance.
func (r *PostgresRepository) AdjustCredits(ctx context.Context, username string, delta int64) (int64, error) {

	query :=
		`UPDATE users SET credits = credits + $2
		 WHERE username = $1 AND credits + $2 >= 0
		 RETURNING credits
		 `

	var balance int64
	err := r.db.QueryRowContext(ctx, query, username, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}

	// No row updated: unknown user or insufficient balance.
	user, getErr := r.GetByUsername(ctx, username)
	if getErr != nil {
		return 0, getErr
	}

	return 0, &shared.InsufficientCreditsError{Required: -delta, Available: user.Credits}
}
