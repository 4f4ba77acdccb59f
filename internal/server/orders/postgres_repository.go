package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/remarkly/backend/internal/shared"
)

// compile-time interface check
var _ Repository = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, order *PendingOrder) error {

	query :=
		`INSERT INTO orders (id, username, amount, credits_granted, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		order.ID, order.Username, order.Amount, order.CreditsGranted, string(order.Status)).
		Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*PendingOrder, error) {

	query :=
		`SELECT id, username, amount, credits_granted, status, created_at FROM orders
		 WHERE id = $1
		 `

	order := &PendingOrder{}
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.Username, &order.Amount, &order.CreditsGranted, &status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrorOrderNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	order.Status = Status(status)
	return order, nil
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, id string) (bool, error) {

	query :=
		`UPDATE orders SET status = $2
		 WHERE id = $1 AND status = $3
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(StatusPaid), string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading update result: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *PostgresRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) ([]string, error) {

	query :=
		`DELETE FROM orders
		 WHERE status = $1 AND created_at < $2
		 RETURNING id
		 `

	rows, err := r.db.QueryContext(ctx, query, string(StatusPending), cutoff)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}
