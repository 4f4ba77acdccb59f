package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/remarkly/backend/internal/server/migrations"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/users"
)

type PostgresManager struct {
	db     *sql.DB
	users  users.Repository
	orders orders.Repository
}

// compile-time interface check
var _ Manager = (*PostgresManager)(nil)

func NewPostgresManager(ctx context.Context, dsn string) (*PostgresManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	userRepo, err := users.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("user repo creation error: %w", err)
	}

	orderRepo, err := orders.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("order repo creation error: %w", err)
	}

	m := &PostgresManager{db: db, users: userRepo, orders: orderRepo}

	if err := m.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}

func (m *PostgresManager) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresManager) Users() users.Repository { return m.users }

func (m *PostgresManager) Orders() orders.Repository { return m.orders }

func (m *PostgresManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresManager) Close(ctx context.Context) error {
	return m.db.Close()
}
