// Package store selects and wires the persistence backend: in-memory for
// development and tests, MongoDB or Postgres for real deployments.
package store

import (
	"context"
	"fmt"

	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/users"
)

// Manager owns the repositories for one backend and its connection
// lifecycle.
type Manager interface {
	Users() users.Repository
	Orders() orders.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func NewManager(ctx context.Context, cfg *config.Config) (Manager, error) {
	switch cfg.StoreBackend {
	case "memory":
		return NewMemoryManager(), nil
	case "mongo":
		return NewMongoManager(ctx, cfg)
	case "postgres":
		return NewPostgresManager(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
