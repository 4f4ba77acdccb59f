package store

import (
	"context"

	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/users"
)

type MemoryManager struct {
	users  users.Repository
	orders orders.Repository
}

// compile-time interface check
var _ Manager = (*MemoryManager)(nil)

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		users:  users.NewMemoryRepository(),
		orders: orders.NewMemoryRepository(),
	}
}

func (m *MemoryManager) Users() users.Repository { return m.users }

func (m *MemoryManager) Orders() orders.Repository { return m.orders }

func (m *MemoryManager) Ping(ctx context.Context) error { return nil }

func (m *MemoryManager) Close(ctx context.Context) error { return nil }
