package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/shared"
)

func newTestService(repo Repository) *Service {
	cfg := &config.Config{
		OrderAmount: "0.50",
		OrderGrant:  50,
		OrderTTL:    24 * time.Hour,
	}
	return NewService(repo, cfg)
}

func TestNewOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := newTestService(repo)

	order, err := s.NewOrder(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.ID, "ORDER_"))
	assert.Equal(t, "alice", order.Username)
	assert.Equal(t, "0.50", order.Amount)
	assert.Equal(t, int64(50), order.CreditsGranted)
	assert.Equal(t, StatusPending, order.Status)

	stored, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestMarkPaid_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := newTestService(repo)

	order, err := s.NewOrder(ctx, "alice")
	require.NoError(t, err)

	first, err := s.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := s.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestMarkPaid_UnknownOrder(t *testing.T) {
	s := newTestService(NewMemoryRepository())

	_, err := s.MarkPaid(context.Background(), "ORDER_missing")
	assert.ErrorIs(t, err, shared.ErrorOrderNotFound)
}

func TestPurgeStale(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	s := newTestService(repo)

	stale := &PendingOrder{
		ID:        "ORDER_stale",
		Username:  "alice",
		Status:    StatusPending,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, stale))

	fresh, err := s.NewOrder(ctx, "alice")
	require.NoError(t, err)

	paidStale := &PendingOrder{
		ID:        "ORDER_paid",
		Username:  "alice",
		Status:    StatusPaid,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, paidStale))

	deleted, err := s.PurgeStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDER_stale"}, deleted)

	// fresh pending and old paid orders survive
	_, err = repo.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "ORDER_paid")
	assert.NoError(t, err)
}
