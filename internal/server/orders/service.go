// Package orders tracks top-up payment orders from creation through
// settlement.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remarkly/backend/internal/server/config"
)

type Service struct {
	repo     Repository
	amount   string
	grant    int64
	orderTTL time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		amount:   cfg.OrderAmount,
		grant:    cfg.OrderGrant,
		orderTTL: cfg.OrderTTL,
	}
}

// NewOrder creates a pending order for the fixed top-up package.
func (s *Service) NewOrder(ctx context.Context, username string) (*PendingOrder, error) {

	order := &PendingOrder{
		ID:             "ORDER_" + uuid.NewString(),
		Username:       username,
		Amount:         s.amount,
		CreditsGranted: s.grant,
		Status:         StatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("error creating order: %w", err)
	}

	return order, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PendingOrder, error) {
	return s.repo.Get(ctx, id)
}

// MarkPaid reports whether this call performed the pending→paid transition.
func (s *Service) MarkPaid(ctx context.Context, id string) (bool, error) {
	return s.repo.MarkPaid(ctx, id)
}

// PurgeStale removes pending orders older than the configured TTL and
// returns their ids so in-flight simulated settlements can be cancelled.
func (s *Service) PurgeStale(ctx context.Context) ([]string, error) {
	return s.repo.DeleteStalePending(ctx, time.Now().Add(-s.orderTTL))
}
