package orders

import (
	"context"
	"time"
)

// Repository persists payment orders. MarkPaid is the idempotency primitive
// the payment webhook builds on.
type Repository interface {
	Create(ctx context.Context, order *PendingOrder) error

	// Get returns shared.ErrorOrderNotFound for unknown order ids.
	Get(ctx context.Context, id string) (*PendingOrder, error)

	// MarkPaid flips the order from pending to paid in one compare-and-set
	// step. It reports true when this call performed the transition and
	// false when the order was already paid.
	MarkPaid(ctx context.Context, id string) (bool, error)

	// DeleteStalePending removes pending orders created before the cutoff
	// and returns their ids.
	DeleteStalePending(ctx context.Context, cutoff time.Time) ([]string, error)
}
