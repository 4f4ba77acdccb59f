package orders

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// PendingOrder tracks one top-up purchase from creation until the payment
// provider confirms it. The pending→paid transition happens exactly once;
// duplicate provider notifications must not re-credit the buyer.
type PendingOrder struct {
	ID             string
	Username       string
	Amount         string
	CreditsGranted int64
	Status         Status
	CreatedAt      time.Time
}
