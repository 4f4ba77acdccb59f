package payment

import (
	"context"
	"net/url"

	"github.com/remarkly/backend/internal/server/orders"
)

// Provider abstracts the payment gateway: creating a scannable payment
// order and authenticating the asynchronous notifications it sends back.
type Provider interface {
	// CreateOrder registers the order with the gateway and returns the QR
	// code URL the buyer scans. The passback string is round-tripped by the
	// provider and comes back verbatim in the notification.
	CreateOrder(ctx context.Context, order *orders.PendingOrder, passback string) (string, error)

	// VerifyNotification authenticates an inbound notification. Returns
	// shared.ErrorSignatureInvalid when the payload cannot be trusted.
	VerifyNotification(values url.Values) error
}

// orderCanceller is implemented by providers that hold per-order state
// (the simulated provider's settlement timers).
type orderCanceller interface {
	CancelOrder(orderID string)
}
