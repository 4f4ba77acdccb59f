// Package payment implements the top-up flow: QR order creation against the
// payment gateway and the asynchronous notification webhook that credits
// the buyer exactly once per order.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/email"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/users"
)

// passbackContext is the opaque payload round-tripped through the provider
// to correlate a notification with the original buyer and order.
type passbackContext struct {
	Username string `json:"username"`
	OrderID  string `json:"orderId"`
}

func encodePassback(username, orderID string) (string, error) {
	raw, err := json.Marshal(passbackContext{Username: username, OrderID: orderID})
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(raw)), nil
}

func decodePassback(encoded string) (*passbackContext, error) {
	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, err
	}
	pb := &passbackContext{}
	if err := json.Unmarshal([]byte(raw), pb); err != nil {
		return nil, err
	}
	return pb, nil
}

type Service struct {
	orders   *orders.Service
	users    users.Repository
	provider Provider
	receipts *email.Sender
	logger   logging.Logger
}

func NewService(orderSvc *orders.Service, userRepo users.Repository, provider Provider, receipts *email.Sender, logger logging.Logger) *Service {
	return &Service{
		orders:   orderSvc,
		users:    userRepo,
		provider: provider,
		receipts: receipts,
		logger:   logger.With("module", "payment"),
	}
}

// CreateOrder persists a pending top-up order and registers it with the
// provider, returning the order and the QR code URL the buyer scans.
func (s *Service) CreateOrder(ctx context.Context, username string) (*orders.PendingOrder, string, error) {

	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, "", err
	}

	order, err := s.orders.NewOrder(ctx, username)
	if err != nil {
		return nil, "", err
	}

	passback, err := encodePassback(username, order.ID)
	if err != nil {
		return nil, "", err
	}

	qrCodeURL, err := s.provider.CreateOrder(ctx, order, passback)
	if err != nil {
		return nil, "", fmt.Errorf("provider order creation: %w", err)
	}

	s.logger.Info(ctx, "order created", "order_id", order.ID, "username", username)
	return order, qrCodeURL, nil
}

// HandleNotification processes one provider notification. A nil return
// means the notification is acknowledged (including the idempotent
// already-paid case); any error means the caller must reject so the
// provider redelivers.
func (s *Service) HandleNotification(ctx context.Context, values url.Values) error {

	if err := s.provider.VerifyNotification(values); err != nil {
		return err
	}

	status := values.Get("trade_status")
	if status != TradeSuccess && status != TradeFinished {
		s.logger.Info(ctx, "ignoring non-terminal trade status", "status", status)
		return nil
	}

	pb, err := decodePassback(values.Get("passback_params"))
	if err != nil {
		return fmt.Errorf("decoding passback context: %w", err)
	}

	orderID := pb.OrderID
	if orderID == "" {
		orderID = values.Get("out_trade_no")
	}
	if orderID == "" {
		return errors.New("notification carries no order id")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}

	transitioned, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return err
	}
	if !transitioned {
		// duplicate delivery for a settled order: acknowledge, never re-credit
		s.logger.Info(ctx, "duplicate notification for paid order", "order_id", orderID)
		return nil
	}

	// The order's own record is authoritative for who gets credited.
	if pb.Username != "" && pb.Username != order.Username {
		s.logger.Warn(ctx, "passback username mismatch",
			"order_id", orderID, "passback", pb.Username, "order", order.Username)
	}

	balance, err := s.users.AdjustCredits(ctx, order.Username, order.CreditsGranted)
	if err != nil {
		s.logger.Error(ctx, "order marked paid but crediting failed",
			"order_id", orderID, "username", order.Username, "error", err.Error())
		return err
	}

	s.logger.Info(ctx, "order settled",
		"order_id", orderID, "username", order.Username,
		"credits", order.CreditsGranted, "balance", balance)

	s.sendReceipt(ctx, order)
	return nil
}

func (s *Service) sendReceipt(ctx context.Context, order *orders.PendingOrder) {
	user, err := s.users.GetByUsername(ctx, order.Username)
	if err != nil || user.Email == "" {
		return
	}
	if err := s.receipts.SendReceipt(ctx, user.Email, user.Username, order.CreditsGranted, order.ID); err != nil {
		s.logger.Warn(ctx, "receipt delivery failed", "order_id", order.ID, "error", err.Error())
	}
}

// SettleSimulated drives a simulated settlement through the same
// notification path a real provider would use.
func (s *Service) SettleSimulated(orderID string) {

	ctx := context.Background()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.logger.Warn(ctx, "simulated settlement for unknown order", "order_id", orderID)
		return
	}

	passback, err := encodePassback(order.Username, order.ID)
	if err != nil {
		s.logger.Error(ctx, "encoding simulated passback", "error", err.Error())
		return
	}

	values := url.Values{}
	values.Set("trade_status", TradeSuccess)
	values.Set("out_trade_no", order.ID)
	values.Set("passback_params", passback)

	if err := s.HandleNotification(ctx, values); err != nil {
		s.logger.Error(ctx, "simulated settlement failed", "order_id", orderID, "error", err.Error())
	}
}

// PurgeStale drops expired pending orders and cancels any scheduled
// simulated settlements for them.
func (s *Service) PurgeStale(ctx context.Context) {

	ids, err := s.orders.PurgeStale(ctx)
	if err != nil {
		s.logger.Error(ctx, "purging stale orders", "error", err.Error())
		return
	}
	if len(ids) == 0 {
		return
	}

	if canceller, ok := s.provider.(orderCanceller); ok {
		for _, id := range ids {
			canceller.CancelOrder(id)
		}
	}

	s.logger.Info(ctx, "purged stale pending orders", "count", len(ids))
}
