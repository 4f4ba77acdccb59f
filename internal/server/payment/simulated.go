package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/orders"
)

// SimulatedProvider models asynchronous settlement without a real gateway:
// every created order settles after a fixed delay. Settlements are tracked
// as cancellable timers tied to the order lifecycle, so purging an order or
// shutting the server down prevents a stale credit.
type SimulatedProvider struct {
	delay  time.Duration
	settle func(orderID string)
	logger logging.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// compile-time interface checks
var (
	_ Provider       = (*SimulatedProvider)(nil)
	_ orderCanceller = (*SimulatedProvider)(nil)
)

func NewSimulatedProvider(delay time.Duration, logger logging.Logger) *SimulatedProvider {
	return &SimulatedProvider{
		delay:  delay,
		logger: logger.With("module", "simulated_provider"),
		timers: make(map[string]*time.Timer),
	}
}

// SetSettleFunc wires the callback invoked when a simulated payment
// completes. Must be called before CreateOrder.
func (p *SimulatedProvider) SetSettleFunc(fn func(orderID string)) {
	p.settle = fn
}

func (p *SimulatedProvider) CreateOrder(ctx context.Context, order *orders.PendingOrder, passback string) (string, error) {

	id := order.ID

	p.mu.Lock()
	p.timers[id] = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		_, live := p.timers[id]
		delete(p.timers, id)
		p.mu.Unlock()

		// cancelled between firing and running
		if !live || p.settle == nil {
			return
		}

		p.logger.Info(context.Background(), "simulated settlement", "order_id", id)
		p.settle(id)
	})
	p.mu.Unlock()

	return fmt.Sprintf("https://pay.simulated.invalid/qr/%s", id), nil
}

// VerifyNotification accepts everything: simulated notifications originate
// in-process and carry no signature.
func (p *SimulatedProvider) VerifyNotification(values url.Values) error {
	return nil
}

// CancelOrder drops the scheduled settlement for one order, if any.
func (p *SimulatedProvider) CancelOrder(orderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.timers[orderID]; ok {
		timer.Stop()
		delete(p.timers, orderID)
	}
}

// Shutdown cancels every outstanding settlement.
func (p *SimulatedProvider) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, timer := range p.timers {
		timer.Stop()
		delete(p.timers, id)
	}
}
