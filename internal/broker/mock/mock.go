// Package mock implements an in-memory Broker for tests and dry runs.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/karanvs/vega/internal/broker"
	"github.com/karanvs/vega/internal/core"
)

var _ broker.Broker = (*Broker)(nil)

// Broker is an in-memory broker. Market orders fill immediately at the
// last quote set via SetQuote; limit orders stay pending.
type Broker struct {
	mu        sync.RWMutex
	connected bool
	orders    map[string]*broker.Order
	positions map[string]*broker.Position
	quotes    map[string]core.Quote
	margin    broker.Margin
	orderSeq  int
}

// New creates a mock broker with an empty book and the given cash.
func New(cash float64) *Broker {
	return &Broker{
		orders:    make(map[string]*broker.Order),
		positions: make(map[string]*broker.Position),
		quotes:    make(map[string]core.Quote),
		margin: broker.Margin{
			Cash:        cash,
			BuyingPower: cash,
			TotalValue:  cash,
			UpdatedAt:   time.Now(),
		},
		orderSeq: 1000,
	}
}

// Name returns the broker name.
func (m *Broker) Name() string {
	return "mock"
}

// Connect establishes the connection (no-op for mock).
func (m *Broker) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

// Disconnect closes the connection.
func (m *Broker) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// IsConnected returns connection status.
func (m *Broker) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// PlaceOrder validates and books an order. Market orders fill at the
// current quote for the symbol; without a quote the order is rejected.
func (m *Broker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*broker.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, broker.ErrNotConnected
	}

	m.orderSeq++
	now := time.Now()
	order := &broker.Order{
		OrderID:       fmt.Sprintf("ORD%d", m.orderSeq),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Status:        broker.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if req.Type == broker.OrderTypeMarket {
		quote, ok := m.quotes[req.Symbol]
		if !ok {
			order.Status = broker.OrderStatusRejected
			order.RejectionReason = "no quote for symbol"
		} else {
			m.fill(order, quote.Price, now)
		}
	}

	m.orders[order.OrderID] = order
	cp := *order
	return &cp, nil
}

func (m *Broker) fill(order *broker.Order, price float64, now time.Time) {
	order.Status = broker.OrderStatusFilled
	order.FilledQuantity = order.Quantity
	order.AverageFillPrice = price
	order.FilledAt = &now
	order.UpdatedAt = now

	pos, ok := m.positions[order.Symbol]
	if !ok {
		pos = &broker.Position{Symbol: order.Symbol}
		m.positions[order.Symbol] = pos
	}

	qty := order.Quantity
	if order.Side == broker.OrderSideSell {
		qty = -qty
	}
	if newQty := pos.Quantity + qty; newQty != 0 {
		pos.AverageCost = (pos.AverageCost*float64(pos.Quantity) + price*float64(qty)) / float64(newQty)
		pos.Quantity = newQty
	} else {
		pos.Quantity = 0
		pos.AverageCost = 0
	}
	pos.CurrentPrice = price
	pos.MarketValue = price * float64(pos.Quantity)
	pos.UpdatedAt = now

	m.margin.Cash -= price * float64(qty)
	m.margin.BuyingPower = m.margin.Cash
	m.margin.UpdatedAt = now
}

// CancelOrder cancels a pending order.
func (m *Broker) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return broker.ErrNotConnected
	}

	order, ok := m.orders[orderID]
	if !ok {
		return broker.ErrOrderNotFound
	}
	if order.IsTerminal() {
		return broker.ErrOrderNotCancellable
	}
	order.Status = broker.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	return nil
}

// GetOrder retrieves an order by ID.
func (m *Broker) GetOrder(ctx context.Context, orderID string) (*broker.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, broker.ErrNotConnected
	}

	order, ok := m.orders[orderID]
	if !ok {
		return nil, broker.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

// GetQuote returns the last quote set via SetQuote.
func (m *Broker) GetQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, broker.ErrNotConnected
	}

	quote, ok := m.quotes[symbol]
	if !ok {
		return nil, broker.ErrInvalidSymbol
	}
	return &quote, nil
}

// GetPositions returns all non-flat positions.
func (m *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, broker.ErrNotConnected
	}

	positions := make([]broker.Position, 0, len(m.positions))
	for _, p := range m.positions {
		if p.Quantity != 0 {
			positions = append(positions, *p)
		}
	}
	return positions, nil
}

// GetMargin returns account funds.
func (m *Broker) GetMargin(ctx context.Context) (*broker.Margin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, broker.ErrNotConnected
	}
	margin := m.margin
	return &margin, nil
}

// SetQuote sets the current quote used to fill market orders.
func (m *Broker) SetQuote(quote core.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[quote.Symbol] = quote
}
