// Package broker provides types and interfaces for broker integrations.
// The simulator never touches a broker; these types exist so a strategy
// validated in simulation can be pointed at a live account without
// changing its signal code.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/karanvs/vega/internal/core"
)

// Broker-specific errors.
var (
	// ErrNotConnected indicates the broker is not connected.
	ErrNotConnected = errors.New("broker: not connected")
	// ErrOrderNotFound indicates the order was not found.
	ErrOrderNotFound = errors.New("broker: order not found")
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("broker: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("broker: invalid quantity")
	// ErrInvalidPrice indicates an invalid price for limit orders.
	ErrInvalidPrice = errors.New("broker: invalid price for limit order")
	// ErrOrderNotCancellable indicates the order cannot be cancelled.
	ErrOrderNotCancellable = errors.New("broker: order cannot be cancelled")
	// ErrInsufficientFunds indicates insufficient funds for the order.
	ErrInsufficientFunds = errors.New("broker: insufficient funds")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	// OrderTypeMarket executes at current market price.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit executes at specified price or better.
	OrderTypeLimit OrderType = "LIMIT"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// OrderRequest represents a request to place a new order.
type OrderRequest struct {
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	Type     OrderType `json:"type"`
	Quantity int64     `json:"quantity"`
	// Price is the limit price (required for LIMIT orders).
	Price float64 `json:"price,omitempty"`
	// ClientOrderID is an optional client-specified identifier.
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Order represents an order in the broker system.
type Order struct {
	OrderID       string      `json:"order_id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol"`
	Side          OrderSide   `json:"side"`
	Type          OrderType   `json:"type"`
	Quantity      int64       `json:"quantity"`
	Price         float64     `json:"price,omitempty"`
	Status        OrderStatus `json:"status"`
	// FilledQuantity is the number of shares filled so far.
	FilledQuantity int64 `json:"filled_quantity"`
	// AverageFillPrice is the average execution price.
	AverageFillPrice float64 `json:"average_fill_price"`
	// Commission is the total commission charged.
	Commission float64    `json:"commission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FilledAt   *time.Time `json:"filled_at,omitempty"`
	// RejectionReason contains the reason if order was rejected.
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// IsFilled returns true if the order is completely filled.
func (o Order) IsFilled() bool {
	return o.Status == OrderStatusFilled
}

// IsTerminal returns true if the order is in a final state.
func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled ||
		o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusRejected
}

// Position represents a holding in a security.
type Position struct {
	Symbol string `json:"symbol"`
	// Quantity is the number of shares held (negative for short).
	Quantity int64 `json:"quantity"`
	// AverageCost is the average cost basis per share.
	AverageCost  float64   `json:"average_cost"`
	CurrentPrice float64   `json:"current_price"`
	MarketValue  float64   `json:"market_value"`
	UnrealizedPL float64   `json:"unrealized_pl"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLong returns true if this is a long position.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// Margin represents account funds and margin information.
type Margin struct {
	// Cash is the available cash balance.
	Cash float64 `json:"cash"`
	// BuyingPower is the total buying power available.
	BuyingPower float64 `json:"buying_power"`
	// TotalValue is the total account value including positions.
	TotalValue float64 `json:"total_value"`
	// MarginUsed is the amount of margin currently in use.
	MarginUsed float64 `json:"margin_used"`
	// MarginAvailable is the available margin.
	MarginAvailable float64   `json:"margin_available"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Broker defines the interface for broker integrations.
type Broker interface {
	// Name returns the broker identifier (e.g., "zerodha", "mock").
	Name() string

	// Connection management
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// Order operations
	PlaceOrder(ctx context.Context, request OrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// Market data
	GetQuote(ctx context.Context, symbol string) (*core.Quote, error)

	// Account operations
	GetPositions(ctx context.Context) ([]Position, error)
	GetMargin(ctx context.Context) (*Margin, error)
}
