package backtest

import "time"

// Ledger tracks cash, open positions, closed trades, and the equity curve
// for a single simulation run. It enforces the single-position-per-symbol
// policy: a symbol has at most one OPEN trade at any time.
//
// A Ledger is confined to one run on one goroutine; it carries no locks.
type Ledger struct {
	capital   float64
	positions map[string]*Trade
	trades    []Trade
	equity    []EquityPoint
}

// NewLedger creates a ledger holding the given starting capital.
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		capital:   initialCapital,
		positions: make(map[string]*Trade),
	}
}

// Capital returns the current cash balance.
func (l *Ledger) Capital() float64 {
	return l.capital
}

// Position returns the open trade for a symbol, if any.
func (l *Ledger) Position(symbol string) (*Trade, bool) {
	t, ok := l.positions[symbol]
	return t, ok
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int {
	return len(l.positions)
}

// OpenSymbols returns the symbols with open positions.
func (l *Ledger) OpenSymbols() []string {
	symbols := make([]string, 0, len(l.positions))
	for s := range l.positions {
		symbols = append(symbols, s)
	}
	return symbols
}

// Open records an entry fill: the trade becomes the symbol's open position
// and the full cost of the fill (gross value plus commission and slippage)
// is debited from cash. The caller must have verified sufficiency.
func (l *Ledger) Open(trade Trade, totalCost float64) {
	trade.Status = TradeStatusOpen
	l.positions[trade.Symbol] = &trade
	l.capital -= totalCost
}

// Close exits the open position for a symbol at the given slippage-adjusted
// exit price. Realized PnL nets the exit proceeds against the entry value
// and both legs' costs; sale proceeds net of exit costs are credited back
// to cash. The closed trade is appended to the trade history.
//
// Returns false if the symbol has no open position.
func (l *Ledger) Close(symbol string, exitTime time.Time, exitPrice, commission, slippage float64, note string) (Trade, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Trade{}, false
	}

	gross := exitPrice * float64(pos.Quantity)
	entryValue := pos.EntryPrice * float64(pos.Quantity)

	t := exitTime
	pos.ExitTime = &t
	pos.ExitPrice = exitPrice
	pos.PnL = gross - entryValue - commission - slippage - pos.Commission
	pos.Commission += commission
	pos.Slippage += slippage
	pos.Status = TradeStatusClosed
	pos.Notes = note

	l.capital += gross - commission - slippage

	l.trades = append(l.trades, *pos)
	delete(l.positions, symbol)
	return *pos, true
}

// Equity returns total portfolio value at the given mark price: cash plus
// the unrealized PnL of every open position.
func (l *Ledger) Equity(price float64) float64 {
	equity := l.capital
	for _, pos := range l.positions {
		equity += (price - pos.EntryPrice) * float64(pos.Quantity)
	}
	return equity
}

// MarkEquity appends one equity curve sample at the given time and price.
func (l *Ledger) MarkEquity(ts time.Time, price float64) {
	l.equity = append(l.equity, EquityPoint{Time: ts, Equity: l.Equity(price)})
}

// Trades returns the closed trade history in chronological order.
func (l *Ledger) Trades() []Trade {
	return l.trades
}

// EquityCurve returns the recorded equity samples, one per bar.
func (l *Ledger) EquityCurve() []EquityPoint {
	return l.equity
}
