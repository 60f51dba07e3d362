package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/karanvs/vega/internal/core"
)

// TradeStatus tracks the open/closed lifecycle of a trade.
type TradeStatus string

const (
	// TradeStatusOpen indicates the position has been entered but not exited.
	TradeStatusOpen TradeStatus = "OPEN"
	// TradeStatusClosed indicates the position has been exited and PnL is final.
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Exit notes recorded on closed trades.
const (
	NoteNormalExit  = "Normal exit"
	NoteStopLoss    = "Stop loss"
	NoteTakeProfit  = "Take profit"
	NoteForcedClose = "Forced close"
)

// Trade is the record of one simulated round trip. It is created on the
// entry fill and mutated exactly once when the position is closed; PnL is
// defined only once Status is CLOSED.
type Trade struct {
	EntryTime time.Time  `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`
	Symbol    string     `json:"symbol"`
	Action    core.Action `json:"action"`
	// EntryPrice is the execution price with slippage applied. Stop and
	// target checks measure against this price, never the raw quote.
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  float64     `json:"exit_price"`
	Quantity   int64       `json:"quantity"`
	PnL        float64     `json:"pnl"`
	Commission float64     `json:"commission"`
	Slippage   float64     `json:"slippage"`
	Status     TradeStatus `json:"status"`
	Notes      string      `json:"notes,omitempty"`
}

// IsClosed returns true if the trade has been exited.
func (t Trade) IsClosed() bool {
	return t.Status == TradeStatusClosed
}

// Duration returns the holding time of a closed trade, or zero while open.
func (t Trade) Duration() time.Duration {
	if t.ExitTime == nil {
		return 0
	}
	return t.ExitTime.Sub(t.EntryTime)
}

// EquityPoint is one sample of the equity curve: total portfolio value
// (cash plus unrealized PnL) at a bar's close.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Result is the immutable outcome of one backtest run. It aggregates the
// closed trade list, the equity curve, and every derived statistic; it is
// the source of truth for any serialization.
type Result struct {
	Strategy       string    `json:"strategy"`
	Symbol         string    `json:"symbol"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`

	// Trade statistics
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	// P&L metrics
	TotalPnL        float64 `json:"total_pnl"`
	GrossProfit     float64 `json:"gross_profit"`
	GrossLoss       float64 `json:"gross_loss"`
	NetProfit       float64 `json:"net_profit"`
	TotalCommission float64 `json:"total_commission"`
	TotalSlippage   float64 `json:"total_slippage"`

	// Performance ratios
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AverageWin   float64 `json:"average_win"`
	AverageLoss  float64 `json:"average_loss"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`

	// Risk metrics
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	CalmarRatio    float64 `json:"calmar_ratio"`

	// Histories
	Trades       []Trade       `json:"trades"`
	EquityCurve  []EquityPoint `json:"equity_curve"`
	DailyReturns []float64     `json:"daily_returns"`

	// Additional metrics
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AverageTradeDuration float64 `json:"average_trade_duration_hours"`
	TotalBars            int     `json:"total_bars"`
}

// MarshalJSON encodes the result, representing unbounded ratios as the
// strings "Infinity"/"-Infinity" since JSON has no infinity literal.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		ProfitFactor any `json:"profit_factor"`
		SortinoRatio any `json:"sortino_ratio"`
	}{
		alias:        alias(r),
		ProfitFactor: jsonFloat(r.ProfitFactor),
		SortinoRatio: jsonFloat(r.SortinoRatio),
	})
}

func jsonFloat(v float64) any {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return v
}
