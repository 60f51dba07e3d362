package backtest

import "math"

// Costs maps the gross value of a fill to its commission and slippage.
// It is a pure function of the configuration and is applied identically
// on entry and exit.
func (c Config) Costs(grossValue float64) (commission, slippage float64) {
	commission = c.CommissionPerTrade + grossValue*c.CommissionPct
	slippage = grossValue * c.SlippagePct
	return commission, slippage
}

// BuyFillPrice returns the execution price for a buy at the given quote.
// Slippage always worsens the fill: buys execute above the quote.
func (c Config) BuyFillPrice(price float64) float64 {
	return price * (1 + c.SlippagePct)
}

// SellFillPrice returns the execution price for a sell at the given quote.
// Slippage always worsens the fill: sells execute below the quote.
func (c Config) SellFillPrice(price float64) float64 {
	return price * (1 - c.SlippagePct)
}

// PositionQuantity computes the integer quantity for a new entry given
// current capital and a reference price. A zero result means the trade
// should be skipped, not that sizing failed.
func (c Config) PositionQuantity(capital, price float64) int64 {
	if price <= 0 {
		return 0
	}
	switch c.Sizing {
	case SizingFixed:
		return int64(c.PositionSize)
	case SizingPercentage:
		return int64(math.Floor(capital * c.PositionSize / price))
	case SizingKelly:
		return int64(math.Floor(capital * kellyFraction / price))
	}
	return 0
}
