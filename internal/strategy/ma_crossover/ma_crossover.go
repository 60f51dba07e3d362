// Package macrossover implements a moving average crossover signal: buy
// when the short MA crosses above the long MA, sell when it crosses back
// below.
package macrossover

import (
	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/indicator"
	"github.com/karanvs/vega/internal/strategy"
)

// Name is the registry key for this strategy.
const Name = "ma_crossover"

// Default lookback periods, overridable via the short_period and
// long_period parameters.
const (
	DefaultShortPeriod = 10
	DefaultLongPeriod  = 20
)

// Eval is the strategy function. It holds until at least longPeriod+1
// bars are visible so that both the current and the previous MA pair can
// be computed from full windows.
func Eval(bars []core.Bar, params strategy.Params) core.Action {
	shortPeriod := params.Int("short_period", DefaultShortPeriod)
	longPeriod := params.Int("long_period", DefaultLongPeriod)
	if shortPeriod <= 0 || longPeriod <= 0 || shortPeriod >= longPeriod {
		return core.ActionHold
	}
	if len(bars) < longPeriod+1 {
		return core.ActionHold
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	shortMA := indicator.SMA(closes, shortPeriod)
	longMA := indicator.SMA(closes, longPeriod)

	curShort, prevShort := shortMA[len(shortMA)-1], shortMA[len(shortMA)-2]
	curLong, prevLong := longMA[len(longMA)-1], longMA[len(longMA)-2]

	switch {
	case curShort > curLong && prevShort <= prevLong:
		return core.ActionBuy
	case curShort < curLong && prevShort >= prevLong:
		return core.ActionSell
	}
	return core.ActionHold
}
