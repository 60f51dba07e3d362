package strategy

import (
	"github.com/karanvs/vega/internal/core"
)

// Params carries strategy tuning parameters. Lookups resolve through the
// typed getters below so that a missing or mistyped key falls back to an
// explicit default instead of silently misconfiguring the strategy.
type Params map[string]any

// Float returns the named parameter as a float64, or def when absent or
// not numeric.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Int returns the named parameter as an int, or def when absent or not
// numeric. Fractional values are truncated.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	}
	return def
}

// Func evaluates the bars visible so far and returns a trading action.
// Implementations must be pure functions of their arguments: no hidden
// state across calls, and never an assumption that bars beyond the last
// element exist. This is what makes backtest runs deterministic.
type Func func(bars []core.Bar, params Params) core.Action

// Strategy pairs a registered name with its signal function.
type Strategy struct {
	Name string
	Eval Func
}
