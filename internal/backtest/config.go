package backtest

import (
	"fmt"

	"github.com/karanvs/vega/internal/core"
)

// Sizing selects how entry quantities are derived from capital.
type Sizing string

const (
	// SizingFixed trades a constant quantity regardless of capital.
	SizingFixed Sizing = "fixed"
	// SizingPercentage allocates a fraction of current capital per trade.
	SizingPercentage Sizing = "percentage"
	// SizingKelly allocates a conservative fixed 2% of capital per trade.
	// This is not a full Kelly-criterion calculation, which would need
	// historical win/loss statistics as input.
	SizingKelly Sizing = "kelly"
)

// kellyFraction is the capital fraction used by SizingKelly.
const kellyFraction = 0.02

// Config holds the immutable parameters for one simulation.
// It is validated once at Backtester construction and never mutated
// during a run.
type Config struct {
	InitialCapital     float64 `json:"initial_capital" mapstructure:"initial_capital"`
	CommissionPerTrade float64 `json:"commission_per_trade" mapstructure:"commission_per_trade"`
	CommissionPct      float64 `json:"commission_pct" mapstructure:"commission_pct"`
	SlippagePct        float64 `json:"slippage_pct" mapstructure:"slippage_pct"`
	Sizing             Sizing  `json:"position_sizing" mapstructure:"position_sizing"`
	PositionSize       float64 `json:"position_size" mapstructure:"position_size"`
	MaxPositions       int     `json:"max_positions" mapstructure:"max_positions"`
	EnableStopLoss     bool    `json:"enable_stop_loss" mapstructure:"enable_stop_loss"`
	EnableTakeProfit   bool    `json:"enable_take_profit" mapstructure:"enable_take_profit"`
	RiskFreeRate       float64 `json:"risk_free_rate" mapstructure:"risk_free_rate"`
	Interval           string  `json:"interval" mapstructure:"interval"`
}

// DefaultConfig returns a Config with the standard simulation defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapital:     100000.0,
		CommissionPerTrade: 20.0,
		CommissionPct:      0.0003, // 0.03% per trade
		SlippagePct:        0.001,  // 0.1% slippage
		Sizing:             SizingFixed,
		PositionSize:       1.0,
		MaxPositions:       10,
		EnableStopLoss:     true,
		EnableTakeProfit:   true,
		RiskFreeRate:       0.06, // 6% annual
		Interval:           core.Interval1Min,
	}
}

// Validate checks the configuration for errors. Unknown sizing modes are
// rejected here rather than silently sizing to zero at runtime.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", c.InitialCapital))
	}
	switch c.Sizing {
	case SizingFixed, SizingPercentage, SizingKelly:
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown position_sizing mode %q", c.Sizing))
	}
	if c.CommissionPerTrade < 0 || c.CommissionPct < 0 || c.SlippagePct < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("commission and slippage must not be negative"))
	}
	if c.PositionSize < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("position_size must not be negative, got %f", c.PositionSize))
	}
	if c.MaxPositions <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_positions must be positive, got %d", c.MaxPositions))
	}
	return nil
}
