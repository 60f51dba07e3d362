package backtest

import (
	"context"
	"time"

	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/strategy"
	"go.uber.org/zap"
)

// Exit threshold parameter keys with their default percentages.
const (
	paramStopLossPct   = "stop_loss_pct"
	paramTakeProfitPct = "take_profit_pct"

	defaultStopLossPct   = 0.05
	defaultTakeProfitPct = 0.10
)

// Backtester replays historical bars through a strategy function and
// simulates fills, costs, and portfolio evolution.
//
// A Backtester owns no state between runs: every Run starts from a fresh
// ledger, so independent runs may execute concurrently as long as each
// uses its own instance.
type Backtester struct {
	cfg      Config
	provider BarProvider
	log      *zap.Logger
}

// New creates a Backtester. The configuration is validated eagerly so that
// malformed settings fail here rather than as silent no-ops mid-run.
func New(cfg Config, provider BarProvider, log *zap.Logger) (*Backtester, error) {
	if provider == nil {
		return nil, core.WrapError(core.ErrConfigMissing, nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Interval == "" {
		cfg.Interval = core.Interval1Min
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Backtester{
		cfg:      cfg,
		provider: provider,
		log:      log,
	}, nil
}

// Run executes one backtest of the strategy on a symbol over [start, end].
//
// Bars are processed strictly in chronological order. For each bar: the
// equity curve is extended, the strategy sees only bars up to and including
// the current one, entry/exit signals are applied, then stop-loss and
// take-profit thresholds are checked. Any position still open after the
// final bar is force-closed at its close price, so the returned result
// never carries an unresolved trade.
//
// An empty data range yields a zero-trade result, not an error; provider
// failures propagate.
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, symbol string, start, end time.Time, params strategy.Params) (*Result, error) {
	if strat.Eval == nil {
		return nil, core.WrapError(core.ErrStrategyNotFound, nil)
	}
	if symbol == "" {
		return nil, core.WrapError(core.ErrConfigMissing, nil)
	}
	if params == nil {
		params = strategy.Params{}
	}

	b.log.Info("starting backtest",
		zap.String("strategy", strat.Name),
		zap.String("symbol", symbol),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	bars, err := b.provider.Load(ctx, symbol, start, end, b.cfg.Interval)
	if err != nil {
		return nil, err
	}

	ledger := NewLedger(b.cfg.InitialCapital)

	if len(bars) == 0 {
		b.log.Warn("no historical data for range",
			zap.String("symbol", symbol),
			zap.Time("start", start),
			zap.Time("end", end),
		)
		return buildResult(strat.Name, symbol, start, end, 0, b.cfg, ledger), nil
	}

	for i := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bar := bars[i]

		// 1. Mark equity at this bar's close before anything can trade.
		ledger.MarkEquity(bar.Time, bar.Close)

		// 2. The strategy sees bars up to and including the current one.
		// The capped slice keeps a misbehaving strategy from appending
		// into future bars.
		action := strat.Eval(bars[:i+1:i+1], params)
		if !action.IsValid() {
			b.log.Warn("strategy returned unknown action, treating as HOLD",
				zap.String("strategy", strat.Name),
				zap.String("action", string(action)),
			)
			action = core.ActionHold
		}

		// 3 & 4. Apply the signal.
		switch action {
		case core.ActionBuy:
			if _, open := ledger.Position(symbol); !open {
				b.enter(ledger, symbol, bar.Time, bar.Close)
			}
		case core.ActionSell:
			if _, open := ledger.Position(symbol); open {
				b.exit(ledger, symbol, bar.Time, bar.Close, NoteNormalExit)
			}
		}

		// 5. Threshold exits take priority over waiting for the next SELL.
		if b.cfg.EnableStopLoss || b.cfg.EnableTakeProfit {
			b.checkExitThresholds(ledger, symbol, bar.Time, bar.Close, params)
		}
	}

	// Force-close whatever is still open at the final bar.
	last := bars[len(bars)-1]
	for _, sym := range ledger.OpenSymbols() {
		b.exit(ledger, sym, last.Time, last.Close, NoteForcedClose)
	}

	result := buildResult(strat.Name, symbol, start, end, len(bars), b.cfg, ledger)

	b.log.Info("backtest complete",
		zap.String("strategy", strat.Name),
		zap.Int("trades", result.TotalTrades),
		zap.Float64("total_pnl", result.TotalPnL),
		zap.Float64("final_capital", result.FinalCapital),
	)

	return result, nil
}

// enter attempts a buy fill at the bar close. Zero-quantity sizing and
// insufficient capital skip the entry silently: undersized runs degrade,
// they do not fail.
func (b *Backtester) enter(ledger *Ledger, symbol string, ts time.Time, price float64) {
	if ledger.OpenCount() >= b.cfg.MaxPositions {
		b.log.Debug("max positions reached, skipping entry",
			zap.String("symbol", symbol),
			zap.Int("open", ledger.OpenCount()),
		)
		return
	}

	qty := b.cfg.PositionQuantity(ledger.Capital(), price)
	if qty == 0 {
		b.log.Debug("position size is zero, skipping entry",
			zap.String("symbol", symbol),
			zap.Float64("price", price),
			zap.Float64("capital", ledger.Capital()),
		)
		return
	}

	gross := price * float64(qty)
	commission, slippage := b.cfg.Costs(gross)
	totalCost := gross + commission + slippage

	if totalCost > ledger.Capital() {
		b.log.Debug("insufficient capital for entry",
			zap.String("symbol", symbol),
			zap.Float64("needed", totalCost),
			zap.Float64("capital", ledger.Capital()),
		)
		return
	}

	ledger.Open(Trade{
		EntryTime:  ts,
		Symbol:     symbol,
		Action:     core.ActionBuy,
		EntryPrice: b.cfg.BuyFillPrice(price),
		Quantity:   qty,
		Commission: commission,
		Slippage:   slippage,
	}, totalCost)

	b.log.Debug("entered position",
		zap.String("symbol", symbol),
		zap.Int64("quantity", qty),
		zap.Float64("price", price),
		zap.Float64("capital", ledger.Capital()),
	)
}

// exit closes the symbol's open position at the bar close with the given
// note, applying the cost model to the sell leg.
func (b *Backtester) exit(ledger *Ledger, symbol string, ts time.Time, price float64, note string) {
	pos, ok := ledger.Position(symbol)
	if !ok {
		return
	}

	exitPrice := b.cfg.SellFillPrice(price)
	gross := exitPrice * float64(pos.Quantity)
	commission, slippage := b.cfg.Costs(gross)

	trade, _ := ledger.Close(symbol, ts, exitPrice, commission, slippage, note)

	b.log.Debug("closed position",
		zap.String("symbol", symbol),
		zap.Int64("quantity", trade.Quantity),
		zap.Float64("price", price),
		zap.Float64("pnl", trade.PnL),
		zap.String("note", note),
	)
}

// checkExitThresholds compares the bar close against the configured
// stop-loss and take-profit percentages. Thresholds measure from the
// slippage-adjusted entry price recorded on the trade, never the raw quote.
func (b *Backtester) checkExitThresholds(ledger *Ledger, symbol string, ts time.Time, price float64, params strategy.Params) {
	pos, ok := ledger.Position(symbol)
	if !ok {
		return
	}

	if b.cfg.EnableStopLoss {
		stopPct := params.Float(paramStopLossPct, defaultStopLossPct)
		if price <= pos.EntryPrice*(1-stopPct) {
			b.exit(ledger, symbol, ts, price, NoteStopLoss)
			return
		}
	}

	if b.cfg.EnableTakeProfit {
		targetPct := params.Float(paramTakeProfitPct, defaultTakeProfitPct)
		if price >= pos.EntryPrice*(1+targetPct) {
			b.exit(ledger, symbol, ts, price, NoteTakeProfit)
			return
		}
	}
}
