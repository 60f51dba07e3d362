package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/strategy"
)

// mockProvider implements BarProvider for testing
type mockProvider struct {
	bars []core.Bar
	err  error
}

func (m *mockProvider) Load(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Bar, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bars, nil
}

func dailyBars(closes ...float64) []core.Bar {
	base := time.Date(2023, 1, 2, 15, 30, 0, 0, time.UTC)
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{
			Symbol:   "NIFTY50",
			Interval: core.Interval1Day,
			Open:     c, High: c, Low: c, Close: c,
			Volume: 1000,
			Time:   base.AddDate(0, 0, i),
		}
	}
	return bars
}

// freeConfig trades 10 units at a time with no commission or slippage.
func freeConfig() Config {
	cfg := DefaultConfig()
	cfg.CommissionPerTrade = 0
	cfg.CommissionPct = 0
	cfg.SlippagePct = 0
	cfg.Sizing = SizingFixed
	cfg.PositionSize = 10
	return cfg
}

// buyAt returns a strategy that buys when exactly buyLen bars are visible
// and sells when exactly sellLen are.
func buyAt(buyLen, sellLen int) strategy.Strategy {
	return strategy.Strategy{
		Name: "scripted",
		Eval: func(bars []core.Bar, params strategy.Params) core.Action {
			switch len(bars) {
			case buyLen:
				return core.ActionBuy
			case sellLen:
				return core.ActionSell
			}
			return core.ActionHold
		},
	}
}

func run(t *testing.T, cfg Config, bars []core.Bar, strat strategy.Strategy, params strategy.Params) *Result {
	t.Helper()
	b, err := New(cfg, &mockProvider{bars: bars}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	result, err := b.Run(context.Background(), strat, "NIFTY50",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), params)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return result
}

func TestBacktester_Run_EntryExitCycle(t *testing.T) {
	// Buy at the 110 close, sell at the 90 close.
	result := run(t, freeConfig(), dailyBars(100, 110, 90), buyAt(2, 3), nil)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}

	trade := result.Trades[0]
	if trade.EntryPrice != 110 {
		t.Errorf("EntryPrice = %v, want 110", trade.EntryPrice)
	}
	if trade.ExitPrice != 90 {
		t.Errorf("ExitPrice = %v, want 90", trade.ExitPrice)
	}
	if trade.PnL != -200 {
		t.Errorf("PnL = %v, want -200", trade.PnL)
	}
	if trade.Notes != NoteNormalExit {
		t.Errorf("Notes = %q, want %q", trade.Notes, NoteNormalExit)
	}
	if result.FinalCapital != result.InitialCapital-200 {
		t.Errorf("FinalCapital = %v, want %v", result.FinalCapital, result.InitialCapital-200)
	}
}

func TestBacktester_Run_AlwaysHold(t *testing.T) {
	hold := strategy.Strategy{
		Name: "hold",
		Eval: func(bars []core.Bar, params strategy.Params) core.Action {
			return core.ActionHold
		},
	}

	cfg := freeConfig()
	result := run(t, cfg, dailyBars(100, 110, 90, 95), hold, nil)

	if result.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", result.TotalTrades)
	}
	if result.FinalCapital != cfg.InitialCapital {
		t.Errorf("FinalCapital = %v, want %v", result.FinalCapital, cfg.InitialCapital)
	}
	if len(result.EquityCurve) != 4 {
		t.Errorf("EquityCurve length = %d, want 4", len(result.EquityCurve))
	}
}

func TestBacktester_Run_ZeroQuantitySkipsEntry(t *testing.T) {
	cfg := freeConfig()
	cfg.PositionSize = 0

	result := run(t, cfg, dailyBars(100, 110, 90), buyAt(2, 3), nil)

	if result.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", result.TotalTrades)
	}
	if result.FinalCapital != cfg.InitialCapital {
		t.Errorf("FinalCapital = %v, want %v", result.FinalCapital, cfg.InitialCapital)
	}
}

func TestBacktester_Run_ForcedCloseAtEnd(t *testing.T) {
	// Buy on bar 2, never sell.
	result := run(t, freeConfig(), dailyBars(100, 110, 120), buyAt(2, 0), nil)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if !trade.IsClosed() {
		t.Error("trade should be closed at the final bar")
	}
	if trade.Notes != NoteForcedClose {
		t.Errorf("Notes = %q, want %q", trade.Notes, NoteForcedClose)
	}
	if trade.ExitPrice != 120 {
		t.Errorf("ExitPrice = %v, want 120", trade.ExitPrice)
	}
}

func TestBacktester_Run_StopLoss(t *testing.T) {
	cfg := freeConfig()
	cfg.EnableTakeProfit = false

	// Entry at 100, bar at 94 breaches the default 5% stop.
	result := run(t, cfg, dailyBars(100, 100, 94, 110), buyAt(2, 0), nil)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.Notes != NoteStopLoss {
		t.Errorf("Notes = %q, want %q", trade.Notes, NoteStopLoss)
	}
	if trade.ExitPrice != 94 {
		t.Errorf("ExitPrice = %v, want 94", trade.ExitPrice)
	}
}

func TestBacktester_Run_TakeProfit(t *testing.T) {
	cfg := freeConfig()
	cfg.EnableStopLoss = false

	// Entry at 100, bar at 111 breaches the default 10% target.
	result := run(t, cfg, dailyBars(100, 100, 111, 90), buyAt(2, 0), nil)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.Notes != NoteTakeProfit {
		t.Errorf("Notes = %q, want %q", trade.Notes, NoteTakeProfit)
	}
	if trade.PnL != 110 {
		t.Errorf("PnL = %v, want 110", trade.PnL)
	}
}

func TestBacktester_Run_ThresholdsFromParams(t *testing.T) {
	cfg := freeConfig()
	cfg.EnableTakeProfit = false
	params := strategy.Params{"stop_loss_pct": 0.01}

	// A 2% dip trips a 1% stop but not the default 5% one.
	result := run(t, cfg, dailyBars(100, 100, 98, 105), buyAt(2, 0), params)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}
	if result.Trades[0].Notes != NoteStopLoss {
		t.Errorf("Notes = %q, want %q", result.Trades[0].Notes, NoteStopLoss)
	}
}

func TestBacktester_Run_CostsAreAdverse(t *testing.T) {
	free := run(t, freeConfig(), dailyBars(100, 110, 120), buyAt(2, 3), nil)

	costly := freeConfig()
	costly.CommissionPerTrade = 20
	costly.CommissionPct = 0.0003
	costly.SlippagePct = 0.001
	withCosts := run(t, costly, dailyBars(100, 110, 120), buyAt(2, 3), nil)

	if withCosts.TotalPnL >= free.TotalPnL {
		t.Errorf("costed PnL %v should be below frictionless PnL %v",
			withCosts.TotalPnL, free.TotalPnL)
	}
	if withCosts.TotalCommission <= 0 || withCosts.TotalSlippage <= 0 {
		t.Errorf("expected positive costs, got commission %v slippage %v",
			withCosts.TotalCommission, withCosts.TotalSlippage)
	}
}

func TestBacktester_Run_SlippageDirection(t *testing.T) {
	cfg := freeConfig()
	cfg.SlippagePct = 0.01

	result := run(t, cfg, dailyBars(100, 100, 100), buyAt(2, 3), nil)

	if result.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", result.TotalTrades)
	}
	trade := result.Trades[0]
	if trade.EntryPrice != 101 {
		t.Errorf("EntryPrice = %v, want 101 (buy fills above quote)", trade.EntryPrice)
	}
	if trade.ExitPrice != 99 {
		t.Errorf("ExitPrice = %v, want 99 (sell fills below quote)", trade.ExitPrice)
	}
}

func TestBacktester_Run_Deterministic(t *testing.T) {
	bars := dailyBars(100, 102, 99, 104, 101, 110, 95, 108)
	a := run(t, DefaultConfig(), bars, buyAt(2, 5), nil)
	b := run(t, DefaultConfig(), bars, buyAt(2, 5), nil)

	if a.TotalPnL != b.TotalPnL || a.FinalCapital != b.FinalCapital ||
		a.TotalTrades != b.TotalTrades || a.SharpeRatio != b.SharpeRatio {
		t.Errorf("identical runs diverged: %+v vs %+v", a, b)
	}
}

func TestBacktester_Run_NoLookAhead(t *testing.T) {
	var seen []int
	spy := strategy.Strategy{
		Name: "spy",
		Eval: func(bars []core.Bar, params strategy.Params) core.Action {
			seen = append(seen, len(bars))
			return core.ActionHold
		},
	}

	run(t, freeConfig(), dailyBars(100, 101, 102, 103), spy, nil)

	for i, n := range seen {
		if n != i+1 {
			t.Errorf("call %d saw %d bars, want %d", i, n, i+1)
		}
	}
}

func TestBacktester_Run_CapitalConservation(t *testing.T) {
	cfg := DefaultConfig()
	bars := dailyBars(100, 105, 98, 112, 90, 120, 101)
	result := run(t, cfg, bars, buyAt(2, 4), nil)

	sum := 0.0
	for _, trade := range result.Trades {
		sum += trade.PnL
	}
	if math.Abs(result.FinalCapital-(cfg.InitialCapital+sum)) > 1e-6 {
		t.Errorf("FinalCapital = %v, want initial %v + PnL %v",
			result.FinalCapital, cfg.InitialCapital, sum)
	}
	if math.Abs(result.TotalPnL-sum) > 1e-9 {
		t.Errorf("TotalPnL = %v, want %v", result.TotalPnL, sum)
	}
}

func TestBacktester_Run_EmptyData(t *testing.T) {
	result := run(t, DefaultConfig(), nil, buyAt(1, 2), nil)

	if result.TotalTrades != 0 || result.TotalBars != 0 {
		t.Errorf("expected empty result, got %d trades %d bars",
			result.TotalTrades, result.TotalBars)
	}
	if result.SharpeRatio != 0 || result.MaxDrawdown != 0 {
		t.Errorf("expected zero statistics for empty data")
	}
}

func TestBacktester_Run_ProviderError(t *testing.T) {
	b, err := New(DefaultConfig(), &mockProvider{err: errors.New("boom")}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = b.Run(context.Background(), buyAt(1, 2), "NIFTY50", time.Now().AddDate(0, 0, -10), time.Now(), nil)
	if err == nil {
		t.Error("expected error from provider")
	}
}

func TestBacktester_Run_ContextCancellation(t *testing.T) {
	b, err := New(DefaultConfig(), &mockProvider{bars: dailyBars(100, 101, 102)}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Run(ctx, buyAt(1, 2), "NIFTY50", time.Now().AddDate(0, 0, -10), time.Now(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBacktester_Run_InvalidActionTreatedAsHold(t *testing.T) {
	weird := strategy.Strategy{
		Name: "weird",
		Eval: func(bars []core.Bar, params strategy.Params) core.Action {
			return core.Action("SHORT")
		},
	}

	result := run(t, freeConfig(), dailyBars(100, 110, 90), weird, nil)
	if result.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0 for unknown actions", result.TotalTrades)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sizing = "martingale"

	if _, err := New(cfg, &mockProvider{}, nil); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(DefaultConfig(), nil, nil); err == nil {
		t.Error("expected error for nil provider")
	}
}
