package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/karanvs/vega/internal/core"
	"github.com/karanvs/vega/internal/storage/archive"
	"go.uber.org/zap"
)

// Writer persists finished results to archive storage, one JSON document
// plus one human-readable text report per run.
type Writer struct {
	store archive.Storage
	log   *zap.Logger
	now   func() time.Time
}

// NewWriter creates a Writer backed by the given storage.
func NewWriter(store archive.Storage, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Save writes the result as backtest_<strategy>_<timestamp>.json and .txt
// and returns the two storage paths.
func (w *Writer) Save(ctx context.Context, result *Result) (jsonPath, textPath string, err error) {
	base := fmt.Sprintf("backtest_%s_%s", result.Strategy, w.now().Format("20060102_150405"))
	jsonPath = base + ".json"
	textPath = base + ".txt"

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", "", core.WrapError(core.ErrStoreFailed, err)
	}
	if err := w.store.Write(ctx, jsonPath, data); err != nil {
		return "", "", core.WrapError(core.ErrStoreFailed, err)
	}

	if err := w.store.Write(ctx, textPath, []byte(FormatReport(result))); err != nil {
		return "", "", core.WrapError(core.ErrStoreFailed, err)
	}

	w.log.Info("results saved",
		zap.String("json", jsonPath),
		zap.String("text", textPath),
	)
	return jsonPath, textPath, nil
}

// FormatReport renders the result as a sectioned plain-text report.
func FormatReport(r *Result) string {
	var b strings.Builder

	rule := strings.Repeat("=", 100)
	sep := strings.Repeat("-", 100)

	fmt.Fprintf(&b, "%s\nBACKTEST RESULTS\n%s\n\n", rule, rule)

	returnPct := 0.0
	if r.InitialCapital > 0 {
		returnPct = r.TotalPnL / r.InitialCapital * 100
	}
	fmt.Fprintf(&b, "Strategy:          %s\n", r.Strategy)
	fmt.Fprintf(&b, "Symbol:            %s\n", r.Symbol)
	fmt.Fprintf(&b, "Period:            %s to %s\n",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Initial Capital:   %.2f\n", r.InitialCapital)
	fmt.Fprintf(&b, "Final Capital:     %.2f\n", r.FinalCapital)
	fmt.Fprintf(&b, "Return:            %.2f (%.2f%%)\n\n", r.TotalPnL, returnPct)

	fmt.Fprintf(&b, "TRADE STATISTICS\n%s\n", sep)
	fmt.Fprintf(&b, "Total Trades:      %d\n", r.TotalTrades)
	fmt.Fprintf(&b, "Winning Trades:    %d\n", r.WinningTrades)
	fmt.Fprintf(&b, "Losing Trades:     %d\n", r.LosingTrades)
	fmt.Fprintf(&b, "Win Rate:          %.2f%%\n\n", r.WinRate)

	fmt.Fprintf(&b, "P&L METRICS\n%s\n", sep)
	fmt.Fprintf(&b, "Gross Profit:      %.2f\n", r.GrossProfit)
	fmt.Fprintf(&b, "Gross Loss:        %.2f\n", r.GrossLoss)
	fmt.Fprintf(&b, "Net Profit:        %.2f\n", r.NetProfit)
	fmt.Fprintf(&b, "Profit Factor:     %.2f\n", r.ProfitFactor)
	fmt.Fprintf(&b, "Average Win:       %.2f\n", r.AverageWin)
	fmt.Fprintf(&b, "Average Loss:      %.2f\n", r.AverageLoss)
	fmt.Fprintf(&b, "Largest Win:       %.2f\n", r.LargestWin)
	fmt.Fprintf(&b, "Largest Loss:      %.2f\n\n", r.LargestLoss)

	fmt.Fprintf(&b, "COSTS\n%s\n", sep)
	fmt.Fprintf(&b, "Total Commission:  %.2f\n", r.TotalCommission)
	fmt.Fprintf(&b, "Total Slippage:    %.2f\n\n", r.TotalSlippage)

	fmt.Fprintf(&b, "RISK METRICS\n%s\n", sep)
	fmt.Fprintf(&b, "Max Drawdown:      %.2f (%.2f%%)\n", r.MaxDrawdown, r.MaxDrawdownPct)
	fmt.Fprintf(&b, "Sharpe Ratio:      %.2f\n", r.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio:     %.2f\n", r.SortinoRatio)
	fmt.Fprintf(&b, "Calmar Ratio:      %.2f\n\n", r.CalmarRatio)

	fmt.Fprintf(&b, "OTHER STATISTICS\n%s\n", sep)
	fmt.Fprintf(&b, "Max Consecutive Wins:   %d\n", r.MaxConsecutiveWins)
	fmt.Fprintf(&b, "Max Consecutive Losses: %d\n", r.MaxConsecutiveLosses)
	fmt.Fprintf(&b, "Avg Trade Duration:     %.2f hours\n", r.AverageTradeDuration)
	fmt.Fprintf(&b, "Total Bars Processed:   %d\n", r.TotalBars)

	return b.String()
}
