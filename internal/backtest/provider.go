package backtest

import (
	"context"
	"time"

	"github.com/karanvs/vega/internal/core"
)

// BarProvider supplies historical OHLCV bars for simulation.
//
// Implementations must return bars sorted ascending by timestamp,
// deduplicated, and filtered to [start, end] inclusive. An empty slice
// (not an error) means there is nothing to simulate for the range;
// connectivity failures propagate as errors. Swapping implementations
// must not change simulation results for identical bar content.
type BarProvider interface {
	Load(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.Bar, error)
}
