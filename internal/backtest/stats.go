package backtest

import (
	"math"
	"time"
)

// tradingDaysPerYear is the annualization base for Sharpe and Sortino.
const tradingDaysPerYear = 252

// buildResult derives the full result snapshot from a completed run's
// ledger. It is a pure function of its inputs: calling it twice on the
// same ledger state yields identical values.
func buildResult(strategyName, symbol string, start, end time.Time, totalBars int, cfg Config, ledger *Ledger) *Result {
	trades := ledger.Trades()
	curve := ledger.EquityCurve()

	result := &Result{
		Strategy:       strategyName,
		Symbol:         symbol,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   ledger.Capital(),
		Trades:         trades,
		EquityCurve:    curve,
		TotalBars:      totalBars,
	}

	returns := dailyReturns(curve)
	result.DailyReturns = returns
	result.MaxDrawdown, result.MaxDrawdownPct = maxDrawdown(curve)
	result.SharpeRatio = sharpeRatio(returns, cfg.RiskFreeRate)
	result.SortinoRatio = sortinoRatio(returns, cfg.RiskFreeRate)

	if len(trades) == 0 {
		return result
	}

	var (
		wins, losses           int
		sumWin, sumLoss        float64
		largestWin, largestLoss float64
		durationHours          float64
	)
	for _, t := range trades {
		result.TotalPnL += t.PnL
		result.TotalCommission += t.Commission
		result.TotalSlippage += t.Slippage
		durationHours += t.Duration().Hours()

		switch {
		case t.PnL > 0:
			wins++
			sumWin += t.PnL
			if t.PnL > largestWin {
				largestWin = t.PnL
			}
		case t.PnL < 0:
			losses++
			sumLoss += t.PnL
			if t.PnL < largestLoss {
				largestLoss = t.PnL
			}
		}
	}

	result.TotalTrades = len(trades)
	result.WinningTrades = wins
	result.LosingTrades = losses
	result.GrossProfit = sumWin
	result.GrossLoss = math.Abs(sumLoss)
	result.NetProfit = result.TotalPnL - result.TotalCommission - result.TotalSlippage

	result.WinRate = float64(wins) / float64(len(trades)) * 100
	result.ProfitFactor = profitFactor(result.GrossProfit, result.GrossLoss)
	if wins > 0 {
		result.AverageWin = sumWin / float64(wins)
	}
	if losses > 0 {
		result.AverageLoss = sumLoss / float64(losses)
	}
	result.LargestWin = largestWin
	result.LargestLoss = largestLoss
	result.AverageTradeDuration = durationHours / float64(len(trades))

	if result.MaxDrawdown > 0 {
		result.CalmarRatio = result.TotalPnL / result.MaxDrawdown
	}

	result.MaxConsecutiveWins, result.MaxConsecutiveLosses = consecutiveStats(trades)

	return result
}

// profitFactor is gross profit over gross loss, unbounded when there are
// profits but no losses at all.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss > 0 {
		return grossProfit / grossLoss
	}
	if grossProfit > 0 {
		return math.Inf(1)
	}
	return 0
}

// maxDrawdown finds the largest running-peak-to-current decline over the
// equity curve, in absolute terms and as a percentage of the peak at the
// drawdown point.
func maxDrawdown(curve []EquityPoint) (maxDD, maxDDPct float64) {
	if len(curve) == 0 {
		return 0, 0
	}

	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		dd := peak - p.Equity
		if dd > maxDD {
			maxDD = dd
			if peak > 0 {
				maxDDPct = dd / peak * 100
			}
		}
	}
	return maxDD, maxDDPct
}

// dailyReturns reduces the equity curve to successive end-of-day deltas.
// Intraday samples collapse to the last observation per calendar date;
// the return for a day is its closing equity minus the prior day's.
func dailyReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	var eod []float64
	for i, p := range curve {
		if i > 0 && !sameDay(curve[i-1].Time, p.Time) {
			eod = append(eod, curve[i-1].Equity)
		}
		if i == len(curve)-1 {
			eod = append(eod, p.Equity)
		}
	}

	if len(eod) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(eod)-1)
	for i := 1; i < len(eod); i++ {
		returns = append(returns, eod[i]-eod[i-1])
	}
	return returns
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// sharpeRatio computes the annualized Sharpe ratio over daily returns.
// Fewer than 2 samples or zero volatility yield 0, not an error.
func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	avg := mean(returns)
	std := sampleStdev(returns, avg)
	if std == 0 {
		return 0
	}

	dailyRF := riskFreeRate / tradingDaysPerYear
	return (avg - dailyRF) / std * math.Sqrt(tradingDaysPerYear)
}

// sortinoRatio is the Sharpe numerator over the standard deviation of the
// negative daily returns only. With no negative returns there is no
// downside risk and the ratio is unbounded.
func sortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}

	var downsideDev float64
	if len(downside) > 1 {
		downsideDev = sampleStdev(downside, mean(downside))
	}
	if downsideDev == 0 {
		return 0
	}

	dailyRF := riskFreeRate / tradingDaysPerYear
	return (mean(returns) - dailyRF) / downsideDev * math.Sqrt(tradingDaysPerYear)
}

// consecutiveStats finds the longest runs of strictly-positive and
// strictly-negative trade PnL in chronological order. A zero-PnL trade
// resets both counters.
func consecutiveStats(trades []Trade) (maxWins, maxLosses int) {
	var curWins, curLosses int
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			curWins++
			curLosses = 0
		case t.PnL < 0:
			curLosses++
			curWins = 0
		default:
			curWins, curLosses = 0, 0
		}
		if curWins > maxWins {
			maxWins = curWins
		}
		if curLosses > maxLosses {
			maxLosses = curLosses
		}
	}
	return maxWins, maxLosses
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdev is the n-1 standard deviation around the given mean.
func sampleStdev(values []float64, avg float64) float64 {
	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
