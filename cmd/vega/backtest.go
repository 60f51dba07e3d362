package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/notifier"
	"github.com/karanvs/vega/internal/strategy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karanvs/vega/internal/logger"
)

var (
	backtestSymbol string
	backtestFrom   string
	backtestTo     string
	backtestParams []string
	backtestNoSave bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run backtest on a strategy",
	Long:  "Run a strategy against historical data and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringArrayVar(&backtestParams, "param", nil, "Strategy parameter key=value (repeatable)")
	backtestCmd.Flags().BoolVar(&backtestNoSave, "no-save", false, "Skip archiving the result")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	strategyName := args[0]

	log := logger.Must(debug)
	defer log.Sync()

	fromDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse("2006-01-02", backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	if toDate.Before(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	params, err := parseParams(backtestParams)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	strategies := buildStrategies()
	strat, ok := strategies.Get(strategyName)
	if !ok {
		return fmt.Errorf("unknown strategy %q (available: %s)",
			strategyName, strings.Join(strategies.Names(), ", "))
	}

	provider, closeProvider, err := buildProvider(cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	engine, err := backtest.New(cfg.Backtest, provider, log)
	if err != nil {
		return err
	}

	result, err := engine.Run(cmd.Context(), strat, backtestSymbol, fromDate, toDate, params)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	fmt.Print(backtest.FormatReport(result))

	if !backtestNoSave {
		store, err := buildStore(cfg)
		if err != nil {
			return fmt.Errorf("opening results storage: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		jsonPath, textPath, err := backtest.NewWriter(store, log).Save(ctx, result)
		if err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		fmt.Printf("\nResults saved: %s, %s\n", jsonPath, textPath)
	}

	for name, err := range buildNotifiers(cfg, log).NotifyAll(notifier.Summary{
		Strategy:     result.Strategy,
		Symbol:       result.Symbol,
		StartDate:    result.StartDate,
		EndDate:      result.EndDate,
		TotalTrades:  result.TotalTrades,
		WinRate:      result.WinRate,
		TotalPnL:     result.TotalPnL,
		FinalCapital: result.FinalCapital,
	}) {
		log.Warn("notifier failed", zap.String("notifier", name), zap.Error(err))
	}

	return nil
}

// parseParams converts key=value flags to strategy parameters. Values
// that parse as numbers become float64, everything else stays a string.
func parseParams(pairs []string) (strategy.Params, error) {
	params := strategy.Params{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q (expected key=value)", pair)
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = n
		} else {
			params[key] = value
		}
	}
	return params, nil
}
