// Package notifier delivers run completion summaries to external channels.
package notifier

import "time"

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Summary is the digest of a finished backtest sent to channels. It is a
// deliberate subset of the full result: notifications carry headline
// numbers, the archive carries everything else.
type Summary struct {
	Strategy     string
	Symbol       string
	StartDate    time.Time
	EndDate      time.Time
	TotalTrades  int
	WinRate      float64
	TotalPnL     float64
	FinalCapital float64
}

// Notifier defines the interface for run notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a run summary
	Send(summary Summary) error
}
