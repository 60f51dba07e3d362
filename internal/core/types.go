package core

import "time"

// Interval identifiers understood by data providers.
const (
	Interval1Min  = "1min"
	Interval5Min  = "5min"
	Interval15Min = "15min"
	Interval1Hour = "1hour"
	Interval1Day  = "1day"
)

// Bar represents one OHLCV candlestick sample.
type Bar struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"` // "1min", "5min", "1day"
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	Time     time.Time `json:"time"`
}

// IsValid checks if the bar has the fields a simulation can act on.
func (b Bar) IsValid() bool {
	return b.Symbol != "" && b.Close > 0 && !b.Time.IsZero()
}

// Action represents a trading signal action.
// It is a closed set: strategies must return one of the constants below.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// IsValid reports whether the action is one of the known constants.
func (a Action) IsValid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionHold:
		return true
	}
	return false
}

// Quote represents a real-time price quote from a broker.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Volume int64     `json:"volume"`
	Time   time.Time `json:"time"`
}
