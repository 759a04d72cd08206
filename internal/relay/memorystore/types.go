package memorystore

import (
	"errors"
	"time"
)

// DefaultHistoryCap is the number of recent prices retained per symbol.
const DefaultHistoryCap = 100

// TimeLayout is the ISO-8601 layout used for every timestamp the relay exposes.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrSymbolNotFound is returned when a symbol has never been observed.
var ErrSymbolNotFound = errors.New("symbol not found")

// TradeEvent is a single parsed trade received from the upstream stream.
type TradeEvent struct {
	Symbol          string  // Trading symbol, uppercase (e.g., "BTCUSDT")
	Price           float64 // Execution price
	Quantity        float64 // Trade size
	EventTimeMillis int64   // Trade time reported by the exchange (ms since epoch)
}

// Timestamp renders the event time as an ISO-8601 UTC string with millisecond precision.
func (e TradeEvent) Timestamp() string {
	return FormatMillis(e.EventTimeMillis)
}

// PriceSnapshot is the latest known state for one symbol.
// Values are never mutated after construction; updates swap in a new snapshot.
type PriceSnapshot struct {
	Symbol        string  `json:"symbol"`        // Trading symbol
	Price         float64 `json:"price"`         // Last trade price
	Quantity      float64 `json:"quantity"`      // Last trade quantity
	Timestamp     string  `json:"timestamp"`     // ISO-8601 time of the last applied trade
	ChangePercent float64 `json:"changePercent"` // Change vs. the immediately preceding trade, 2 dp
	High          float64 `json:"high"`          // Highest price since the symbol was first seen
	Low           float64 `json:"low"`           // Lowest price since the symbol was first seen
}

// HistoryPoint is one entry of a symbol's recent price history.
type HistoryPoint struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// FormatMillis converts epoch milliseconds to the ISO form used in snapshots.
func FormatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimeLayout)
}
