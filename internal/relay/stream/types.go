package stream

import "encoding/json"

// TradeMessage is the raw trade payload from a Binance "<symbol>@trade" stream.
// Price and quantity arrive as decimal strings.
type TradeMessage struct {
	EventType string  `json:"e"` // Event type, "trade"
	EventTime int64   `json:"E"` // Time the event was emitted (ms since epoch)
	Symbol    *string `json:"s"` // Trading symbol, e.g. "BTCUSDT"
	TradeID   int64   `json:"t"` // Exchange trade id
	Price     *string `json:"p"` // Execution price
	Quantity  *string `json:"q"` // Trade size
	TradeTime *int64  `json:"T"` // Trade time (ms since epoch)
	Maker     bool    `json:"m"` // Whether the buyer is the market maker
}

// combinedMessage is the envelope used by the /stream?streams= endpoint.
type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}
