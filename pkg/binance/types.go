package binance

// ExchangeInfoResponse is the subset of GET /api/v3/exchangeInfo used by the relay.
type ExchangeInfoResponse struct {
	Timezone   string       `json:"timezone"`   // Always "UTC"
	ServerTime int64        `json:"serverTime"` // Server timestamp (ms since epoch)
	Symbols    []SymbolInfo `json:"symbols"`
}

type SymbolInfo struct {
	Symbol     string `json:"symbol"`     // e.g., "BTCUSDT"
	Status     string `json:"status"`     // e.g., "TRADING", "BREAK"
	BaseAsset  string `json:"baseAsset"`  // e.g., "BTC"
	QuoteAsset string `json:"quoteAsset"` // e.g., "USDT"
	// ... extra
}

// APIError is the error body returned by the REST API on non-200 responses.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
