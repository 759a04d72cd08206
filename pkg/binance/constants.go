package binance

import "time"

// ConnectionStatus is the lifecycle state of the upstream stream connection.
type ConnectionStatus string

const (
	StatusConnecting ConnectionStatus = "CONNECTING"
	StatusOpen       ConnectionStatus = "OPEN"
	StatusClosed     ConnectionStatus = "CLOSED"
)

const (
	// DefaultWSBaseURL is the raw-stream endpoint; stream names are appended as path segments.
	DefaultWSBaseURL = "wss://stream.binance.com:9443/ws"
	// DefaultRESTBaseURL is the spot REST API root.
	DefaultRESTBaseURL = "https://api.binance.com"

	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second

	// SymbolStatusTrading marks a symbol that currently accepts orders.
	SymbolStatusTrading = "TRADING"
)
