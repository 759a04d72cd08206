package query

import (
	"fmt"
	"strings"
	"time"

	"pricerelay/internal/relay/memorystore"
	"pricerelay/pkg/binance"
)

const (
	WSConnected    = "connected"
	WSDisconnected = "disconnected"
)

// Reader is the read side of the price store.
type Reader interface {
	GetAll() map[string]memorystore.PriceSnapshot
	GetBySymbol(symbol string) (memorystore.PriceSnapshot, bool)
	GetHistory(symbol string) ([]memorystore.HistoryPoint, bool)
}

// StatusSource reports the upstream connection state.
type StatusSource interface {
	Status() binance.ConnectionStatus
}

// Health is the liveness report of the relay.
type Health struct {
	Status           string
	ServerTime       time.Time
	ConnectedSymbols int
	WSStatus         string
}

// Service answers read-only queries against the price store.
type Service struct {
	store Reader
	conn  StatusSource
	now   func() time.Time
}

func NewService(store Reader, conn StatusSource) *Service {
	return &Service{store: store, conn: conn, now: time.Now}
}

// NormalizeSymbol trims and uppercases a user-supplied symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *Service) Prices() map[string]memorystore.PriceSnapshot {
	return s.store.GetAll()
}

func (s *Service) Price(symbol string) (memorystore.PriceSnapshot, error) {
	symbol = NormalizeSymbol(symbol)
	snap, ok := s.store.GetBySymbol(symbol)
	if !ok {
		return memorystore.PriceSnapshot{}, fmt.Errorf("price %s: %w", symbol, memorystore.ErrSymbolNotFound)
	}
	return snap, nil
}

func (s *Service) History(symbol string) (string, []memorystore.HistoryPoint, error) {
	symbol = NormalizeSymbol(symbol)
	history, ok := s.store.GetHistory(symbol)
	if !ok {
		return symbol, nil, fmt.Errorf("history %s: %w", symbol, memorystore.ErrSymbolNotFound)
	}
	return symbol, history, nil
}

// Connected reports whether the upstream connection is open.
func (s *Service) Connected() bool {
	return s.conn != nil && s.conn.Status() == binance.StatusOpen
}

func (s *Service) Now() time.Time {
	return s.now().UTC()
}

func (s *Service) Health() Health {
	ws := WSDisconnected
	if s.Connected() {
		ws = WSConnected
	}
	return Health{
		Status:           "healthy",
		ServerTime:       s.Now(),
		ConnectedSymbols: len(s.store.GetAll()),
		WSStatus:         ws,
	}
}
