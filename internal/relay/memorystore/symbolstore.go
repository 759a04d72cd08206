package memorystore

import (
	"fmt"
	"strings"
	"sync"
)

// MemorySymbolStore holds the configured set of symbols the relay subscribes to.
type MemorySymbolStore struct {
	mu      sync.Mutex
	symbols []string
	seen    map[string]bool
}

func NewSymbolStore() *MemorySymbolStore {
	return &MemorySymbolStore{
		symbols: make([]string, 0),
		seen:    make(map[string]bool),
	}
}

// Add normalizes symbol to uppercase and appends it unless already present.
func (s *MemorySymbolStore) Add(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[symbol] {
		return
	}
	s.seen[symbol] = true
	s.symbols = append(s.symbols, symbol)
}

// StartWorker drains ch into the store. The returned channel is closed once ch is.
func (s *MemorySymbolStore) StartWorker(ch <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for symbol := range ch {
			s.Add(symbol)
		}
	}()
	return done
}

func (s *MemorySymbolStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// StreamNames returns the per-symbol trade stream names, e.g. "btcusdt@trade".
func (s *MemorySymbolStore) StreamNames() []string {
	symbols := s.GetAll()
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, fmt.Sprintf("%s@trade", strings.ToLower(symbol)))
	}
	return out
}
