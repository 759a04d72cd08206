package memorystore

import (
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceStore aggregates trade events into per-symbol snapshots and bounded history.
// Ingest is expected to be called from a single writer; the getters are safe for
// any number of concurrent readers.
type PriceStore struct {
	globalMu   sync.RWMutex
	data       map[string]*symbolPriceStore
	historyCap int

	hookMu sync.RWMutex
	hooks  []func(PriceSnapshot)
}

// symbolPriceStore holds the state of one symbol. The snapshot and the ring are
// only changed together under mu, so readers never see one without the other.
type symbolPriceStore struct {
	mu      sync.RWMutex
	seen    bool
	current PriceSnapshot
	history *historyRing
}

func NewPriceStore(historyCap int) *PriceStore {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &PriceStore{
		data:       make(map[string]*symbolPriceStore),
		historyCap: historyCap,
	}
}

// OnUpdate registers fn to be called with every snapshot produced by Ingest.
// Hooks run synchronously on the ingesting goroutine and must not block.
func (s *PriceStore) OnUpdate(fn func(PriceSnapshot)) {
	s.hookMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hookMu.Unlock()
}

// Ingest applies a trade event and returns the resulting snapshot.
func (s *PriceStore) Ingest(ev TradeEvent) PriceSnapshot {
	// Fast path: lock per-symbol store only
	s.globalMu.RLock()
	store, ok := s.data[ev.Symbol]
	s.globalMu.RUnlock()

	if !ok {
		s.globalMu.Lock()
		if store, ok = s.data[ev.Symbol]; !ok {
			store = &symbolPriceStore{history: newHistoryRing(s.historyCap)}
			s.data[ev.Symbol] = store
		}
		s.globalMu.Unlock()
	}

	ts := ev.Timestamp()

	store.mu.Lock()
	var next PriceSnapshot
	if !store.seen {
		next = PriceSnapshot{
			Symbol:    ev.Symbol,
			Price:     ev.Price,
			Quantity:  ev.Quantity,
			Timestamp: ts,
			High:      ev.Price,
			Low:       ev.Price,
		}
		store.seen = true
	} else {
		prev := store.current
		next = PriceSnapshot{
			Symbol:        prev.Symbol,
			Price:         ev.Price,
			Quantity:      ev.Quantity,
			Timestamp:     ts,
			ChangePercent: ChangePercent(prev.Price, ev.Price),
			High:          max(prev.High, ev.Price),
			Low:           min(prev.Low, ev.Price),
		}
	}
	store.current = next
	store.history.push(HistoryPoint{Price: ev.Price, Timestamp: ts})
	store.mu.Unlock()

	s.hookMu.RLock()
	hooks := s.hooks
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(next)
	}

	return next
}

// ChangePercent returns (current-previous)/previous*100 rounded to 2 decimal places.
// A previous price of zero, or a non-finite input, yields 0.
func ChangePercent(previous, current float64) float64 {
	if previous == 0 || !isFinite(previous) || !isFinite(current) {
		return 0
	}
	prev := decimal.NewFromFloat(previous)
	return decimal.NewFromFloat(current).
		Sub(prev).
		Div(prev).
		Mul(hundred).
		Round(2).
		InexactFloat64()
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// lookup returns the store for symbol if at least one trade has been applied to it.
func (s *PriceStore) lookup(symbol string) (*symbolPriceStore, bool) {
	s.globalMu.RLock()
	store, ok := s.data[symbol]
	s.globalMu.RUnlock()
	return store, ok
}

func (s *PriceStore) GetBySymbol(symbol string) (PriceSnapshot, bool) {
	store, ok := s.lookup(symbol)
	if !ok {
		return PriceSnapshot{}, false
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if !store.seen {
		return PriceSnapshot{}, false
	}
	return store.current, true
}

// GetHistory returns a copy of the symbol's recent prices, oldest first.
func (s *PriceStore) GetHistory(symbol string) ([]HistoryPoint, bool) {
	store, ok := s.lookup(symbol)
	if !ok {
		return nil, false
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if !store.seen {
		return nil, false
	}
	return store.history.list(), true
}

// GetAll returns a point-in-time copy of every observed symbol's snapshot.
func (s *PriceStore) GetAll() map[string]PriceSnapshot {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	result := make(map[string]PriceSnapshot, len(s.data))
	for sym, store := range s.data {
		store.mu.RLock()
		if store.seen {
			result[sym] = store.current
		}
		store.mu.RUnlock()
	}
	return result
}

// Count returns the number of symbols with at least one applied trade.
func (s *PriceStore) Count() int {
	return len(s.GetAll())
}

// Symbols returns the observed symbols in lexical order.
func (s *PriceStore) Symbols() []string {
	all := s.GetAll()
	out := make([]string, 0, len(all))
	for sym := range all {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// CountHistory returns the total number of history entries across all symbols.
func (s *PriceStore) CountHistory() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.RLock()
		total += store.history.len()
		store.mu.RUnlock()
	}
	return total
}
