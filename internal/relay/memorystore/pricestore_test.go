package memorystore

import (
	"math"
	"sync"
	"testing"
)

func trade(symbol string, price float64, t int64) TradeEvent {
	return TradeEvent{Symbol: symbol, Price: price, Quantity: 0.5, EventTimeMillis: t}
}

// go test -v --run TestIngestCreatesSnapshot
func TestIngestCreatesSnapshot(t *testing.T) {
	store := NewPriceStore(0)

	if _, ok := store.GetBySymbol("BTCUSDT"); ok {
		t.Fatal("expected no snapshot before first trade")
	}
	if _, ok := store.GetHistory("BTCUSDT"); ok {
		t.Fatal("expected no history before first trade")
	}

	store.Ingest(TradeEvent{Symbol: "BTCUSDT", Price: 42000.5, Quantity: 0.25, EventTimeMillis: 1700000000123})

	snap, ok := store.GetBySymbol("BTCUSDT")
	if !ok {
		t.Fatal("expected snapshot after first trade")
	}
	if snap.Price != 42000.5 || snap.High != 42000.5 || snap.Low != 42000.5 {
		t.Errorf("unexpected bounds: %+v", snap)
	}
	if snap.Quantity != 0.25 {
		t.Errorf("expected quantity 0.25, got %v", snap.Quantity)
	}
	if snap.ChangePercent != 0 {
		t.Errorf("expected changePercent 0, got %v", snap.ChangePercent)
	}
	if snap.Timestamp != "2023-11-14T22:13:20.123Z" {
		t.Errorf("unexpected timestamp: %s", snap.Timestamp)
	}

	history, ok := store.GetHistory("BTCUSDT")
	if !ok || len(history) != 1 {
		t.Fatalf("expected one history entry, got %v", history)
	}
	if history[0] != (HistoryPoint{Price: 42000.5, Timestamp: snap.Timestamp}) {
		t.Errorf("unexpected history entry: %+v", history[0])
	}
}

// go test -v --run TestIngestChangePercent
func TestIngestChangePercent(t *testing.T) {
	store := NewPriceStore(0)

	store.Ingest(trade("ETHUSDT", 100, 1))
	if got := store.Ingest(trade("ETHUSDT", 110, 2)).ChangePercent; got != 10 {
		t.Errorf("expected 10.00, got %v", got)
	}
	if got := store.Ingest(trade("ETHUSDT", 99, 3)).ChangePercent; got != -10 {
		t.Errorf("expected -10.00, got %v", got)
	}
}

// go test -v --run TestChangePercentRounding
func TestChangePercentRounding(t *testing.T) {
	cases := []struct {
		prev, cur, want float64
	}{
		{100, 100, 0},
		{3, 4, 33.33},
		{3, 2, -33.33},
		{0.0001, 0.00015, 50},
		{64321.12, 64330.01, 0.01},
		{0, 10, 0},
		{100, math.Inf(1), 0},
		{math.Inf(1), 100, 0},
		{100, math.NaN(), 0},
	}
	for _, c := range cases {
		if got := ChangePercent(c.prev, c.cur); got != c.want {
			t.Errorf("ChangePercent(%v, %v) = %v, want %v", c.prev, c.cur, got, c.want)
		}
	}
}

// go test -v --run TestIngestZeroPreviousPrice
func TestIngestZeroPreviousPrice(t *testing.T) {
	store := NewPriceStore(0)

	store.Ingest(trade("ZEROUSDT", 0, 1))
	snap := store.Ingest(trade("ZEROUSDT", 5, 2))
	if snap.ChangePercent != 0 || math.IsNaN(snap.ChangePercent) || math.IsInf(snap.ChangePercent, 0) {
		t.Errorf("expected changePercent 0 after zero price, got %v", snap.ChangePercent)
	}
	if snap.Low != 0 || snap.High != 5 {
		t.Errorf("unexpected bounds: %+v", snap)
	}
}

// go test -v --run TestIngestHighLow
func TestIngestHighLow(t *testing.T) {
	store := NewPriceStore(0)
	prices := []float64{50, 52, 47, 47.5, 60, 10, 33, 60, 9.99}

	hi, lo := math.Inf(-1), math.Inf(1)
	for i, p := range prices {
		snap := store.Ingest(trade("SOLUSDT", p, int64(i+1)))
		hi, lo = math.Max(hi, p), math.Min(lo, p)

		if snap.High != hi || snap.Low != lo {
			t.Fatalf("step %d: expected high=%v low=%v, got %+v", i, hi, lo, snap)
		}
		if !(snap.Low <= snap.Price && snap.Price <= snap.High) {
			t.Fatalf("step %d: price outside bounds: %+v", i, snap)
		}
	}
}

// go test -v --run TestHistoryBounded
func TestHistoryBounded(t *testing.T) {
	store := NewPriceStore(DefaultHistoryCap)

	for i := 1; i <= 150; i++ {
		store.Ingest(trade("XRPUSDT", float64(i), int64(i)))
	}

	history, ok := store.GetHistory("XRPUSDT")
	if !ok {
		t.Fatal("expected history")
	}
	if len(history) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(history))
	}
	for i, h := range history {
		if want := float64(51 + i); h.Price != want {
			t.Fatalf("entry %d: expected price %v, got %v", i, want, h.Price)
		}
	}
	if store.CountHistory() != 100 {
		t.Errorf("expected CountHistory 100, got %d", store.CountHistory())
	}
}

// go test -v --run TestHistoryIsCopy
func TestHistoryIsCopy(t *testing.T) {
	store := NewPriceStore(3)
	store.Ingest(trade("ADAUSDT", 1, 1))

	history, _ := store.GetHistory("ADAUSDT")
	history[0].Price = 999

	again, _ := store.GetHistory("ADAUSDT")
	if again[0].Price != 1 {
		t.Errorf("history mutated through returned slice: %+v", again)
	}

	all := store.GetAll()
	delete(all, "ADAUSDT")
	if store.Count() != 1 {
		t.Errorf("GetAll result shares state with the store")
	}
}

// go test -v --run TestSymbolIsolation
func TestSymbolIsolation(t *testing.T) {
	store := NewPriceStore(0)
	store.Ingest(trade("BTCUSDT", 100, 1))
	before, _ := store.GetBySymbol("BTCUSDT")
	beforeHist, _ := store.GetHistory("BTCUSDT")

	for i := 0; i < 20; i++ {
		store.Ingest(trade("ETHUSDT", float64(200+i), int64(i+2)))
	}

	after, _ := store.GetBySymbol("BTCUSDT")
	afterHist, _ := store.GetHistory("BTCUSDT")
	if before != after {
		t.Errorf("BTCUSDT snapshot changed: %+v -> %+v", before, after)
	}
	if len(beforeHist) != len(afterHist) || beforeHist[0] != afterHist[0] {
		t.Errorf("BTCUSDT history changed: %+v -> %+v", beforeHist, afterHist)
	}
	if got := store.Symbols(); len(got) != 2 || got[0] != "BTCUSDT" || got[1] != "ETHUSDT" {
		t.Errorf("unexpected symbols: %v", got)
	}
}

// go test -v --run TestOnUpdateHook
func TestOnUpdateHook(t *testing.T) {
	store := NewPriceStore(0)

	var got []PriceSnapshot
	store.OnUpdate(func(s PriceSnapshot) { got = append(got, s) })

	store.Ingest(trade("BTCUSDT", 1, 1))
	store.Ingest(trade("BTCUSDT", 2, 2))

	if len(got) != 2 || got[1].Price != 2 || got[1].ChangePercent != 100 {
		t.Errorf("unexpected hook calls: %+v", got)
	}
}

// go test -race -v --run TestConcurrentReadersSeeConsistentSnapshots
func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	store := NewPriceStore(10)
	store.Ingest(trade("BTCUSDT", 1, 1))

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, ok := store.GetBySymbol("BTCUSDT")
				if !ok {
					t.Error("snapshot disappeared")
					return
				}
				// Prices only rise in this test, so a consistent snapshot has High == Price.
				if snap.High != snap.Price || snap.Low != 1 {
					t.Errorf("torn snapshot: %+v", snap)
					return
				}
				history, _ := store.GetHistory("BTCUSDT")
				if len(history) == 0 || len(history) > 10 {
					t.Errorf("unexpected history length %d", len(history))
					return
				}
			}
		}()
	}

	for i := 2; i <= 2000; i++ {
		store.Ingest(trade("BTCUSDT", float64(i), int64(i)))
	}
	close(done)
	wg.Wait()
}
