package memorystore

import "testing"

// go test -v --run TestSymbolStoreDedupAndStreams
func TestSymbolStoreDedupAndStreams(t *testing.T) {
	store := NewSymbolStore()

	ch := make(chan string, 4)
	ch <- "btcusdt"
	ch <- " ETHUSDT "
	ch <- "BTCUSDT"
	ch <- ""
	close(ch)
	<-store.StartWorker(ch)

	symbols := store.GetAll()
	if len(symbols) != 2 || symbols[0] != "BTCUSDT" || symbols[1] != "ETHUSDT" {
		t.Fatalf("unexpected symbols: %v", symbols)
	}

	streams := store.StreamNames()
	if len(streams) != 2 || streams[0] != "btcusdt@trade" || streams[1] != "ethusdt@trade" {
		t.Errorf("unexpected stream names: %v", streams)
	}
}
