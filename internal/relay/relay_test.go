package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pricerelay/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func newFeed(t *testing.T) (string, <-chan *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 10)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", accepted
}

func testConfig(wsURL string) *config.Config {
	return &config.Config{
		Binance: config.BinanceConfig{
			Symbols: []string{"btcusdt", "ETHUSDT"},
			WS:      config.WSConfig{URL: wsURL, ReconnectDelay: 100 * time.Millisecond, HandshakeTimeout: time.Second},
			REST:    config.RESTConfig{Timeout: time.Second},
		},
		Relay: config.RelayConfig{HistorySize: 100, StatsInterval: time.Minute, PublishBuffer: 16},
		HTTP:  config.HTTPConfig{Port: 3001},
		Log:   config.LogConfig{Environment: "dev"},
	}
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return w.Code, body
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func wsStatus(t *testing.T, h http.Handler) string {
	_, body := getJSON(t, h, "/api/health")
	s, _ := body["wsStatus"].(string)
	return s
}

// go test -v --run TestRelayEndToEnd
func TestRelayEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wsURL, accepted := newFeed(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(wsURL)
	cfg.Redis.Addr = mr.Addr()

	ctx := context.Background()
	r, err := Build(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if got := r.WS.URL(); got != wsURL+"/btcusdt@trade/ethusdt@trade" {
		t.Errorf("unexpected stream url: %s", got)
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Close(closeCtx); err != nil {
			t.Errorf("close failed: %v", err)
		}
	}()

	h := r.Handler()

	var conn *websocket.Conn
	select {
	case conn = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not connect")
	}
	eventually(t, func() bool { return wsStatus(t, h) == "connected" })

	// A malformed frame must not tear down the connection or change state.
	conn.WriteMessage(websocket.TextMessage, []byte(`{"s":"BTCUSDT","p":`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"e":"trade","s":"BTCUSDT","p":"100.00","q":"0.5","T":1700000000000}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"e":"trade","s":"BTCUSDT","p":"110.00","q":"0.1","T":1700000001000}`))

	eventually(t, func() bool {
		code, body := getJSON(t, h, "/api/prices/btcusdt")
		if code != http.StatusOK {
			return false
		}
		data := body["data"].(map[string]any)
		return data["price"] == float64(110)
	})

	_, body := getJSON(t, h, "/api/prices/BTCUSDT")
	data := body["data"].(map[string]any)
	if data["changePercent"] != float64(10) || data["low"] != float64(100) || data["high"] != float64(110) {
		t.Errorf("unexpected snapshot: %v", data)
	}
	if r.WS.Attempts() != 1 {
		t.Errorf("malformed message caused a reconnect: %d attempts", r.WS.Attempts())
	}

	code, _ := getJSON(t, h, "/api/prices/ETHUSDT")
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unseen symbol, got %d", code)
	}

	eventually(t, func() bool {
		v, err := mr.Get("price:BTCUSDT")
		return err == nil && strings.Contains(v, `"price":110`)
	})

	// Dropping the upstream connection shows as disconnected until the retry succeeds.
	conn.Close()
	eventually(t, func() bool { return wsStatus(t, h) == "disconnected" })

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not reconnect")
	}
	eventually(t, func() bool { return wsStatus(t, h) == "connected" })
	if r.WS.Attempts() != 2 {
		t.Errorf("expected 2 dial attempts, got %d", r.WS.Attempts())
	}

	// State survives the reconnect.
	_, body = getJSON(t, h, "/api/history/btcusdt")
	if history := body["history"].([]any); len(history) != 2 {
		t.Errorf("expected 2 history entries, got %v", history)
	}
}

// go test -v --run TestRelayCloseWithoutStart
func TestRelayCloseWithoutStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wsURL, _ := newFeed(t)
	mr := miniredis.RunT(t)

	cfg := testConfig(wsURL)
	cfg.Redis.Addr = mr.Addr()

	r, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}
