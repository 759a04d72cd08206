package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// go test -v --run TestLoadDefaults
func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Binance.Symbols) != 6 || cfg.Binance.Symbols[0] != "BTCUSDT" {
		t.Errorf("unexpected default symbols: %v", cfg.Binance.Symbols)
	}
	if cfg.Binance.WS.ReconnectDelay != 5*time.Second {
		t.Errorf("unexpected reconnect delay: %v", cfg.Binance.WS.ReconnectDelay)
	}
	if cfg.Relay.HistorySize != 100 || cfg.HTTP.Port != 3001 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Relay, cfg.HTTP)
	}
	if cfg.HTTP.Addr() != ":3001" {
		t.Errorf("unexpected addr: %s", cfg.HTTP.Addr())
	}
}

// go test -v --run TestLoadFileAndEnv
func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("binance:\n  symbols: [btcusdt, ethusdt]\n  ws:\n    reconnect_delay: 2s\nhttp:\n  port: 8080\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BINANCE_WS_URL", "ws://localhost:9999/ws")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Binance.Symbols) != 2 || cfg.Binance.Symbols[1] != "ETHUSDT" {
		t.Errorf("unexpected symbols: %v", cfg.Binance.Symbols)
	}
	if cfg.Binance.WS.ReconnectDelay != 2*time.Second {
		t.Errorf("unexpected reconnect delay: %v", cfg.Binance.WS.ReconnectDelay)
	}
	if cfg.Binance.WS.URL != "ws://localhost:9999/ws" {
		t.Errorf("env override not applied: %s", cfg.Binance.WS.URL)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("PORT override not applied: %d", cfg.HTTP.Port)
	}
}

// go test -v --run TestLoadRejectsBadPort
func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "http")
	if _, err := LoadFrom(t.TempDir()); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

type fakeSSM struct {
	value string
	err   error
	asked string
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.asked = *in.Name
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: &f.value}}, nil
}

// go test -v --run TestResolveSymbols
func TestResolveSymbols(t *testing.T) {
	base := Config{
		Binance: BinanceConfig{Symbols: []string{"BTCUSDT"}, SymbolsParameter: "/relay/symbols"},
		Log:     LogConfig{Environment: "prod"},
	}

	cfg := base
	client := &fakeSSM{value: "solusdt, adausdt"}
	got, err := cfg.ResolveSymbols(context.Background(), client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.asked != "/relay/symbols" || len(got) != 2 || got[0] != "SOLUSDT" || got[1] != "ADAUSDT" {
		t.Errorf("unexpected symbols %v from %s", got, client.asked)
	}

	failing := &fakeSSM{err: errors.New("denied")}
	got, err = cfg.ResolveSymbols(context.Background(), failing)
	if err == nil || len(got) != 1 || got[0] != "BTCUSDT" {
		t.Errorf("expected configured fallback with error, got %v %v", got, err)
	}

	dev := base
	dev.Log.Environment = "dev"
	unused := &fakeSSM{}
	got, err = dev.ResolveSymbols(context.Background(), unused)
	if err != nil || unused.asked != "" || got[0] != "BTCUSDT" {
		t.Errorf("dev should not consult SSM: %v %v %q", got, err, unused.asked)
	}
}
