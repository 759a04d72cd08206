package snapshot

import (
	"context"
	"strings"
	"time"

	"pricerelay/pkg/binance"

	"go.uber.org/zap"
)

// TradingChecker reports which symbols the exchange currently lists as trading.
type TradingChecker interface {
	GetTradingSymbols(ctx context.Context, symbols []string) (map[string]bool, error)
}

type SymbolLoader struct {
	Symbols    []string
	RestClient TradingChecker // optional
	Timeout    time.Duration
	Logger     *zap.Logger
}

// LoadSymbols normalizes the configured symbols and streams them into ch.
// When a REST client is set, symbols the exchange does not report as trading are
// skipped, unless that would leave nothing to subscribe to. REST failures only log.
func (l *SymbolLoader) LoadSymbols(ch chan<- string) error {
	defer close(ch) // Ensure downstream consumers can exit cleanly

	symbols := normalize(l.Symbols)
	l.Logger.Info("loaded symbols", zap.Int("count", len(symbols)), zap.Strings("symbols", symbols))

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if l.RestClient != nil && len(symbols) > 0 {
		symbols = l.filterTrading(ctx, symbols)
	}

	for _, symbol := range symbols {
		select {
		case ch <- symbol:
		case <-ctx.Done():
			l.Logger.Warn("symbol streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	return nil
}

func (l *SymbolLoader) filterTrading(ctx context.Context, symbols []string) []string {
	trading, err := l.RestClient.GetTradingSymbols(ctx, symbols)
	if err != nil {
		l.Logger.Warn("failed to verify symbols, using configured list", zap.Error(err))
		return symbols
	}

	var kept []string
	for _, symbol := range symbols {
		if trading[symbol] {
			kept = append(kept, symbol)
			continue
		}
		l.Logger.Warn("symbol is not trading, skipping", zap.String("symbol", symbol))
	}
	if len(kept) == 0 {
		l.Logger.Warn("no configured symbol is trading, using configured list")
		return symbols
	}
	return kept
}

func normalize(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

var _ TradingChecker = (*binance.RESTClient)(nil)
