package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pricerelay/config"
	"pricerelay/internal/relay/api"
	"pricerelay/internal/relay/memorystore"
	"pricerelay/internal/relay/query"
	"pricerelay/internal/relay/snapshot"
	"pricerelay/internal/relay/stats"
	"pricerelay/internal/relay/stream"
	"pricerelay/pkg/binance"
	"pricerelay/pkg/publish"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay wires the upstream trade stream, the price store and the query API.
type Relay struct {
	Store   *memorystore.PriceStore
	Symbols *memorystore.MemorySymbolStore
	WS      *binance.WSClient
	Query   *query.Service

	handler    http.Handler
	server     *api.Server
	dispatcher *publish.Dispatcher
	reporter   *stats.Reporter
	logger     *zap.Logger
}

// Build resolves the symbol set and constructs every component without starting any.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Relay, error) {
	symbols, err := cfg.ResolveSymbols(ctx, nil)
	if err != nil {
		logger.Warn("failed to resolve symbols from parameter store, using configured list", zap.Error(err))
	}

	// Load symbols through the loader so they are normalized and optionally verified
	loader := &snapshot.SymbolLoader{
		Symbols: symbols,
		Timeout: cfg.Binance.REST.Timeout,
		Logger:  logger,
	}
	if cfg.Binance.REST.VerifySymbols {
		loader.RestClient = binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout)
	}
	symbolCh := make(chan string, len(symbols))
	symbolStore := memorystore.NewSymbolStore()
	done := symbolStore.StartWorker(symbolCh)
	if err := loader.LoadSymbols(symbolCh); err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	<-done
	if len(symbolStore.GetAll()) == 0 {
		return nil, errors.New("no symbols to subscribe to")
	}

	store := memorystore.NewPriceStore(cfg.Relay.HistorySize)

	ws := binance.NewWSClient(cfg.Binance.WS.URL, symbolStore.StreamNames(), logger,
		binance.WithReconnectDelay(cfg.Binance.WS.ReconnectDelay),
		binance.WithHandshakeTimeout(cfg.Binance.WS.HandshakeTimeout))
	ws.SetMessageHandler(stream.MakeMessageHandler(logger, func(ev memorystore.TradeEvent) {
		store.Ingest(ev)
	}))
	ws.SetStatusHandler(func(s binance.ConnectionStatus) {
		logger.Debug("upstream status changed", zap.String("status", string(s)))
	})

	svc := query.NewService(store, ws)
	router := api.NewRouter(svc, logger)

	r := &Relay{
		Store:   store,
		Symbols: symbolStore,
		WS:      ws,
		Query:   svc,
		handler: router,
		server:  api.NewServer(cfg.HTTP.Addr(), router, logger),
		logger:  logger,
	}

	if publishers := buildPublishers(ctx, cfg, logger); len(publishers) > 0 {
		r.dispatcher = publish.NewDispatcher(publishers, cfg.Relay.PublishBuffer, logger)
		store.OnUpdate(r.dispatcher.Enqueue)
	}

	r.reporter, err = stats.NewReporter(cfg.Relay.StatsInterval, r.collectStats, logger)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func buildPublishers(ctx context.Context, cfg *config.Config, logger *zap.Logger) []publish.Publisher {
	var publishers []publish.Publisher

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, snapshot publishing disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			logger.Info("redis publisher enabled", zap.String("addr", cfg.Redis.Addr))
			publishers = append(publishers, publish.NewRedisPublisher(client, cfg.Redis.KeyPrefix))
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
		publishers = append(publishers, publish.NewKafkaPublisher(publish.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)))
	}

	return publishers
}

// Start connects to the upstream stream and starts background workers. It does not block.
func (r *Relay) Start(ctx context.Context) error {
	if r.dispatcher != nil {
		r.dispatcher.Start()
	}
	if err := r.WS.Start(ctx); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	r.reporter.Start()

	r.logger.Info("relay started",
		zap.Strings("symbols", r.Symbols.GetAll()),
		zap.String("url", r.WS.URL()))
	return nil
}

// Handler returns the query API handler.
func (r *Relay) Handler() http.Handler {
	return r.handler
}

// Serve runs the HTTP server until Close.
func (r *Relay) Serve() error {
	return r.server.Run()
}

// Close stops the HTTP server, the upstream connection and the publishers, in that order.
func (r *Relay) Close(ctx context.Context) error {
	var errs []error

	if err := r.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	r.WS.Stop()
	r.reporter.Stop()
	if r.dispatcher != nil {
		if err := r.dispatcher.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close publishers: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (r *Relay) collectStats() stats.Snapshot {
	s := stats.Snapshot{
		Symbols:        r.Store.Count(),
		HistoryEntries: r.Store.CountHistory(),
		WSStatus:       string(r.WS.Status()),
		DialAttempts:   r.WS.Attempts(),
	}
	if r.dispatcher != nil {
		s.Dropped = r.dispatcher.Dropped()
	}
	return s
}
