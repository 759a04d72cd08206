package publish

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pricerelay/internal/relay/memorystore"

	"go.uber.org/zap"
)

const DefaultBufferSize = 1024

// Dispatcher decouples publishers from ingestion: Enqueue never blocks, and a
// single worker delivers snapshots to every publisher in arrival order.
type Dispatcher struct {
	publishers []Publisher
	queue      chan memorystore.PriceSnapshot
	timeout    time.Duration
	logger     *zap.Logger

	dropped atomic.Int64
	failed  atomic.Int64

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(publishers []Publisher, bufferSize int, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Dispatcher{
		publishers: publishers,
		queue:      make(chan memorystore.PriceSnapshot, bufferSize),
		timeout:    2 * time.Second,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start launches the delivery worker. Calls after the first are no-ops.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() { go d.run() })
}

// Enqueue schedules snap for delivery, dropping it if the buffer is full.
func (d *Dispatcher) Enqueue(snap memorystore.PriceSnapshot) {
	select {
	case d.queue <- snap:
	default:
		d.dropped.Add(1)
	}
}

// Dropped returns the number of snapshots discarded because the buffer was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Failed returns the number of failed publisher deliveries.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for snap := range d.queue {
		for _, p := range d.publishers {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			err := p.Publish(ctx, snap)
			cancel()
			if err != nil {
				d.failed.Add(1)
				d.logger.Warn("failed to publish snapshot",
					zap.String("publisher", p.Name()),
					zap.String("symbol", snap.Symbol),
					zap.Error(err))
			}
		}
	}
}

// Close stops accepting snapshots, drains the queue and closes every publisher.
// Enqueue must not be called after Close. A dispatcher that was never started
// gets its worker here so the queue still drains.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() { close(d.queue) })
	d.Start()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, p := range d.publishers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
