package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"pricerelay/internal/relay/memorystore"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "price:"
	channelPrefix    = "prices."
)

// Compile-time check to ensure RedisPublisher implements Publisher
var _ Publisher = (*RedisPublisher)(nil)

// RedisPublisher stores the latest snapshot per symbol under <prefix><SYMBOL> and
// publishes it on the "prices.<SYMBOL>" channel.
type RedisPublisher struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisPublisher(client *redis.Client, keyPrefix string) *RedisPublisher {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisPublisher{client: client, keyPrefix: keyPrefix}
}

// ChannelFor returns the pub/sub channel a symbol's snapshots are published on.
func ChannelFor(symbol string) string {
	return channelPrefix + symbol
}

func (r *RedisPublisher) Name() string {
	return "redis"
}

func (r *RedisPublisher) Publish(ctx context.Context, snap memorystore.PriceSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.keyPrefix+snap.Symbol, payload, 0)
	pipe.Publish(ctx, ChannelFor(snap.Symbol), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", snap.Symbol, err)
	}
	return nil
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
