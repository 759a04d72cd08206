package publish

import (
	"context"

	"pricerelay/internal/relay/memorystore"
)

// Publisher forwards applied snapshots to an external fan-out channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap memorystore.PriceSnapshot) error
	Close() error
}
