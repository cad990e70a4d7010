package payment

import (
	"context"
	"strconv"
	"time"

	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/infrastructure/cache"
)

// QueuedGateway wraps a Gateway so that outbound calls share a bounded
// worker pool. Status checks jump ahead of new transactions, which jump
// ahead of channel and fee lookups. Channel and fee lookups are cached.
type QueuedGateway struct {
	next        payment.Gateway
	queue       *cache.Queue
	cache       *cache.Cache
	channelsTTL time.Duration
}

// NewQueuedGateway wraps next. A nil cache disables caching.
func NewQueuedGateway(next payment.Gateway, queue *cache.Queue, c *cache.Cache, channelsTTL time.Duration) *QueuedGateway {
	return &QueuedGateway{next: next, queue: queue, cache: c, channelsTTL: channelsTTL}
}

func (g *QueuedGateway) ListChannels(ctx context.Context) ([]payment.Channel, error) {
	load := func(ctx context.Context) ([]payment.Channel, error) {
		return cache.Run(ctx, g.queue, cache.PriorityLow, g.next.ListChannels)
	}
	if g.cache == nil {
		return load(ctx)
	}
	return cache.Do(ctx, g.cache, "channels", g.channelsTTL, load)
}

func (g *QueuedGateway) CalculateFee(ctx context.Context, amount int64, method string) ([]payment.Fee, error) {
	load := func(ctx context.Context) ([]payment.Fee, error) {
		return cache.Run(ctx, g.queue, cache.PriorityLow, func(ctx context.Context) ([]payment.Fee, error) {
			return g.next.CalculateFee(ctx, amount, method)
		})
	}
	if g.cache == nil {
		return load(ctx)
	}
	return cache.Do(ctx, g.cache, "fee:"+method+":"+strconv.FormatInt(amount, 10), g.channelsTTL, load)
}

func (g *QueuedGateway) CreateTransaction(ctx context.Context, req payment.CreateRequest) (*payment.Checkout, error) {
	return cache.Run(ctx, g.queue, cache.PriorityNormal, func(ctx context.Context) (*payment.Checkout, error) {
		return g.next.CreateTransaction(ctx, req)
	})
}

func (g *QueuedGateway) TransactionDetail(ctx context.Context, reference string) (*payment.TransactionDetail, error) {
	return cache.Run(ctx, g.queue, cache.PriorityHigh, func(ctx context.Context) (*payment.TransactionDetail, error) {
		return g.next.TransactionDetail(ctx, reference)
	})
}

// ParseCallback is local work and bypasses the queue
func (g *QueuedGateway) ParseCallback(body []byte, signature string) (*payment.Callback, error) {
	return g.next.ParseCallback(body, signature)
}

// InvalidateChannels drops cached channel and fee lookups
func (g *QueuedGateway) InvalidateChannels(ctx context.Context) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Clear(ctx)
}

var _ payment.Gateway = (*QueuedGateway)(nil)
