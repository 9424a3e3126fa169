package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/feedforge/marketsim/pkg/models"
)

const (
	keyPrefix     = "stock:"
	channelPrefix = "prices."
	snapshotTTL   = 1 * time.Hour // TTL prevents unbounded memory growth
)

// RedisPublisher keeps a last-tick snapshot per symbol and republishes each
// tick on a per-symbol channel, so pub/sub consumers and late joiners share
// one source of truth.
type RedisPublisher struct {
	logger *zap.Logger
	client *redis.Client
}

func NewRedisPublisher(logger *zap.Logger, client *redis.Client) *RedisPublisher {
	return &RedisPublisher{logger: logger, client: client}
}

// Publish writes the whole batch in a single pipeline: SET with TTL plus
// PUBLISH per tick.
func (p *RedisPublisher) Publish(ctx context.Context, batch []models.Tick) error {
	pipe := p.client.Pipeline()
	for _, tick := range batch {
		payload, err := json.Marshal(tick)
		if err != nil {
			return err
		}
		pipe.Set(ctx, keyPrefix+tick.Symbol, payload, snapshotTTL)
		pipe.Publish(ctx, channelPrefix+tick.Symbol, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	p.logger.Debug("Published snapshots to Redis", zap.Int("ticks", len(batch)))
	return nil
}

// Snapshots fetches the last stored payload for each symbol (MGET). Symbols
// with no stored tick yet are omitted.
func (p *RedisPublisher) Snapshots(ctx context.Context, symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = keyPrefix + sym
	}

	results, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var snapshots []string
	for _, val := range results {
		if payload, ok := val.(string); ok && payload != "" {
			snapshots = append(snapshots, payload)
		}
	}
	return snapshots, nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }
