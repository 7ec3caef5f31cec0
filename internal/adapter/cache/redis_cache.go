package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/port"
)

const snapshotKey = "market:snapshot"

var _ port.SnapshotCache = (*RedisCache)(nil)

// RedisCache keeps the instrument snapshot with a short TTL so the read path
// does not hit the engine on every request. Prices drift every tick, so the
// TTL should stay close to the tick interval.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (c *RedisCache) SetInstruments(ctx context.Context, instruments []domain.Instrument) error {
	b, err := json.Marshal(instruments)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, b, c.ttl).Err()
}

// GetInstruments returns nil, nil on a cache miss.
func (c *RedisCache) GetInstruments(ctx context.Context) ([]domain.Instrument, error) {
	b, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var instruments []domain.Instrument
	if err := json.Unmarshal(b, &instruments); err != nil {
		return nil, err
	}
	return instruments, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, snapshotKey).Err()
}
