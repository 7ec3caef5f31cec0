package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/port"
)

var _ port.SnapshotCache = (*Cache)(nil)

// Cache is the process-local SnapshotCache used when no Redis address is
// configured, and in tests.
type Cache struct {
	mu        sync.Mutex
	ttl       time.Duration
	storedAt  time.Time
	snapshot  []domain.Instrument
	hasStored bool
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func (c *Cache) SetInstruments(ctx context.Context, instruments []domain.Instrument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = append([]domain.Instrument(nil), instruments...)
	c.storedAt = time.Now()
	c.hasStored = true
	return nil
}

func (c *Cache) GetInstruments(ctx context.Context) ([]domain.Instrument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasStored || (c.ttl > 0 && time.Since(c.storedAt) > c.ttl) {
		return nil, nil
	}
	return append([]domain.Instrument(nil), c.snapshot...), nil
}
