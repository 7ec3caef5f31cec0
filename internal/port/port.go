package port

import (
	"context"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

// Broadcaster fans a market update out to feed subscribers. Implementations
// must never block the caller on slow subscribers.
type Broadcaster interface {
	Broadcast(update domain.MarketUpdate)
}

// TradeLog is the durable trade archive: non-blocking append plus day/symbol
// indexed read-back.
type TradeLog interface {
	Archive(trade domain.Trade)
	TradesForDay(symbol, day string) ([]domain.Trade, error)
}

// TradeStore mirrors archived trades into an external store, best effort.
type TradeStore interface {
	SaveTrade(ctx context.Context, trade domain.Trade) error
}

// TradeQuerier reads mirrored trades back by symbol and simulated day.
type TradeQuerier interface {
	TradesForDay(ctx context.Context, symbol, day string) ([]domain.Trade, error)
}

// SnapshotCache caches the full instrument snapshot served on the read path.
type SnapshotCache interface {
	SetInstruments(ctx context.Context, instruments []domain.Instrument) error
	GetInstruments(ctx context.Context) ([]domain.Instrument, error)
}
