package feed

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

var _ Relay = (*NATSRelay)(nil)

// NATSRelay republishes every market update onto a JetStream subject
// (market.updates.<SYMBOL>) so out-of-process consumers can follow the feed
// without holding a websocket session.
type NATSRelay struct {
	log *zap.Logger
	nc  *nats.Conn
	js  nats.JetStreamContext
}

func NewNATSRelay(url string, log *zap.Logger) (*NATSRelay, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	cfg := &nats.StreamConfig{
		Name:     "MARKET",
		Subjects: []string{"market.updates.*"},
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			log.Warn("failed to create or update stream", zap.Error(err))
		}
	}

	return &NATSRelay{log: log, nc: nc, js: js}, nil
}

// Publish is fire-and-forget: async publish so the broadcast path never waits
// on the broker.
func (r *NATSRelay) Publish(update domain.MarketUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		r.log.Error("marshal update for relay", zap.Error(err))
		return
	}
	if _, err := r.js.PublishAsync("market.updates."+update.Symbol, data); err != nil {
		r.log.Warn("relay publish", zap.String("symbol", update.Symbol), zap.Error(err))
	}
}

func (r *NATSRelay) Close() {
	r.nc.Close()
}
