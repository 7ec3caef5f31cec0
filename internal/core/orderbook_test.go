package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

func order(id int64, clientID int, side domain.Side, price, qty float64) *domain.Order {
	return &domain.Order{
		ID:        id,
		ClientID:  clientID,
		Symbol:    "BTC",
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
	}
}

func assertUncrossed(t *testing.T, b *OrderBook) {
	t.Helper()
	bids, asks := b.Bids(), b.Asks()
	if len(bids) > 0 && len(asks) > 0 {
		assert.Less(t, bids[0].Price, asks[0].Price, "book must not stay crossed")
	}
}

func TestOrderBook_MatchAtRestingAskPrice(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddAsk(order(1, 2, domain.Sell, 66990, 0.02))

	matches := b.Place(order(2, 1, domain.Buy, 67000, 0.01))

	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].BuyerID)
	assert.Equal(t, 2, matches[0].SellerID)
	assert.Equal(t, 66990.0, matches[0].Price)
	assert.Equal(t, 0.01, matches[0].Quantity)

	asks := b.Asks()
	require.Len(t, asks, 1)
	assert.InDelta(t, 0.01, asks[0].Remaining, 1e-9)
	assert.Empty(t, b.Bids())
	assertUncrossed(t, b)
}

func TestOrderBook_NoMatchBelowBestAsk(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddAsk(order(1, 2, domain.Sell, 67000, 1))

	matches := b.Place(order(2, 1, domain.Buy, 66000, 1))

	assert.Empty(t, matches)
	require.Len(t, b.Bids(), 1)
	assert.Equal(t, 1.0, b.Bids()[0].Remaining)
	require.Len(t, b.Asks(), 1)
	assertUncrossed(t, b)
}

func TestOrderBook_ArrivalOrderAtEqualPrice(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddAsk(order(1, 10, domain.Sell, 500, 1))
	b.AddAsk(order(2, 20, domain.Sell, 500, 1))

	matches := b.Place(order(3, 1, domain.Buy, 500, 1))

	require.Len(t, matches, 1)
	assert.Equal(t, 10, matches[0].SellerID, "earlier ask at the same price matches first")

	asks := b.Asks()
	require.Len(t, asks, 1)
	assert.Equal(t, 20, asks[0].ClientID)
}

func TestOrderBook_SweepsMultipleLevels(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddAsk(order(1, 2, domain.Sell, 100, 1))
	b.AddAsk(order(2, 3, domain.Sell, 101, 1))
	b.AddAsk(order(3, 4, domain.Sell, 105, 1))

	matches := b.Place(order(4, 1, domain.Buy, 101, 2))

	require.Len(t, matches, 2)
	assert.Equal(t, 100.0, matches[0].Price)
	assert.Equal(t, 101.0, matches[1].Price)

	asks := b.Asks()
	require.Len(t, asks, 1)
	assert.Equal(t, 105.0, asks[0].Price)
	assert.Empty(t, b.Bids())
	assertUncrossed(t, b)
}

func TestOrderBook_PartialFillLeavesRemainder(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddAsk(order(1, 2, domain.Sell, 100, 0.5))

	matches := b.Place(order(2, 1, domain.Buy, 100, 2))

	require.Len(t, matches, 1)
	assert.Equal(t, 0.5, matches[0].Quantity)

	bids := b.Bids()
	require.Len(t, bids, 1)
	assert.InDelta(t, 1.5, bids[0].Remaining, 1e-9)
	assert.Empty(t, b.Asks())
}

func TestOrderBook_BidsSortedDescAsksAsc(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddBid(order(1, 1, domain.Buy, 90, 1))
	b.AddBid(order(2, 1, domain.Buy, 95, 1))
	b.AddAsk(order(3, 2, domain.Sell, 110, 1))
	b.AddAsk(order(4, 2, domain.Sell, 105, 1))

	bids, asks := b.Bids(), b.Asks()
	assert.Equal(t, 95.0, bids[0].Price)
	assert.Equal(t, 90.0, bids[1].Price)
	assert.Equal(t, 105.0, asks[0].Price)
	assert.Equal(t, 110.0, asks[1].Price)
}

func TestOrderBook_SnapshotsAreCopies(t *testing.T) {
	b := NewOrderBook("BTC")
	b.AddBid(order(1, 1, domain.Buy, 90, 1))

	bids := b.Bids()
	bids[0].Remaining = 0

	assert.Equal(t, 1.0, b.Bids()[0].Remaining, "mutating a snapshot must not touch the book")
}
