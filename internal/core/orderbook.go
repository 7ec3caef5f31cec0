package core

import (
	"sort"
	"sync"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

// Match is one execution produced by a matching pass, in execution order.
type Match struct {
	BuyerID  int
	SellerID int
	Price    float64
	Quantity float64
}

// OrderBook holds the open bids and asks for a single symbol. Every mutating
// operation takes the book's lock, so insertion plus matching form one atomic
// unit per symbol while books for different symbols proceed in parallel.
type OrderBook struct {
	symbol string

	mu   sync.Mutex
	bids []*domain.Order
	asks []*domain.Order
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{symbol: symbol}
}

func (b *OrderBook) Symbol() string { return b.symbol }

// Place inserts the order on its side and immediately runs matching, all
// under a single lock acquisition.
func (b *OrderBook) Place(o *domain.Order) []Match {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.Side == domain.Buy {
		b.bids = append(b.bids, o)
	} else {
		b.asks = append(b.asks, o)
	}
	b.sortLocked()
	return b.matchLocked()
}

func (b *OrderBook) AddBid(o *domain.Order) {
	b.mu.Lock()
	b.bids = append(b.bids, o)
	b.sortLocked()
	b.mu.Unlock()
}

func (b *OrderBook) AddAsk(o *domain.Order) {
	b.mu.Lock()
	b.asks = append(b.asks, o)
	b.sortLocked()
	b.mu.Unlock()
}

// Match runs a matching pass and returns the executions.
func (b *OrderBook) Match() []Match {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchLocked()
}

// Bids returns a point-in-time copy of the open buy orders, best first.
func (b *OrderBook) Bids() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyOrders(b.bids)
}

// Asks returns a point-in-time copy of the open sell orders, best first.
func (b *OrderBook) Asks() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyOrders(b.asks)
}

// sortLocked re-establishes price priority. Stable sort keeps arrival order
// at equal price, so earlier orders are matched first at that level.
func (b *OrderBook) sortLocked() {
	sort.SliceStable(b.bids, func(i, j int) bool {
		return b.bids[i].Price > b.bids[j].Price
	})
	sort.SliceStable(b.asks, func(i, j int) bool {
		return b.asks[i].Price < b.asks[j].Price
	})
}

// matchLocked crosses the book: while best bid >= best ask, execute at the
// resting ask's price so the aggressive side receives the price improvement.
func (b *OrderBook) matchLocked() []Match {
	var matches []Match

	for len(b.bids) > 0 && len(b.asks) > 0 {
		bestBid := b.bids[0]
		bestAsk := b.asks[0]
		if bestBid.Price < bestAsk.Price {
			break
		}

		qty := bestBid.Remaining
		if bestAsk.Remaining < qty {
			qty = bestAsk.Remaining
		}

		matches = append(matches, Match{
			BuyerID:  bestBid.ClientID,
			SellerID: bestAsk.ClientID,
			Price:    bestAsk.Price,
			Quantity: qty,
		})

		bestBid.Remaining -= qty
		bestAsk.Remaining -= qty

		if bestBid.Remaining < domain.HoldingDust {
			b.bids = b.bids[1:]
		}
		if bestAsk.Remaining < domain.HoldingDust {
			b.asks = b.asks[1:]
		}
	}

	return matches
}

func copyOrders(orders []*domain.Order) []domain.Order {
	res := make([]domain.Order, len(orders))
	for i, o := range orders {
		res[i] = *o
	}
	return res
}
