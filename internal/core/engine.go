package core

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/observability"
	"github.com/olyamironova/exchange-sim/internal/port"
)

// Notional value of the starting position seeded in every instrument at
// registration, in cash units.
const seedNotional = 5000.0

// minSimulatedPrice floors the random walk so prices stay positive.
const minSimulatedPrice = 0.0001

// instrumentSeed defines the tradable universe created at startup.
var instrumentSeed = []struct {
	symbol string
	name   string
	price  float64
}{
	{"BTC", "Bitcoin", 67383.0},
	{"ETH", "Ethereum", 1946.0},
	{"BNB", "BNB", 614.0},
	{"SOL", "Solana", 83.0},
	{"XRP", "XRP", 1.3},
	{"ADA", "Cardano", 0.2},
	{"AVAX", "Avalanche", 8.8},
	{"DOGE", "Dogecoin", 0.38},
	{"DOT", "Polkadot", 1.3},
	{"MATIC", "Polygon", 0.52},
	{"LINK", "Chainlink", 8.7},
	{"UNI", "Uniswap", 3.4},
	{"LTC", "Litecoin", 53.0},
	{"ATOM", "Cosmos", 2.2},
	{"NEAR", "NEAR Protocol", 1.0},
}

// MarketEngine is the sole writer of instruments, accounts and order books.
// Account mutation goes through each account's own lock, book mutation through
// each book's lock; the engine mutex guards the registry maps and the
// instrument/history table.
type MarketEngine struct {
	log          *zap.Logger
	clock        *SimulationClock
	archiver     port.TradeLog
	hub          port.Broadcaster
	startingCash float64

	mu          sync.RWMutex
	instruments map[string]*domain.Instrument
	books       map[string]*OrderBook
	accounts    map[int]*domain.Account
	histories   map[string]*PriceHistory

	nextOrderID atomic.Int64
	rnd         *rand.Rand
}

func NewMarketEngine(clock *SimulationClock, archiver port.TradeLog, hub port.Broadcaster, startingCash float64, log *zap.Logger) *MarketEngine {
	e := &MarketEngine{
		log:          log,
		clock:        clock,
		archiver:     archiver,
		hub:          hub,
		startingCash: startingCash,
		instruments:  make(map[string]*domain.Instrument),
		books:        make(map[string]*OrderBook),
		accounts:     make(map[int]*domain.Account),
		histories:    make(map[string]*PriceHistory),
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, seed := range instrumentSeed {
		e.instruments[seed.symbol] = domain.NewInstrument(seed.symbol, seed.name, seed.price)
		e.books[seed.symbol] = NewOrderBook(seed.symbol)
		e.histories[seed.symbol] = NewPriceHistory()
	}
	return e
}

// RegisterClient allocates the next client id and creates an account with the
// starting cash balance and a seeded position in every instrument, rounded to
// four decimal places. Ids are monotonic and never reused.
func (e *MarketEngine) RegisterClient() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := len(e.accounts) + 1
	acc := domain.NewAccount(id, e.startingCash)
	for sym, inst := range e.instruments {
		qty := decimal.NewFromFloat(seedNotional / inst.CurrentPrice).Round(4).InexactFloat64()
		if qty < 0.0001 {
			qty = 0.0001
		}
		acc.CreditHolding(sym, qty)
	}
	e.accounts[id] = acc

	observability.ClientsRegistered.Inc()
	e.log.Info("registered client", zap.Int("client_id", id))
	return id
}

// PlaceBuyOrder validates the order, reserves the full cost from the client's
// cash and submits the order to the book. Matching runs synchronously before
// the call returns. The reservation is not refunded when the order later
// executes below its limit price.
func (e *MarketEngine) PlaceBuyOrder(clientID int, symbol string, price, qty float64) error {
	acc, book, err := e.validateOrder(clientID, symbol, price, qty)
	if err != nil {
		observability.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	if err := acc.ReserveCash(price * qty); err != nil {
		observability.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	order := e.newOrder(clientID, symbol, domain.Buy, price, qty)
	matches := book.Place(order)
	e.settle(symbol, matches)
	return nil
}

// PlaceSellOrder validates the order, reserves the holding and submits the
// order to the book. Matching runs synchronously before the call returns.
func (e *MarketEngine) PlaceSellOrder(clientID int, symbol string, price, qty float64) error {
	acc, book, err := e.validateOrder(clientID, symbol, price, qty)
	if err != nil {
		observability.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	if err := acc.ReserveHolding(symbol, qty); err != nil {
		observability.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	order := e.newOrder(clientID, symbol, domain.Sell, price, qty)
	matches := book.Place(order)
	e.settle(symbol, matches)
	return nil
}

func (e *MarketEngine) validateOrder(clientID int, symbol string, price, qty float64) (*domain.Account, *OrderBook, error) {
	e.mu.RLock()
	acc := e.accounts[clientID]
	book := e.books[symbol]
	e.mu.RUnlock()

	if acc == nil {
		return nil, nil, domain.ErrUnknownClient
	}
	if book == nil {
		return nil, nil, domain.ErrUnknownSymbol
	}
	if price <= 0 || qty <= 0 {
		return nil, nil, fmt.Errorf("%w: price=%g qty=%g", domain.ErrInvalidArgument, price, qty)
	}
	return acc, book, nil
}

func (e *MarketEngine) newOrder(clientID int, symbol string, side domain.Side, price, qty float64) *domain.Order {
	return &domain.Order{
		ID:        e.nextOrderID.Add(1),
		ClientID:  clientID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		CreatedAt: time.Now(),
	}
}

// settle applies the side effects of each executed match in order: credit the
// buyer's holding, credit the seller's cash, move the instrument price and
// history, archive the trade and broadcast the execution.
func (e *MarketEngine) settle(symbol string, matches []Match) {
	for _, m := range matches {
		e.mu.RLock()
		buyer := e.accounts[m.BuyerID]
		seller := e.accounts[m.SellerID]
		e.mu.RUnlock()

		if buyer != nil {
			buyer.CreditHolding(symbol, m.Quantity)
		}
		if seller != nil {
			seller.CreditCash(m.Price * m.Quantity)
		}

		changeFromOpen := e.applyPriceMove(symbol, m.Price)

		trade := domain.Trade{
			Symbol:    symbol,
			Price:     m.Price,
			Quantity:  m.Quantity,
			BuyerID:   m.BuyerID,
			SellerID:  m.SellerID,
			Timestamp: e.clock.Now(),
		}
		e.archiver.Archive(trade)

		observability.TradesExecuted.WithLabelValues(symbol).Inc()
		e.hub.Broadcast(domain.MarketUpdate{
			Type:           domain.TradeExecuted,
			Symbol:         symbol,
			Price:          m.Price,
			ChangePercent:  changeFromOpen,
			SimulationTime: e.clock.NowString(),
		})

		e.log.Info("trade executed",
			zap.String("symbol", symbol),
			zap.Float64("price", m.Price),
			zap.Float64("quantity", m.Quantity),
			zap.Int("buyer", m.BuyerID),
			zap.Int("seller", m.SellerID),
		)
	}
}

// applyPriceMove sets the instrument's price, records the previous price in
// the history windows and recomputes the change percentages. Returns the
// change from the opening price at the new level.
func (e *MarketEngine) applyPriceMove(symbol string, newPrice float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst := e.instruments[symbol]
	hist := e.histories[symbol]
	if inst == nil || hist == nil {
		return 0
	}

	hist.Observe(inst.CurrentPrice)
	inst.CurrentPrice = newPrice
	inst.LastUpdated = time.Now()
	inst.Change1h, inst.Change24h, inst.Change7d = hist.ChangePercents(newPrice)
	return inst.ChangeFromOpen()
}

// SimulatePriceMovements applies an independent Gaussian random walk (stddev
// 0.3%) to every instrument and broadcasts the resulting price updates. This
// keeps prices drifting even without trading activity. Invoked by the
// periodic scheduler.
func (e *MarketEngine) SimulatePriceMovements() {
	var updates []domain.MarketUpdate

	e.mu.Lock()
	for sym, inst := range e.instruments {
		pct := (e.rnd.NormFloat64() * 0.3) / 100.0
		newPrice := inst.CurrentPrice * (1 + pct)
		if newPrice < minSimulatedPrice {
			newPrice = minSimulatedPrice
		}

		e.histories[sym].Observe(inst.CurrentPrice)
		inst.CurrentPrice = newPrice
		inst.LastUpdated = time.Now()
		inst.Change1h, inst.Change24h, inst.Change7d = e.histories[sym].ChangePercents(newPrice)

		updates = append(updates, domain.MarketUpdate{
			Type:           domain.PriceUpdate,
			Symbol:         sym,
			Price:          newPrice,
			ChangePercent:  inst.ChangeFromOpen(),
			SimulationTime: e.clock.NowString(),
		})
	}
	e.mu.Unlock()

	// Delivery happens outside the instrument table lock.
	for _, u := range updates {
		e.hub.Broadcast(u)
	}
}

// Snapshot returns copies of all instruments, sorted by symbol.
func (e *MarketEngine) Snapshot() []domain.Instrument {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res := make([]domain.Instrument, 0, len(e.instruments))
	for _, inst := range e.instruments {
		res = append(res, *inst)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	return res
}

// BidOrders returns a snapshot of the open buy orders for a symbol, best
// first. An unknown symbol yields an empty slice.
func (e *MarketEngine) BidOrders(symbol string) []domain.Order {
	e.mu.RLock()
	book := e.books[symbol]
	e.mu.RUnlock()
	if book == nil {
		return []domain.Order{}
	}
	return book.Bids()
}

// AskOrders returns a snapshot of the open sell orders for a symbol, best
// first. An unknown symbol yields an empty slice.
func (e *MarketEngine) AskOrders(symbol string) []domain.Order {
	e.mu.RLock()
	book := e.books[symbol]
	e.mu.RUnlock()
	if book == nil {
		return []domain.Order{}
	}
	return book.Asks()
}

// Account returns a defensive copy of the client's account state.
func (e *MarketEngine) Account(clientID int) (domain.AccountSnapshot, bool) {
	e.mu.RLock()
	acc := e.accounts[clientID]
	e.mu.RUnlock()
	if acc == nil {
		return domain.AccountSnapshot{}, false
	}
	return acc.Snapshot(), true
}

// TradesForDay reads the archive for one symbol and simulated day.
func (e *MarketEngine) TradesForDay(symbol, day string) ([]domain.Trade, error) {
	return e.archiver.TradesForDay(symbol, day)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownClient):
		return "unknown_client"
	case errors.Is(err, domain.ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInsufficientHoldings):
		return "insufficient_holdings"
	default:
		return "other"
	}
}
