package domain

import (
	"fmt"
	"sync"
)

// HoldingDust is the quantity below which a holding or a resting order is
// treated as fully consumed.
const HoldingDust = 1e-6

// Account holds one client's cash balance and per-symbol holdings. Each
// account carries its own lock so concurrent orders from the same client are
// serialized without making different clients contend with each other.
type Account struct {
	mu       sync.Mutex
	clientID int
	cash     float64
	holdings map[string]float64
}

// AccountSnapshot is a defensive copy of an account's state.
type AccountSnapshot struct {
	ClientID    int                `json:"client_id"`
	CashBalance float64            `json:"cash_balance"`
	Holdings    map[string]float64 `json:"holdings"`
}

func NewAccount(clientID int, initialCash float64) *Account {
	return &Account{
		clientID: clientID,
		cash:     initialCash,
		holdings: make(map[string]float64),
	}
}

func (a *Account) ClientID() int { return a.clientID }

// ReserveCash atomically checks and debits the cash balance. The full cost is
// reserved up front; trading at a better price does not refund the surplus.
func (a *Account) ReserveCash(cost float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cash < cost {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, cost, a.cash)
	}
	a.cash -= cost
	return nil
}

// ReserveHolding atomically checks and debits a holding ahead of a sell order
// entering the book.
func (a *Account) ReserveHolding(symbol string, qty float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	held := a.holdings[symbol]
	if held < qty {
		return fmt.Errorf("%w: need %.4f, have %.4f", ErrInsufficientHoldings, qty, held)
	}
	a.setHolding(symbol, held-qty)
	return nil
}

func (a *Account) CreditCash(amount float64) {
	a.mu.Lock()
	a.cash += amount
	a.mu.Unlock()
}

func (a *Account) CreditHolding(symbol string, qty float64) {
	a.mu.Lock()
	a.setHolding(symbol, a.holdings[symbol]+qty)
	a.mu.Unlock()
}

func (a *Account) Holding(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holdings[symbol]
}

func (a *Account) CashBalance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

func (a *Account) Snapshot() AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	holdings := make(map[string]float64, len(a.holdings))
	for sym, qty := range a.holdings {
		holdings[sym] = qty
	}
	return AccountSnapshot{ClientID: a.clientID, CashBalance: a.cash, Holdings: holdings}
}

// setHolding stores the new quantity, dropping the entry entirely once it
// falls below the dust threshold. Caller holds a.mu.
func (a *Account) setHolding(symbol string, qty float64) {
	if qty < HoldingDust {
		delete(a.holdings, symbol)
		return
	}
	a.holdings[symbol] = qty
}
