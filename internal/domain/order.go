package domain

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is an open limit order resting in a book. Remaining only ever
// decreases; the order leaves its book once Remaining drops below the dust
// threshold.
type Order struct {
	ID        int64     `json:"id"`
	ClientID  int       `json:"client_id"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Remaining float64   `json:"remaining"`
	CreatedAt time.Time `json:"created_at"`
}
