package dto

import (
	"time"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

type RegisterResponse struct {
	ClientID int `json:"client_id"`
}

type PlaceOrderRequest struct {
	ClientID int     `json:"client_id"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// PlaceOrderResponse carries the order-placement contract verbatim:
// "OK" or "ERROR: <reason>".
type PlaceOrderResponse struct {
	Status string `json:"status"`
}

type Order struct {
	ID        int64     `json:"id"`
	ClientID  int       `json:"client_id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Remaining float64   `json:"remaining"`
	CreatedAt time.Time `json:"created_at"`
}

type OrdersResponse struct {
	Symbol string  `json:"symbol"`
	Orders []Order `json:"orders"`
}

type Trade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	BuyerID   int     `json:"buyer_id"`
	SellerID  int     `json:"seller_id"`
	Timestamp string  `json:"timestamp"`
}

type TradesResponse struct {
	Symbol string  `json:"symbol"`
	Day    string  `json:"day"`
	Trades []Trade `json:"trades"`
}

type MarketResponse struct {
	Instruments []domain.Instrument `json:"instruments"`
}

type FeedPortResponse struct {
	Port int `json:"port"`
}

func FromOrder(o domain.Order) Order {
	return Order{
		ID:        o.ID,
		ClientID:  o.ClientID,
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Price:     o.Price,
		Quantity:  o.Quantity,
		Remaining: o.Remaining,
		CreatedAt: o.CreatedAt,
	}
}

func FromOrders(orders []domain.Order) []Order {
	res := make([]Order, len(orders))
	for i, o := range orders {
		res[i] = FromOrder(o)
	}
	return res
}

func FromTrades(trades []domain.Trade) []Trade {
	res := make([]Trade, len(trades))
	for i, t := range trades {
		res[i] = Trade{
			Symbol:    t.Symbol,
			Price:     t.Price,
			Quantity:  t.Quantity,
			BuyerID:   t.BuyerID,
			SellerID:  t.SellerID,
			Timestamp: t.Timestamp.Format(domain.ArchiveTimeLayout),
		}
	}
	return res
}
