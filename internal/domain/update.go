package domain

type UpdateType string

const (
	PriceUpdate   UpdateType = "PRICE_UPDATE"
	TradeExecuted UpdateType = "TRADE_EXECUTED"
)

// MarketUpdate is the unit pushed to feed subscribers: one price change or one
// trade execution. ChangePercent is the move relative to the instrument's
// opening price.
type MarketUpdate struct {
	Type           UpdateType `json:"type"`
	Symbol         string     `json:"symbol"`
	Price          float64    `json:"price"`
	ChangePercent  float64    `json:"change_percent"`
	SimulationTime string     `json:"simulation_time"`
}
