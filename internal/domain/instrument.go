package domain

import "time"

// Instrument is a tradable symbol with its current price and rolling change
// statistics. Instruments are created once at startup and mutated only by the
// engine on price-affecting events.
type Instrument struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	OpenPrice    float64   `json:"open_price"`
	CurrentPrice float64   `json:"current_price"`
	Change1h     float64   `json:"change_1h"`
	Change24h    float64   `json:"change_24h"`
	Change7d     float64   `json:"change_7d"`
	LastUpdated  time.Time `json:"last_updated"`
}

func NewInstrument(symbol, name string, openPrice float64) *Instrument {
	return &Instrument{
		Symbol:       symbol,
		Name:         name,
		OpenPrice:    openPrice,
		CurrentPrice: openPrice,
		LastUpdated:  time.Now(),
	}
}

// ChangeFromOpen returns the percent move of the current price relative to the
// opening price.
func (i *Instrument) ChangeFromOpen() float64 {
	if i.OpenPrice == 0 {
		return 0
	}
	return ((i.CurrentPrice - i.OpenPrice) / i.OpenPrice) * 100.0
}
