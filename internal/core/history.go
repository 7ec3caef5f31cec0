package core

// Window capacities for the three rolling change statistics. Windows advance
// once per price event (trade or simulated tick), not per wall-clock interval,
// so the hour/day/week labels are approximate under bursty trading.
const (
	shortWindowCap  = 60
	mediumWindowCap = 1440
	longWindowCap   = 10080
)

type priceWindow struct {
	capacity int
	samples  []float64
}

func (w *priceWindow) push(price float64) {
	w.samples = append(w.samples, price)
	if len(w.samples) > w.capacity {
		w.samples = w.samples[1:]
	}
}

func (w *priceWindow) oldest() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	return w.samples[0], true
}

// PriceHistory keeps the three bounded FIFO price windows for one symbol.
// Samples record the price before each move; change percentages compare the
// new price against each window's oldest retained sample.
type PriceHistory struct {
	short  priceWindow
	medium priceWindow
	long   priceWindow
}

func NewPriceHistory() *PriceHistory {
	return &PriceHistory{
		short:  priceWindow{capacity: shortWindowCap},
		medium: priceWindow{capacity: mediumWindowCap},
		long:   priceWindow{capacity: longWindowCap},
	}
}

func (h *PriceHistory) Observe(price float64) {
	h.short.push(price)
	h.medium.push(price)
	h.long.push(price)
}

// ChangePercents returns the percent move of newPrice against the oldest
// sample of each window, in short/medium/long order.
func (h *PriceHistory) ChangePercents(newPrice float64) (float64, float64, float64) {
	return changeAgainst(&h.short, newPrice),
		changeAgainst(&h.medium, newPrice),
		changeAgainst(&h.long, newPrice)
}

func changeAgainst(w *priceWindow, newPrice float64) float64 {
	ref, ok := w.oldest()
	if !ok || ref == 0 {
		return 0
	}
	return ((newPrice - ref) / ref) * 100.0
}
