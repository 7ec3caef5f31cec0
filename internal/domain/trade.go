package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Archive line layouts. One trade per line, pipe-delimited:
//
//	2025-01-01 09:30:00 | BTC | PRICE: 66990.00 | QTY: 0.0100 | BUYER: 1 | SELLER: 2
const (
	ArchiveTimeLayout = "2006-01-02 15:04:05"
	ArchiveDayLayout  = "2006-01-02"
)

// Trade is an immutable record of one execution, timestamped in simulated
// time. Created only by matching, persisted by the archiver, never mutated.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	BuyerID   int       `json:"buyer_id"`
	SellerID  int       `json:"seller_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeArchiveLine renders the trade in the fixed archive format, price at
// two decimal places and quantity at four.
func (t Trade) EncodeArchiveLine() string {
	return fmt.Sprintf("%s | %s | PRICE: %s | QTY: %s | BUYER: %d | SELLER: %d",
		t.Timestamp.Format(ArchiveTimeLayout),
		t.Symbol,
		decimal.NewFromFloat(t.Price).StringFixed(2),
		decimal.NewFromFloat(t.Quantity).StringFixed(4),
		t.BuyerID,
		t.SellerID,
	)
}

// ParseArchiveLine decodes one archive line back into a trade. A line that
// does not parse yields a sentinel record (zero price/quantity, buyer and
// seller -1) together with ErrMalformedRecord, so a damaged file never aborts
// a read.
func ParseArchiveLine(line, symbol string) (Trade, error) {
	sentinel := Trade{Symbol: symbol, BuyerID: -1, SellerID: -1, Timestamp: time.Now()}

	parts := strings.Split(line, "|")
	if len(parts) != 6 {
		return sentinel, fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedRecord, len(parts))
	}

	ts, err := time.Parse(ArchiveTimeLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return sentinel, fmt.Errorf("%w: bad timestamp: %v", ErrMalformedRecord, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[2]), "PRICE:")), 64)
	if err != nil {
		return sentinel, fmt.Errorf("%w: bad price: %v", ErrMalformedRecord, err)
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[3]), "QTY:")), 64)
	if err != nil {
		return sentinel, fmt.Errorf("%w: bad quantity: %v", ErrMalformedRecord, err)
	}
	buyer, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[4]), "BUYER:")))
	if err != nil {
		return sentinel, fmt.Errorf("%w: bad buyer id: %v", ErrMalformedRecord, err)
	}
	seller, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[5]), "SELLER:")))
	if err != nil {
		return sentinel, fmt.Errorf("%w: bad seller id: %v", ErrMalformedRecord, err)
	}

	return Trade{
		Symbol:    strings.TrimSpace(parts[1]),
		Price:     price,
		Quantity:  qty,
		BuyerID:   buyer,
		SellerID:  seller,
		Timestamp: ts,
	}, nil
}
