package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/port"
)

var _ port.TradeStore = (*TradeStore)(nil)
var _ port.TradeQuerier = (*TradeStore)(nil)

// TradeStore mirrors executed trades into Postgres. The file archive remains
// the source of truth; when configured, the mirror also serves day queries on
// the trade history.
type TradeStore struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewTradeStore(ctx context.Context, dsn string) (*TradeStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &TradeStore{pool: pool}, nil
}

func (s *TradeStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *TradeStore) SaveTrade(ctx context.Context, t domain.Trade) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO trades(symbol, price, quantity, buyer_id, seller_id, executed_at)
VALUES($1,$2,$3,$4,$5,$6)
`, t.Symbol, t.Price, t.Quantity, t.BuyerID, t.SellerID, t.Timestamp)
	return err
}

// TradesForDay queries the mirror by symbol and simulated day, ordered by
// execution time then insertion order.
func (s *TradeStore) TradesForDay(ctx context.Context, symbol, day string) ([]domain.Trade, error) {
	rows, err := s.pool.Query(ctx, `
SELECT symbol, price, quantity, buyer_id, seller_id, executed_at
FROM trades
WHERE symbol = $1 AND executed_at::date = $2::date
ORDER BY executed_at ASC
`, symbol, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.Symbol, &t.Price, &t.Quantity, &t.BuyerID, &t.SellerID, &t.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
