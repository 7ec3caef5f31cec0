package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/api/dto"
	"github.com/olyamironova/exchange-sim/internal/core"
	"github.com/olyamironova/exchange-sim/internal/domain"
)

type nopLog struct {
	mu     sync.Mutex
	trades []domain.Trade
}

func (l *nopLog) Archive(t domain.Trade) {
	l.mu.Lock()
	l.trades = append(l.trades, t)
	l.mu.Unlock()
}

func (l *nopLog) TradesForDay(symbol, day string) ([]domain.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Trade(nil), l.trades...), nil
}

type nopHub struct{}

func (nopHub) Broadcast(domain.MarketUpdate) {}

func newTestServer(t *testing.T) (*HTTPServer, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := core.NewMarketEngine(core.NewSimulationClock(60), &nopLog{}, nopHub{}, 100_000, zap.NewNop())
	s := NewHTTPServer(eng, nil, nil, 5000, 0, zap.NewNop())
	return s, s.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndAccount(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reg dto.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.Equal(t, 1, reg.ClientID)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/accounts/%d", reg.ClientID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acc domain.AccountSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	assert.Equal(t, 100_000.0, acc.CashBalance)

	w = doJSON(t, r, http.MethodGet, "/accounts/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceOrder_StatusContract(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/clients", nil)
	var reg dto.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	tests := []struct {
		name string
		req  dto.PlaceOrderRequest
		want string
	}{
		{
			name: "ok",
			req:  dto.PlaceOrderRequest{ClientID: reg.ClientID, Symbol: "BTC", Price: 60000, Quantity: 0.01},
			want: "OK",
		},
		{
			name: "unknown client",
			req:  dto.PlaceOrderRequest{ClientID: 99, Symbol: "BTC", Price: 60000, Quantity: 0.01},
			want: "ERROR: unknown client",
		},
		{
			name: "unknown symbol",
			req:  dto.PlaceOrderRequest{ClientID: reg.ClientID, Symbol: "XXX", Price: 1, Quantity: 1},
			want: "ERROR: unknown symbol",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/orders/buy", tc.req)
			require.Equal(t, http.StatusOK, w.Code)
			var resp dto.PlaceOrderResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.want, resp.Status)
		})
	}
}

func TestPlaceOrder_InsufficientFundsDetail(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/clients", nil)
	var reg dto.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = doJSON(t, r, http.MethodPost, "/orders/buy",
		dto.PlaceOrderRequest{ClientID: reg.ClientID, Symbol: "BTC", Price: 67000, Quantity: 10})
	var resp dto.PlaceOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Status, "ERROR: insufficient funds")
	assert.Contains(t, resp.Status, "have 100000.00")
}

func TestMarketSnapshotAndOrderbook(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/market", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var market dto.MarketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &market))
	assert.Len(t, market.Instruments, 15)

	w = doJSON(t, r, http.MethodGet, "/orderbook/bids?symbol=BTC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var orders dto.OrdersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	assert.Empty(t, orders.Orders)
}

func TestFeedPort(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/feed/port", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.FeedPortResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5000, resp.Port)
}

func TestTradesEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/trades?symbol=BTC&day=2025-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC", resp.Symbol)
	assert.Empty(t, resp.Trades)
}

type fakeQuerier struct {
	trades []domain.Trade
	err    error
	calls  int
}

func (q *fakeQuerier) TradesForDay(_ context.Context, symbol, day string) ([]domain.Trade, error) {
	q.calls++
	return q.trades, q.err
}

func TestTradesEndpoint_PrefersMirror(t *testing.T) {
	s, r := newTestServer(t)
	querier := &fakeQuerier{trades: []domain.Trade{{
		Symbol: "BTC", Price: 66990, Quantity: 0.01, BuyerID: 1, SellerID: 2,
	}}}
	s.Mirror = querier

	w := doJSON(t, r, http.MethodGet, "/trades?symbol=BTC&day=2025-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, 66990.0, resp.Trades[0].Price)
	assert.Equal(t, 1, querier.calls)
}

func TestTradesEndpoint_MirrorFailureFallsBackToArchive(t *testing.T) {
	s, r := newTestServer(t)
	s.Mirror = &fakeQuerier{err: errors.New("connection refused")}

	w := doJSON(t, r, http.MethodGet, "/trades?symbol=BTC&day=2025-01-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TradesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Trades)
}
