package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/api/dto"
	"github.com/olyamironova/exchange-sim/internal/core"
	"github.com/olyamironova/exchange-sim/internal/middleware"
	"github.com/olyamironova/exchange-sim/internal/port"
)

// HTTPServer is the control-plane facade over the engine: synchronous
// request/response, delegating every operation to MarketEngine. Order
// placement answers with the "OK" / "ERROR: <reason>" contract so the caller
// sees exactly which rule failed.
type HTTPServer struct {
	Eng       *core.MarketEngine
	Cache     port.SnapshotCache
	Mirror    port.TradeQuerier
	FeedPort  int
	RateLimit time.Duration
	Log       *zap.Logger
}

func NewHTTPServer(eng *core.MarketEngine, cache port.SnapshotCache, mirror port.TradeQuerier, feedPort int, rateLimit time.Duration, log *zap.Logger) *HTTPServer {
	return &HTTPServer{Eng: eng, Cache: cache, Mirror: mirror, FeedPort: feedPort, RateLimit: rateLimit, Log: log}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rl := middleware.NewRateLimiter(s.RateLimit)

	r.POST("/clients", s.registerClient)
	r.GET("/market", s.getMarket)
	r.GET("/orderbook/bids", s.getBids)
	r.GET("/orderbook/asks", s.getAsks)
	r.POST("/orders/buy", rl.Middleware(), s.placeBuy)
	r.POST("/orders/sell", rl.Middleware(), s.placeSell)
	r.GET("/accounts/:id", s.getAccount)
	r.GET("/trades", s.getTrades)
	r.GET("/feed/port", s.getFeedPort)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *HTTPServer) registerClient(c *gin.Context) {
	id := s.Eng.RegisterClient()
	c.JSON(http.StatusOK, dto.RegisterResponse{ClientID: id})
}

func (s *HTTPServer) getMarket(c *gin.Context) {
	if s.Cache != nil {
		if cached, err := s.Cache.GetInstruments(c.Request.Context()); err == nil && cached != nil {
			c.JSON(http.StatusOK, dto.MarketResponse{Instruments: cached})
			return
		}
	}
	snapshot := s.Eng.Snapshot()
	if s.Cache != nil {
		if err := s.Cache.SetInstruments(c.Request.Context(), snapshot); err != nil {
			s.Log.Warn("cache snapshot", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, dto.MarketResponse{Instruments: snapshot})
}

func (s *HTTPServer) getBids(c *gin.Context) {
	symbol := c.Query("symbol")
	c.JSON(http.StatusOK, dto.OrdersResponse{
		Symbol: symbol,
		Orders: dto.FromOrders(s.Eng.BidOrders(symbol)),
	})
}

func (s *HTTPServer) getAsks(c *gin.Context) {
	symbol := c.Query("symbol")
	c.JSON(http.StatusOK, dto.OrdersResponse{
		Symbol: symbol,
		Orders: dto.FromOrders(s.Eng.AskOrders(symbol)),
	})
}

func (s *HTTPServer) placeBuy(c *gin.Context) {
	s.placeOrder(c, s.Eng.PlaceBuyOrder)
}

func (s *HTTPServer) placeSell(c *gin.Context) {
	s.placeOrder(c, s.Eng.PlaceSellOrder)
}

func (s *HTTPServer) placeOrder(c *gin.Context, place func(int, string, float64, float64) error) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := "OK"
	if err := place(req.ClientID, req.Symbol, req.Price, req.Quantity); err != nil {
		status = fmt.Sprintf("ERROR: %s", err.Error())
	}
	c.JSON(http.StatusOK, dto.PlaceOrderResponse{Status: status})
}

func (s *HTTPServer) getAccount(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}
	snapshot, ok := s.Eng.Account(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown client"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	symbol := c.Query("symbol")
	day := c.Query("day")

	if s.Mirror != nil {
		trades, err := s.Mirror.TradesForDay(c.Request.Context(), symbol, day)
		if err == nil {
			c.JSON(http.StatusOK, dto.TradesResponse{
				Symbol: symbol,
				Day:    day,
				Trades: dto.FromTrades(trades),
			})
			return
		}
		// Fall back to the file archive.
		s.Log.Warn("trade mirror query", zap.String("symbol", symbol), zap.Error(err))
	}

	trades, err := s.Eng.TradesForDay(symbol, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.TradesResponse{
		Symbol: symbol,
		Day:    day,
		Trades: dto.FromTrades(trades),
	})
}

func (s *HTTPServer) getFeedPort(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FeedPortResponse{Port: s.FeedPort})
}
