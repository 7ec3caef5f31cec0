package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/adapter/cache"
	"github.com/olyamironova/exchange-sim/internal/adapter/in_memory"
	"github.com/olyamironova/exchange-sim/internal/adapter/pg"
	apihttp "github.com/olyamironova/exchange-sim/internal/api/http"
	"github.com/olyamironova/exchange-sim/internal/archive"
	"github.com/olyamironova/exchange-sim/internal/config"
	"github.com/olyamironova/exchange-sim/internal/core"
	"github.com/olyamironova/exchange-sim/internal/feed"
	"github.com/olyamironova/exchange-sim/internal/port"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := core.NewSimulationClock(cfg.SimScale)
	logger.Info("simulation clock started",
		zap.String("simulation_time", clock.NowString()),
		zap.Int("scale", clock.Scale()),
	)

	var mirror port.TradeStore
	var mirrorQuery port.TradeQuerier
	if cfg.PostgresDSN != "" {
		store, err := pg.NewTradeStore(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to connect to Postgres", zap.Error(err))
		}
		defer store.Close()
		mirror = store
		mirrorQuery = store
	}

	archiver, err := archive.New(cfg.ArchiveDir, cfg.ArchiveQueueSize, mirror, logger)
	if err != nil {
		logger.Fatal("failed to start archiver", zap.Error(err))
	}
	defer archiver.Close()

	var relay feed.Relay
	if cfg.NatsURL != "" {
		natsRelay, err := feed.NewNATSRelay(cfg.NatsURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsRelay.Close()
		relay = natsRelay
	}

	hub := feed.NewHub(relay, logger)
	engine := core.NewMarketEngine(clock, archiver, hub, cfg.StartingCash, logger)

	var snapshotCache port.SnapshotCache
	if cfg.RedisAddr != "" {
		snapshotCache = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
	} else {
		snapshotCache = in_memory.NewCache(cfg.SnapshotTTL)
	}

	feedServer := feed.NewServer(cfg.FeedPort, hub, logger)
	go func() {
		if err := feedServer.Run(); err != nil {
			logger.Fatal("feed server failed", zap.Error(err))
		}
	}()

	go runPriceTicker(ctx, engine, cfg.PriceTickInterval)

	httpServer := apihttp.NewHTTPServer(engine, snapshotCache, mirrorQuery, cfg.FeedPort, cfg.OrderRateLimit, logger)
	controlPlane := &http.Server{Addr: cfg.HTTPAddr, Handler: httpServer.Router()}
	go func() {
		logger.Info("control-plane listening", zap.String("addr", cfg.HTTPAddr))
		if err := controlPlane.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop accepting orders before the deferred archiver.Close drains the
	// queue, so no placement races the shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := controlPlane.Shutdown(shutdownCtx); err != nil {
		logger.Warn("control-plane shutdown", zap.Error(err))
	}
	if err := feedServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("feed server shutdown", zap.Error(err))
	}
}

// runPriceTicker drives the random walk that keeps prices drifting even
// without trading activity.
func runPriceTicker(ctx context.Context, engine *core.MarketEngine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.SimulatePriceMovements()
		}
	}
}
