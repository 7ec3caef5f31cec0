package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/observability"
	"github.com/olyamironova/exchange-sim/internal/port"
)

const mirrorTimeout = 2 * time.Second

// Archiver is the durable, append-only trade log. Producers enqueue trades
// without blocking the matching path; a single worker drains the queue and
// appends one encoded line per trade to a per-symbol, per-simulated-day file.
// Archiving is best effort: a failed write is logged and never affects trade
// settlement. An optional TradeStore mirrors each trade into an external
// database with the same best-effort contract.
type Archiver struct {
	log    *zap.Logger
	dir    string
	mirror port.TradeStore

	queue chan domain.Trade
	done  chan struct{}

	// mu makes the closed check and the queue send atomic with respect to
	// Close, which would otherwise be free to close the queue between them.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ port.TradeLog = (*Archiver)(nil)

func New(dir string, queueSize int, mirror port.TradeStore, log *zap.Logger) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create dir: %w", err)
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	a := &Archiver{
		log:    log,
		dir:    dir,
		mirror: mirror,
		queue:  make(chan domain.Trade, queueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Archive enqueues the trade for the background worker. Enqueue order is
// write order. Blocks only when the queue buffer is full; trades arriving
// after Close are dropped with a warning.
func (a *Archiver) Archive(trade domain.Trade) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.log.Warn("archiver closed, dropping trade", zap.String("symbol", trade.Symbol))
		return
	}
	a.queue <- trade
}

// Close stops accepting trades and waits for the worker to drain everything
// already enqueued, so no accepted trade is lost on shutdown.
func (a *Archiver) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.queue)
		a.mu.Unlock()
		<-a.done
	})
}

func (a *Archiver) run() {
	for trade := range a.queue {
		a.writeTrade(trade)
	}
	close(a.done)
}

func (a *Archiver) writeTrade(trade domain.Trade) {
	path := a.filePath(trade.Symbol, trade.Timestamp.Format(domain.ArchiveDayLayout))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		a.log.Error("open archive file", zap.String("path", path), zap.Error(err))
		return
	}
	_, err = f.WriteString(trade.EncodeArchiveLine() + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.log.Error("write trade", zap.String("path", path), zap.Error(err))
		return
	}
	observability.TradesArchived.Inc()

	if a.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		if err := a.mirror.SaveTrade(ctx, trade); err != nil {
			a.log.Warn("mirror trade", zap.String("symbol", trade.Symbol), zap.Error(err))
		}
		cancel()
	}
}

// TradesForDay reads back the archive for one symbol and simulated day, in
// file order. A missing file is an empty result, not an error; a line that
// fails to parse contributes a sentinel record instead of aborting the read.
func (a *Archiver) TradesForDay(symbol, day string) ([]domain.Trade, error) {
	data, err := os.ReadFile(a.filePath(symbol, day))
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Trade{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read %s %s: %w", symbol, day, err)
	}

	trades := []domain.Trade{}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trade, err := domain.ParseArchiveLine(line, symbol)
		if err != nil {
			a.log.Warn("malformed archive line", zap.String("symbol", symbol), zap.String("day", day), zap.Error(err))
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (a *Archiver) filePath(symbol, day string) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s_%s.csv", symbol, day))
}
