package archive

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/domain"
)

func testTrade(price, qty float64, buyer, seller int) domain.Trade {
	return domain.Trade{
		Symbol:    "BTC",
		Price:     price,
		Quantity:  qty,
		BuyerID:   buyer,
		SellerID:  seller,
		Timestamp: time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestArchiver_RoundTrip(t *testing.T) {
	a, err := New(t.TempDir(), 16, nil, zap.NewNop())
	require.NoError(t, err)

	trades := []domain.Trade{
		testTrade(66990.00, 0.0100, 1, 2),
		testTrade(67000.50, 0.2500, 3, 4),
		testTrade(66985.25, 1.0000, 5, 6),
	}
	for _, tr := range trades {
		a.Archive(tr)
	}
	a.Close()

	got, err := a.TradesForDay("BTC", "2025-01-01")
	require.NoError(t, err)
	require.Len(t, got, len(trades))
	for i, tr := range trades {
		assert.Equal(t, tr.Symbol, got[i].Symbol)
		assert.Equal(t, tr.Price, got[i].Price)
		assert.Equal(t, tr.Quantity, got[i].Quantity)
		assert.Equal(t, tr.BuyerID, got[i].BuyerID)
		assert.Equal(t, tr.SellerID, got[i].SellerID)
		assert.True(t, tr.Timestamp.Equal(got[i].Timestamp))
	}
}

func TestArchiver_MissingFileIsEmptyResult(t *testing.T) {
	a, err := New(t.TempDir(), 16, nil, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	got, err := a.TradesForDay("ETH", "2025-01-01")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestArchiver_MalformedLineYieldsSentinel(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, 16, nil, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	content := testTrade(100, 1, 1, 2).EncodeArchiveLine() + "\n" +
		"not a trade line at all\n" +
		testTrade(101, 1, 3, 4).EncodeArchiveLine() + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC_2025-01-01.csv"), []byte(content), 0o644))

	got, err := a.TradesForDay("BTC", "2025-01-01")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, -1, got[1].BuyerID)
	assert.Equal(t, -1, got[1].SellerID)
	assert.Zero(t, got[1].Price)
	assert.Equal(t, 101.0, got[2].Price)
}

func TestArchiver_CloseDrainsQueue(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, 256, nil, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		a.Archive(testTrade(100+float64(i), 1, i, i+1))
	}
	a.Close()

	got, err := a.TradesForDay("BTC", "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, got, 100)
	// Order preserved.
	assert.Equal(t, 100.0, got[0].Price)
	assert.Equal(t, 199.0, got[99].Price)
}

func TestArchiver_ArchiveAfterCloseIsDropped(t *testing.T) {
	a, err := New(t.TempDir(), 16, nil, zap.NewNop())
	require.NoError(t, err)
	a.Close()

	// Must not panic or block.
	a.Archive(testTrade(100, 1, 1, 2))
}

func TestArchiver_ArchiveRacingCloseNeverPanics(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 50; i++ {
		a, err := New(dir, 8, nil, zap.NewNop())
		require.NoError(t, err)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				<-start
				for j := 0; j < 20; j++ {
					a.Archive(testTrade(100, 1, g, g+1))
				}
			}(g)
		}
		close(start)
		// Close while producers are mid-flight: late trades are dropped,
		// accepted ones drained, and nobody sends on a closed queue.
		a.Close()
		wg.Wait()
	}
}

type fakeStore struct {
	mu     sync.Mutex
	trades []domain.Trade
}

func (s *fakeStore) SaveTrade(ctx context.Context, t domain.Trade) error {
	s.mu.Lock()
	s.trades = append(s.trades, t)
	s.mu.Unlock()
	return nil
}

func TestArchiver_MirrorsToStore(t *testing.T) {
	store := &fakeStore{}
	a, err := New(t.TempDir(), 16, store, zap.NewNop())
	require.NoError(t, err)

	a.Archive(testTrade(100, 1, 1, 2))
	a.Close()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.trades, 1)
	assert.Equal(t, 100.0, store.trades[0].Price)
}
