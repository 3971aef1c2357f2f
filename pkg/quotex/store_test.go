package quotex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/quotex-connector/pkg/candles"
)

func TestWaitFor(t *testing.T) {
	t.Run("wakes on broadcast", func(t *testing.T) {
		s := newMarketStore()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			s.setSentiment("EURUSD", Sentiment{Buy: 60, Sell: 40})
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := waitFor(ctx, s.notify, func() bool {
			_, ok := s.getSentiment("EURUSD")
			return ok
		})
		require.NoError(t, err)
		wg.Wait()
	})

	t.Run("does not miss a write racing the wait", func(t *testing.T) {
		s := newMarketStore()
		s.setSentiment("EURUSD", Sentiment{Buy: 1, Sell: 1})

		// Predicate is already true; waitFor must return without a
		// further broadcast
		err := waitFor(context.Background(), s.notify, func() bool {
			_, ok := s.getSentiment("EURUSD")
			return ok
		})
		assert.NoError(t, err)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		s := newMarketStore()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err := waitFor(ctx, s.notify, func() bool { return false })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMarketStoreTicksFeedAllBooks(t *testing.T) {
	s := newMarketStore()
	s.ensureBook("EURUSD", 60)
	s.ensureBook("EURUSD", 300)
	s.ensureBook("GBPUSD", 60)

	s.applyTick("EURUSD", candles.PricePoint{Time: 1714000025, Price: 1.08})

	assert.Len(t, s.liveSeries("EURUSD", 60), 1)
	assert.Len(t, s.liveSeries("EURUSD", 300), 1)
	assert.Empty(t, s.liveSeries("GBPUSD", 60), "ticks stay within their asset")

	p, ok := s.getLastTick("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.08, p.Price)
}

func TestMarketStoreSettlements(t *testing.T) {
	s := newMarketStore()

	s.setSettlement(TradeOutcome{ID: "op-1", GameState: 1, Result: "win"})

	o, ok := s.getSettlement("op-1")
	require.True(t, ok)
	assert.True(t, o.Settled())

	s.deleteSettlement("op-1")
	_, ok = s.getSettlement("op-1")
	assert.False(t, ok)
}

func TestMarketStoreHistoryIsPerAsset(t *testing.T) {
	s := newMarketStore()

	s.setHistory("EURUSD", []candles.PricePoint{{Time: 1, Price: 1.0}})
	s.setHistory("GBPUSD", nil)

	_, ok := s.getHistory("EURUSD")
	assert.True(t, ok)

	// An empty answer still counts as an answer
	points, ok := s.getHistory("GBPUSD")
	assert.True(t, ok)
	assert.Empty(t, points)

	s.clearHistory("GBPUSD")
	_, ok = s.getHistory("GBPUSD")
	assert.False(t, ok)
}
