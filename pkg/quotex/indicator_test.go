package quotex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/quotex-connector/pkg/websocket"
)

// answerHistory replies to the next history/load request with count
// points spaced a minute apart, closing at base + i.
func answerHistory(mock *websocket.MockConnector, asset string, start int64, count int) {
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for mock.SentEventCount("history/load") == 0 {
			if time.Now().After(deadline) {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}

		var pairs []string
		for i := 0; i < count; i++ {
			ts := start + int64(i)*60
			price := 1.0 + float64(i%10)*0.01
			pairs = append(pairs, fmt.Sprintf("[%d,%g]", ts, price))
		}
		payload := fmt.Sprintf(`{"asset":%q,"history":[%s]}`, asset, strings.Join(pairs, ","))
		mock.SimulateEvent("history/list", json.RawMessage(payload))
	}()
}

func TestCalculateIndicatorValidation(t *testing.T) {
	c, mock := newTestClient(t)
	ctx := context.Background()

	t.Run("rejects a timeframe off the whitelist", func(t *testing.T) {
		_, err := c.CalculateIndicator(ctx, "EURUSD", IndicatorRSI, IndicatorParams{}, 3600, 120)
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
	})

	t.Run("rejects an unknown indicator", func(t *testing.T) {
		_, err := c.CalculateIndicator(ctx, "EURUSD", Indicator("VWAP"), IndicatorParams{}, 3600, 60)
		assert.ErrorIs(t, err, ErrUnknownIndicator)
	})

	t.Run("validation happens before any fetch", func(t *testing.T) {
		assert.Equal(t, 0, mock.SentEventCount("history/load"))
		assert.Equal(t, 0, mock.SentEventCount("candles/subscribe"))
	})
}

func TestCalculateIndicatorRSI(t *testing.T) {
	c, mock := newTestClient(t)
	answerHistory(mock, "EURUSD", 1714000020, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := c.CalculateIndicator(ctx, "EURUSD", IndicatorRSI, IndicatorParams{}, 0, 60)
	require.NoError(t, err)

	require.Len(t, res.Values, 86, "rsi over 100 candles with period 14")
	assert.Equal(t, res.Values[len(res.Values)-1], res.Current)
	assert.Equal(t, IndicatorRSI, res.Indicator)
	assert.Equal(t, int64(60), res.Timeframe)

	// Timestamps pair one-to-one with values and keep the newest candles
	require.Len(t, res.Timestamps, len(res.Values))
	assert.Equal(t, int64(1714000020+99*60), res.Timestamps[len(res.Timestamps)-1])
	for i := 1; i < len(res.Timestamps); i++ {
		assert.Equal(t, int64(60), res.Timestamps[i]-res.Timestamps[i-1])
	}
}

// A window shorter than the indicator's warmup is not an error: the
// series comes back empty, with timestamps still pairing one-to-one.
func TestCalculateIndicatorShortHistory(t *testing.T) {
	c, mock := newTestClient(t)
	answerHistory(mock, "EURUSD", 1714000020, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := c.CalculateIndicator(ctx, "EURUSD", IndicatorRSI, IndicatorParams{}, 0, 60)
	require.NoError(t, err)
	assert.Empty(t, res.Values, "rsi needs 14 candles, got 10")
	assert.Len(t, res.Timestamps, len(res.Values))
	assert.Zero(t, res.Current)

	// Multi-line kinds degrade the same way
	series := make([]Candle, 10)
	for i := range series {
		series[i] = Candle{Time: 1714000020 + int64(i)*60, Open: 1, High: 1.1, Low: 0.9, Close: 1.05}
	}
	macd, err := evaluateIndicator(IndicatorMACD, IndicatorParams{}, 60, series)
	require.NoError(t, err)
	require.NotNil(t, macd.MACD)
	assert.Empty(t, macd.MACD.MACD)
	assert.Len(t, macd.Timestamps, len(macd.MACD.MACD))
}

func TestCalculateIndicatorMACD(t *testing.T) {
	c, mock := newTestClient(t)
	answerHistory(mock, "EURUSD", 1714000020, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := c.CalculateIndicator(ctx, "EURUSD", IndicatorMACD, IndicatorParams{}, 0, 60)
	require.NoError(t, err)
	require.NotNil(t, res.MACD)

	assert.Len(t, res.MACD.MACD, 75)
	assert.Len(t, res.MACD.Signal, 67)
	assert.Len(t, res.Timestamps, 75)
	assert.Equal(t, res.MACD.Current, res.Current)
}

func TestCalculateIndicatorIchimoku(t *testing.T) {
	c, mock := newTestClient(t)
	answerHistory(mock, "EURUSD", 1714000020, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := c.CalculateIndicator(ctx, "EURUSD", IndicatorIchimoku, IndicatorParams{}, 0, 60)
	require.NoError(t, err)
	require.NotNil(t, res.Ichimoku)

	assert.Len(t, res.Ichimoku.Tenkan, 92)
	assert.Len(t, res.Timestamps, 92)
}

func TestSubscribeIndicator(t *testing.T) {
	t.Run("nil callback is rejected", func(t *testing.T) {
		c, _ := newTestClient(t)
		err := c.SubscribeIndicator(context.Background(), "EURUSD", IndicatorRSI, IndicatorParams{}, 60, nil)
		assert.ErrorIs(t, err, ErrMissingCallback)
	})

	t.Run("invalid timeframe is rejected", func(t *testing.T) {
		c, _ := newTestClient(t)
		err := c.SubscribeIndicator(context.Background(), "EURUSD", IndicatorRSI, IndicatorParams{}, 45,
			func(IndicatorUpdate) {})
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
	})

	t.Run("pushes updates until cancelled", func(t *testing.T) {
		c, mock := newTestClient(t)

		// Seed the live book past the RSI minimum so no backfill runs
		for i := 0; i < 20; i++ {
			payload := fmt.Sprintf(
				`{"asset":"EURUSD","period":60,"time":%d,"open":1,"high":1.1,"low":0.9,"close":%g}`,
				1714000020+int64(i)*60, 1.0+float64(i%5)*0.01)
			mock.SimulateEvent("candles/generated", json.RawMessage(payload))
		}

		var mu sync.Mutex
		var updates []IndicatorUpdate

		ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
		defer cancel()

		err := c.SubscribeIndicator(ctx, "EURUSD", IndicatorRSI, IndicatorParams{}, 60,
			func(u IndicatorUpdate) {
				mu.Lock()
				updates = append(updates, u)
				mu.Unlock()
			})
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, updates)
		assert.Equal(t, "EURUSD", updates[0].Asset)
		assert.Equal(t, IndicatorRSI, updates[0].Result.Indicator)
		assert.NotEmpty(t, updates[0].Result.Values)

		// The stream is stopped on the way out
		assert.Equal(t, 1, mock.SentEventCount("candles/unsubscribe"))
	})
}
