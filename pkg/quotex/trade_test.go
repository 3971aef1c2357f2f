package quotex

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuy(t *testing.T) {
	t.Run("confirmed order", func(t *testing.T) {
		c, mock := newTestClient(t)

		go func() {
			time.Sleep(30 * time.Millisecond)
			mock.SimulateEvent("orders/opened", json.RawMessage(
				`{"id":"abc-123","requestId":"r1","openTimestamp":1714000000,"closeTimestamp":1714000060}`))
		}()

		ok, conf, err := c.Buy(context.Background(), 10, "EURUSD", Call, 60, "TIME")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NotNil(t, conf)
		assert.Equal(t, "abc-123", conf.ID)
		assert.Equal(t, int64(1714000060), conf.CloseTimestamp)

		// The settlement countdown is anchored to the confirmed expiry
		assert.Equal(t, int64(1714000060), c.expiryFor("abc-123"))
		assert.Zero(t, c.expiryFor("unknown-id"))

		// Placing an order opens the chart feeds for its duration
		assert.Equal(t, 1, mock.SentEventCount("orders/open"))
		assert.Equal(t, 1, mock.SentEventCount("candles/subscribe"))
	})

	t.Run("confirmation wait is bounded by the duration", func(t *testing.T) {
		c, _ := newTestClient(t)

		start := time.Now()
		ok, conf, err := c.Buy(context.Background(), 10, "EURUSD", Put, 1, "TIME")
		elapsed := time.Since(start)

		assert.False(t, ok)
		assert.Nil(t, conf)
		assert.ErrorIs(t, err, ErrBuyTimeout)
		assert.GreaterOrEqual(t, elapsed, time.Second)
		assert.Less(t, elapsed, 3*time.Second)
	})

	t.Run("rejected while disconnected", func(t *testing.T) {
		c, mock := newTestClient(t)
		require.NoError(t, mock.Close())

		ok, conf, err := c.Buy(context.Background(), 10, "EURUSD", Call, 60, "TIME")
		assert.False(t, ok)
		assert.Nil(t, conf)
		assert.ErrorIs(t, err, ErrNotConnected)
		assert.Equal(t, 0, mock.SentEventCount("orders/open"))
	})

	t.Run("websocket error short-circuits the wait", func(t *testing.T) {
		c, mock := newTestClient(t)

		go func() {
			time.Sleep(30 * time.Millisecond)
			mock.SimulateError(errors.New("connection reset by peer"))
		}()

		start := time.Now()
		ok, _, err := c.Buy(context.Background(), 10, "EURUSD", Call, 60, "TIME")

		assert.False(t, ok)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset by peer")
		assert.Less(t, time.Since(start), time.Second,
			"ws error must not wait out the full duration")
	})
}

func TestCheckWin(t *testing.T) {
	t.Run("waits for settlement and consumes it", func(t *testing.T) {
		c, mock := newTestClient(t)

		// First push is still in flight, second one settles
		go func() {
			time.Sleep(20 * time.Millisecond)
			mock.SimulateEvent("orders/closed", json.RawMessage(
				`{"id":"op-1","gameState":0,"result":"","profit":0}`))
			time.Sleep(20 * time.Millisecond)
			mock.SimulateEvent("orders/closed", json.RawMessage(
				`{"id":"op-1","gameState":1,"result":"win","profit":8.5}`))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		outcome, err := c.CheckWin(ctx, "op-1")
		require.NoError(t, err)
		assert.Equal(t, "win", outcome.Result)
		assert.Equal(t, 8.5, outcome.Profit)
		assert.True(t, outcome.Settled())

		// The entry is deleted after the read; a second wait blocks
		ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel2()
		_, err = c.CheckWin(ctx2, "op-1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("unsettled pushes do not release the wait", func(t *testing.T) {
		c, mock := newTestClient(t)

		mock.SimulateEvent("orders/closed", json.RawMessage(
			`{"id":"op-2","gameState":0,"result":"","profit":0}`))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.CheckWin(ctx, "op-2")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSellOption(t *testing.T) {
	c, mock := newTestClient(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		mock.SimulateEvent("sold", json.RawMessage(`{"ticket":"op-3","closePrice":1.085}`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := c.SellOption(ctx, []string{"op-3"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket":"op-3","closePrice":1.085}`, string(resp))
	assert.Equal(t, 1, mock.SentEventCount("orders/sell"))
}
