package quotex

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veiloq/quotex-connector/pkg/logging"
	"github.com/veiloq/quotex-connector/pkg/session"
	"github.com/veiloq/quotex-connector/pkg/websocket"
)

// newTestClient builds a client wired to a mock transport.
func newTestClient(t *testing.T) (*Client, *websocket.MockConnector) {
	t.Helper()

	opts := session.NewOptions()
	opts.RootPath = t.TempDir()

	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)

	c, err := NewClient(opts, logger)
	require.NoError(t, err)

	mock := websocket.NewMockConnector()
	c.ws = mock
	c.bindTransport()
	require.NoError(t, mock.Connect(context.Background()))

	return c, mock
}

// pushInstruments delivers an instruments snapshot through the mock.
func pushInstruments(t *testing.T, mock *websocket.MockConnector, list []Instrument) {
	t.Helper()
	payload, err := json.Marshal(list)
	require.NoError(t, err)
	mock.SimulateEvent("instruments/list", payload)
}

func testInstruments() []Instrument {
	return []Instrument{
		{
			Code: 1, Symbol: "EURUSD", Name: "EUR/USD", Open: false,
			TurboPayment: 85, Payment: 80,
			Profit: PayoutProfile{Day: 82, OneMinute: 85, FiveMinutes: 80},
		},
		{
			Code: 66, Symbol: "EURUSD_otc", Name: "EUR/USD (OTC)", Open: true,
			TurboPayment: 90, Payment: 88,
			Profit: PayoutProfile{Day: 86, OneMinute: 90, FiveMinutes: 88},
		},
	}
}

func TestGetInstruments(t *testing.T) {
	c, mock := newTestClient(t)

	t.Run("blocks until snapshot arrives", func(t *testing.T) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			pushInstruments(t, mock, testInstruments())
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		instruments, err := c.GetInstruments(ctx)
		require.NoError(t, err)
		assert.Len(t, instruments, 2)
	})

	t.Run("context bounds the wait", func(t *testing.T) {
		empty, _ := newTestClient(t)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := empty.GetInstruments(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestCheckAssetOpen(t *testing.T) {
	c, mock := newTestClient(t)
	pushInstruments(t, mock, testInstruments())

	ctx := context.Background()

	inst, err := c.CheckAssetOpen(ctx, "EURUSD_otc")
	require.NoError(t, err)
	assert.True(t, inst.Open)

	_, err = c.CheckAssetOpen(ctx, "XAUUSD")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestGetAvailableAsset(t *testing.T) {
	c, mock := newTestClient(t)
	pushInstruments(t, mock, testInstruments())

	ctx := context.Background()

	t.Run("closed asset without force", func(t *testing.T) {
		name, inst, err := c.GetAvailableAsset(ctx, "EURUSD", false)
		require.NoError(t, err)
		assert.Equal(t, "EURUSD", name)
		assert.False(t, inst.Open)
	})

	t.Run("falls back to otc twin when forced", func(t *testing.T) {
		name, inst, err := c.GetAvailableAsset(ctx, "EURUSD", true)
		require.NoError(t, err)
		assert.Equal(t, "EURUSD_otc", name)
		assert.True(t, inst.Open)
	})

	t.Run("falls back from otc to the base market", func(t *testing.T) {
		list := testInstruments()
		list[0].Open = true
		list[1].Open = false
		c2, mock2 := newTestClient(t)
		pushInstruments(t, mock2, list)

		name, inst, err := c2.GetAvailableAsset(ctx, "EURUSD_otc", true)
		require.NoError(t, err)
		assert.Equal(t, "EURUSD", name)
		assert.True(t, inst.Open)
	})
}

func TestGetPayoutByAsset(t *testing.T) {
	c, mock := newTestClient(t)
	pushInstruments(t, mock, testInstruments())

	ctx := context.Background()

	t.Run("all returns the full profile", func(t *testing.T) {
		got, err := c.GetPayoutByAsset(ctx, "EURUSD", "all")
		require.NoError(t, err)

		profile, ok := got.(PayoutProfile)
		require.True(t, ok, "expected PayoutProfile, got %T", got)
		assert.Equal(t, 85.0, profile.OneMinute)
		assert.Equal(t, 80.0, profile.FiveMinutes)
	})

	t.Run("numeric timeframe returns a single percentage", func(t *testing.T) {
		got, err := c.GetPayoutByAsset(ctx, "EURUSD", "1")
		require.NoError(t, err)

		pct, ok := got.(float64)
		require.True(t, ok, "expected float64, got %T", got)
		assert.Equal(t, 85.0, pct)
	})

	t.Run("unknown timeframe is rejected", func(t *testing.T) {
		_, err := c.GetPayoutByAsset(ctx, "EURUSD", "7")
		assert.ErrorIs(t, err, ErrInvalidTimeframe)
	})
}

func TestGetBalance(t *testing.T) {
	c, mock := newTestClient(t)

	mock.SimulateEvent("balance/changed", json.RawMessage(
		`{"demoBalance":10000.999,"liveBalance":52.499,"profitInOperation":3.5}`))

	ctx := context.Background()

	// Open positions count toward the balance: 10000.999 + 3.5,
	// truncated to cents
	balance, err := c.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10004.49, balance, "practice balance plus profit in operation")

	require.NoError(t, c.SetAccountMode(ModeReal))
	balance, err = c.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 55.99, balance)

	assert.Equal(t, 3.5, c.GetProfit())
}

func TestSetAccountMode(t *testing.T) {
	c, _ := newTestClient(t)

	assert.NoError(t, c.SetAccountMode("practice"))
	assert.True(t, c.isDemo())

	assert.NoError(t, c.SetAccountMode("REAL"))
	assert.False(t, c.isDemo())

	assert.ErrorIs(t, c.SetAccountMode("TOURNAMENT"), ErrInvalidAccountMode)
}

func TestGetRealtimePrice(t *testing.T) {
	c, mock := newTestClient(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		mock.SimulateEvent("tick", json.RawMessage(`["EURUSD",1714000000.5,1.0857]`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	point, err := c.GetRealtimePrice(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, int64(1714000000), point.Time)
	assert.Equal(t, 1.0857, point.Price)
}

func TestGetRealtimeSentiment(t *testing.T) {
	c, mock := newTestClient(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		mock.SimulateEvent("mood/changed", json.RawMessage(`{"asset":"EURUSD","buy":70,"sell":30}`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	mood, err := c.StartRealtimeSentiment(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, Sentiment{Buy: 70, Sell: 30}, mood)
	assert.Equal(t, 1, mock.SentEventCount("mood/subscribe"))
}

// GetRealtimeCandles must open the feed itself; callers are not
// required to start the stream beforehand.
func TestGetRealtimeCandlesStartsStream(t *testing.T) {
	c, mock := newTestClient(t)

	go func() {
		for mock.SentEventCount("candles/subscribe") == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		mock.SimulateEvent("tick", json.RawMessage(`["EURUSD",1714000025,1.07]`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	series, err := c.GetRealtimeCandles(ctx, "EURUSD", 60)
	require.NoError(t, err)
	require.NotEmpty(t, series)
	assert.Equal(t, int64(1714000020), series[0].Time)
	assert.Equal(t, 1.07, series[0].Close)
	assert.Equal(t, 1, mock.SentEventCount("candles/subscribe"))
}

func TestGetHistoryLine(t *testing.T) {
	c, mock := newTestClient(t)
	pushInstruments(t, mock, testInstruments())

	go func() {
		for mock.SentEventCount("history/load/line") == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		mock.SimulateEvent("history/list/line", json.RawMessage(
			`{"asset":"EURUSD","data":[[1714000000,1.0]]}`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := c.GetHistoryLine(ctx, "EURUSD", 1714000100, 60)
	require.NoError(t, err)
	assert.JSONEq(t, `{"asset":"EURUSD","data":[[1714000000,1.0]]}`, string(raw))

	_, err = c.GetHistoryLine(ctx, "XAUUSD", 0, 60)
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestGetCandlesMergesLiveAndBulk(t *testing.T) {
	c, mock := newTestClient(t)

	// Once the history request is on the wire the live book exists; a
	// tick lands in the 1714000080 bucket before the bulk answer
	go func() {
		for mock.SentEventCount("history/load") == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		mock.SimulateEvent("tick", json.RawMessage(`["EURUSD",1714000085,1.2]`))
		mock.SimulateEvent("history/list", json.RawMessage(
			`{"asset":"EURUSD","history":[[1714000000,1.0],[1714000030,1.1],[1714000060,1.05]]}`))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	series, err := c.GetCandles(ctx, "EURUSD", 1714000100, 100, 60)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, int64(1713999960), series[0].Time)
	assert.True(t, series[0].Closed)
	assert.Equal(t, 1.0, series[0].Open)

	assert.Equal(t, int64(1714000020), series[1].Time)
	assert.Equal(t, 1.1, series[1].High)
	assert.Equal(t, 1.05, series[1].Close)

	// The live bucket survives the merge
	last := series[len(series)-1]
	assert.Equal(t, int64(1714000080), last.Time)
	assert.Equal(t, 1.2, last.Close)
}
