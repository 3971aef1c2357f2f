package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func fallingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 - float64(i)
	}
	return out
}

func TestRSI(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		assert.Nil(t, RSI(risingSeries(14), 14))
	})

	t.Run("output length", func(t *testing.T) {
		out := RSI(risingSeries(50), 14)
		assert.Len(t, out, 36)
	})

	t.Run("monotonic rise converges to 100", func(t *testing.T) {
		out := RSI(risingSeries(60), 14)
		require.NotEmpty(t, out)
		assert.InDelta(t, 100, out[len(out)-1], 1e-9)
	})

	t.Run("monotonic fall converges to 0", func(t *testing.T) {
		out := RSI(fallingSeries(60), 14)
		require.NotEmpty(t, out)
		assert.InDelta(t, 0, out[len(out)-1], 1e-9)
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		flat := make([]float64, 30)
		for i := range flat {
			flat[i] = 42
		}
		out := RSI(flat, 14)
		require.NotEmpty(t, out)
		assert.Equal(t, 50.0, out[len(out)-1])
	})
}

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	out := SMA(prices, 3)
	require.Len(t, out, 3)
	assert.Equal(t, []float64{2, 3, 4}, out)

	assert.Nil(t, SMA(prices, 6))
	assert.Nil(t, SMA(prices, 0))
}

func TestEMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	out := EMA(prices, 3)
	require.Len(t, out, 3)
	// Seeded with SMA(1,2,3) = 2, multiplier 0.5
	assert.Equal(t, 2.0, out[0])
	assert.Equal(t, 3.0, out[1])
	assert.Equal(t, 4.0, out[2])

	assert.Nil(t, EMA(prices, 6))
}

func TestMACD(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		res := MACD(risingSeries(10), 12, 26, 9)
		assert.Empty(t, res.MACD)
	})

	t.Run("series shapes", func(t *testing.T) {
		res := MACD(risingSeries(100), 12, 26, 9)
		require.NotEmpty(t, res.MACD)
		assert.Len(t, res.MACD, 75)
		assert.Len(t, res.Signal, 67)
		assert.Len(t, res.Histogram, 67)
		assert.Equal(t, res.MACD[len(res.MACD)-1], res.Current)
	})

	t.Run("constant trend has stable positive macd", func(t *testing.T) {
		res := MACD(risingSeries(200), 12, 26, 9)
		assert.Greater(t, res.Current, 0.0)
	})
}

func TestBollinger(t *testing.T) {
	res := Bollinger(risingSeries(30), 20, 2)
	require.Len(t, res.Middle, 11)
	require.Len(t, res.Upper, 11)
	require.Len(t, res.Lower, 11)

	for i := range res.Middle {
		assert.Greater(t, res.Upper[i], res.Middle[i])
		assert.Less(t, res.Lower[i], res.Middle[i])
	}
	assert.Equal(t, res.Middle[len(res.Middle)-1], res.Current)

	empty := Bollinger(risingSeries(5), 20, 2)
	assert.Empty(t, empty.Middle)
}

func TestStochastic(t *testing.T) {
	closes := risingSeries(30)
	highs := make([]float64, 30)
	lows := make([]float64, 30)
	for i := range closes {
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}

	res := Stochastic(closes, highs, lows, 14, 3)
	require.Len(t, res.K, 17)
	require.Len(t, res.D, 15)

	// In a steady uptrend the close sits near the top of the range
	assert.Greater(t, res.Current, 80.0)
	for _, k := range res.K {
		assert.GreaterOrEqual(t, k, 0.0)
		assert.LessOrEqual(t, k, 100.0)
	}
}

func TestATR(t *testing.T) {
	closes := risingSeries(30)
	highs := make([]float64, 30)
	lows := make([]float64, 30)
	for i := range closes {
		highs[i] = closes[i] + 0.5
		lows[i] = closes[i] - 0.5
	}

	out := ATR(highs, lows, closes, 14)
	require.Len(t, out, 16)
	for _, v := range out {
		assert.Greater(t, v, 0.0)
	}

	assert.Nil(t, ATR(highs[:10], lows[:10], closes[:10], 14))
}

func TestADX(t *testing.T) {
	closes := risingSeries(60)
	highs := make([]float64, 60)
	lows := make([]float64, 60)
	for i := range closes {
		highs[i] = closes[i] + 0.5
		lows[i] = closes[i] - 0.5
	}

	res := ADX(highs, lows, closes, 14)
	require.NotEmpty(t, res.ADX)
	require.NotEmpty(t, res.PlusDI)
	require.NotEmpty(t, res.MinusDI)

	// A clean uptrend is all plus directional movement
	assert.Greater(t, res.PlusDI[len(res.PlusDI)-1], res.MinusDI[len(res.MinusDI)-1])
	assert.Greater(t, res.Current, 50.0)
	assert.Equal(t, res.ADX[len(res.ADX)-1], res.Current)
}

func TestIchimoku(t *testing.T) {
	highs := risingSeries(80)
	lows := make([]float64, 80)
	for i := range highs {
		lows[i] = highs[i] - 2
	}

	res := Ichimoku(highs, lows, 9, 26, 52)
	require.Len(t, res.Tenkan, 72)
	require.Len(t, res.Kijun, 55)
	require.Len(t, res.SenkouB, 29)
	require.Len(t, res.SenkouA, 55)
	assert.Equal(t, res.Tenkan[len(res.Tenkan)-1], res.Current)

	empty := Ichimoku(highs[:20], lows[:20], 9, 26, 52)
	assert.Empty(t, empty.SenkouB)
}
