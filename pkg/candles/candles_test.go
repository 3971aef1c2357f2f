package candles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketStart(t *testing.T) {
	tests := []struct {
		name   string
		ts     int64
		period int64
		want   int64
	}{
		{"exact boundary", 120, 60, 120},
		{"mid bucket", 149, 60, 120},
		{"one before next", 179, 60, 120},
		{"next bucket", 180, 60, 180},
		{"large period", 86399, 86400, 0},
		{"zero period passthrough", 42, 0, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketStart(tt.ts, tt.period))
		})
	}
}

func TestFromHistory(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, FromHistory(nil, 60))
	})

	t.Run("single bucket OHLC", func(t *testing.T) {
		points := []PricePoint{
			{Time: 100, Price: 1.5},
			{Time: 110, Price: 2.0},
			{Time: 115, Price: 1.0},
			{Time: 119, Price: 1.8},
		}
		out := FromHistory(points, 60)
		require.Len(t, out, 1)
		c := out[0]
		assert.Equal(t, int64(60), c.Time)
		assert.Equal(t, 1.5, c.Open)
		assert.Equal(t, 2.0, c.High)
		assert.Equal(t, 1.0, c.Low)
		assert.Equal(t, 1.8, c.Close)
		assert.False(t, c.Closed)
	})

	t.Run("unordered points are rebucketed chronologically", func(t *testing.T) {
		points := []PricePoint{
			{Time: 130, Price: 3.0},
			{Time: 10, Price: 1.0},
			{Time: 70, Price: 2.0},
		}
		out := FromHistory(points, 60)
		require.Len(t, out, 3)
		assert.Equal(t, int64(0), out[0].Time)
		assert.Equal(t, int64(60), out[1].Time)
		assert.Equal(t, int64(120), out[2].Time)

		// All but the newest bucket are closed
		assert.True(t, out[0].Closed)
		assert.True(t, out[1].Closed)
		assert.False(t, out[2].Closed)
	})

	t.Run("one candle per touched bucket", func(t *testing.T) {
		var points []PricePoint
		for ts := int64(0); ts < 600; ts += 7 {
			points = append(points, PricePoint{Time: ts, Price: float64(ts % 13)})
		}
		out := FromHistory(points, 60)
		require.Len(t, out, 10)
		seen := make(map[int64]bool)
		for _, c := range out {
			assert.Equal(t, BucketStart(c.Time, 60), c.Time)
			assert.False(t, seen[c.Time], "duplicate bucket %d", c.Time)
			seen[c.Time] = true
			assert.GreaterOrEqual(t, c.High, c.Low)
		}
	})
}

func TestBookApplyTick(t *testing.T) {
	t.Run("aggregates OHLC per bucket", func(t *testing.T) {
		b := NewBook(60)
		b.ApplyTick(100, 1.5)
		b.ApplyTick(110, 2.5)
		b.ApplyTick(115, 0.5)
		b.ApplyTick(119, 1.0)

		series := b.Series()
		require.Len(t, series, 1)
		c := series[0]
		assert.Equal(t, 1.5, c.Open)
		assert.Equal(t, 2.5, c.High)
		assert.Equal(t, 0.5, c.Low)
		assert.Equal(t, 1.0, c.Close)
		assert.False(t, c.Closed)
	})

	t.Run("tick past bucket end finalizes it", func(t *testing.T) {
		b := NewBook(60)
		b.ApplyTick(100, 1.0)
		b.ApplyTick(120, 2.0)

		series := b.Series()
		require.Len(t, series, 2)
		assert.True(t, series[0].Closed)
		assert.False(t, series[1].Closed)
	})

	t.Run("late tick does not reopen a closed bucket", func(t *testing.T) {
		b := NewBook(60)
		b.ApplyTick(100, 1.0)
		b.ApplyTick(120, 2.0)
		b.ApplyTick(110, 99.0) // late

		series := b.Series()
		require.Len(t, series, 2)
		assert.Equal(t, 1.0, series[0].High, "closed bucket must stay immutable")
	})

	t.Run("bucket zero is finalized too", func(t *testing.T) {
		b := NewBook(60)
		b.ApplyTick(10, 1.0)
		b.ApplyTick(65, 2.0)

		series := b.Series()
		require.Len(t, series, 2)
		assert.Equal(t, int64(0), series[0].Time)
		assert.True(t, series[0].Closed)
	})
}

func TestBookApplyCandle(t *testing.T) {
	b := NewBook(60)
	b.ApplyCandle(Candle{Time: 60, Open: 1, High: 2, Low: 0.5, Close: 1.5})
	b.ApplyCandle(Candle{Time: 60, Open: 1, High: 3, Low: 0.5, Close: 2.5})

	series := b.Series()
	require.Len(t, series, 1)
	assert.Equal(t, 3.0, series[0].High, "partial update replaces the open bucket")

	// Closing the bucket freezes it against stale partials
	b.ApplyCandle(Candle{Time: 60, Open: 1, High: 3, Low: 0.5, Close: 2.5, Closed: true})
	b.ApplyCandle(Candle{Time: 60, Open: 9, High: 9, Low: 9, Close: 9})
	series = b.Series()
	assert.Equal(t, 3.0, series[0].High)
	assert.True(t, series[0].Closed)
}

func TestMerge(t *testing.T) {
	bulk := []Candle{
		{Time: 0, Open: 1, High: 1, Low: 1, Close: 1, Closed: true},
		{Time: 60, Open: 2, High: 2, Low: 2, Close: 2, Closed: true},
	}
	live := []Candle{
		{Time: 60, Open: 9, High: 9, Low: 9, Close: 9, Closed: true},
		{Time: 120, Open: 3, High: 4, Low: 3, Close: 3.5},
	}

	t.Run("bulk wins closed, live wins open", func(t *testing.T) {
		out := Merge(bulk, live)
		require.Len(t, out, 3)
		assert.Equal(t, 1.0, out[0].Close)
		assert.Equal(t, 2.0, out[1].Close, "closed bucket keeps bulk value")
		assert.Equal(t, 3.5, out[2].Close, "open bucket takes live value")
		assert.False(t, out[2].Closed)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Merge(bulk, live)
		twice := Merge(once, live)
		assert.Equal(t, once, twice)
	})

	t.Run("live close overrides stale open bulk bucket", func(t *testing.T) {
		bulkOpen := []Candle{{Time: 60, Open: 2, High: 2, Low: 2, Close: 2}}
		liveClosed := []Candle{{Time: 60, Open: 2, High: 5, Low: 1, Close: 4, Closed: true}}
		out := Merge(bulkOpen, liveClosed)
		require.Len(t, out, 1)
		assert.True(t, out[0].Closed)
		assert.Equal(t, 4.0, out[0].Close)
	})

	t.Run("ascending order", func(t *testing.T) {
		out := Merge(live, bulk)
		for i := 1; i < len(out); i++ {
			assert.Less(t, out[i-1].Time, out[i].Time)
		}
	})
}
