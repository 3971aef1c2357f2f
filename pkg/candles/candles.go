// Package candles derives OHLC series of arbitrary period from the two
// raw feeds the broker pushes: bulk historical candle payloads and live
// tick / partial-candle updates.
//
// A timestamp belongs to the bucket floor(ts/period)*period. A bucket
// is closed once a tick at or past its end arrives, or once the bulk
// payload reports it closed. At most one candle exists per bucket.
package candles

import "sort"

// Candle is one OHLC bucket. Closed candles are immutable; the
// currently forming bucket has Closed == false and is updated in place
// until its period elapses.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
	Closed bool    `json:"closed"`
}

// PricePoint is a raw (timestamp, price) sample from the bulk history
// payload or the tick feed.
type PricePoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// BucketStart returns the start of the bucket the timestamp falls in.
func BucketStart(ts, period int64) int64 {
	if period <= 0 {
		return ts
	}
	return (ts / period) * period
}

// FromHistory rebuckets raw price points into candles of the requested
// period. Points need not be ordered. All returned candles except the
// newest bucket are marked closed.
func FromHistory(points []PricePoint, period int64) []Candle {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	var out []Candle
	for _, p := range sorted {
		start := BucketStart(p.Time, period)
		if n := len(out); n > 0 && out[n-1].Time == start {
			c := &out[n-1]
			if p.Price > c.High {
				c.High = p.Price
			}
			if p.Price < c.Low {
				c.Low = p.Price
			}
			c.Close = p.Price
			continue
		}
		out = append(out, Candle{
			Time:  start,
			Open:  p.Price,
			High:  p.Price,
			Low:   p.Price,
			Close: p.Price,
		})
	}

	for i := 0; i < len(out)-1; i++ {
		out[i].Closed = true
	}
	return out
}

// Merge combines a bulk-sourced series with a live-sourced series into
// one ascending series deduplicated by bucket start. The live value
// wins for the currently open bucket; the bulk value wins for closed
// buckets. Merge is idempotent: Merge(Merge(a, b), b) == Merge(a, b).
func Merge(bulk, live []Candle) []Candle {
	byTime := make(map[int64]Candle, len(bulk)+len(live))
	for _, c := range bulk {
		byTime[c.Time] = c
	}
	for _, c := range live {
		existing, ok := byTime[c.Time]
		switch {
		case !ok:
			byTime[c.Time] = c
		case !c.Closed:
			// Open bucket: live data is fresher
			byTime[c.Time] = c
		case !existing.Closed:
			// Live has already closed a bucket bulk still reports
			// open; the closed view is authoritative
			byTime[c.Time] = c
		}
	}

	out := make([]Candle, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
