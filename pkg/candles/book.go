package candles

import "sort"

// Book accumulates live ticks and partial-candle updates for one
// (asset, period) pair, maintaining a chronologically consistent set of
// buckets with a single mutable in-progress bucket.
//
// Book is not safe for concurrent use; callers serialize access.
type Book struct {
	period  int64
	buckets map[int64]*Candle

	// latest is the start of the newest bucket seen; everything before
	// it is closed and immutable
	latest  int64
	started bool
}

// NewBook creates an empty book for the given period in seconds.
func NewBook(period int64) *Book {
	if period <= 0 {
		period = 1
	}
	return &Book{
		period:  period,
		buckets: make(map[int64]*Candle),
	}
}

// Period returns the bucket width in seconds.
func (b *Book) Period() int64 {
	return b.period
}

// ApplyTick folds a raw tick into the in-progress bucket. A tick at or
// past the end of the current bucket finalizes it and opens a new one.
// Out-of-order or duplicate ticks for an already-closed bucket are
// dropped, never reopening it.
func (b *Book) ApplyTick(ts int64, price float64) {
	start := BucketStart(ts, b.period)

	if b.started && start < b.latest {
		// Late tick for a closed bucket
		return
	}

	if b.started && start > b.latest {
		if prev, ok := b.buckets[b.latest]; ok {
			prev.Closed = true
		}
	}

	c, ok := b.buckets[start]
	if !ok {
		b.buckets[start] = &Candle{
			Time:  start,
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
		b.latest = start
		b.started = true
		return
	}
	if c.Closed {
		return
	}
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}

// ApplyCandle replaces the stored bucket with a server-pushed partial
// or finalized candle, subject to the same no-reopen rule.
func (b *Book) ApplyCandle(c Candle) {
	start := BucketStart(c.Time, b.period)
	c.Time = start

	existing, ok := b.buckets[start]
	if ok && existing.Closed && !c.Closed {
		return
	}
	if b.started && start > b.latest {
		if prev, ok := b.buckets[b.latest]; ok {
			prev.Closed = true
		}
	}
	b.buckets[start] = &c
	if !b.started || start > b.latest {
		b.latest = start
		b.started = true
	}
}

// Series returns all buckets ascending by start time. The newest
// bucket keeps Closed == false until a later tick finalizes it.
func (b *Book) Series() []Candle {
	out := make([]Candle, 0, len(b.buckets))
	for _, c := range b.buckets {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Len returns the number of buckets held.
func (b *Book) Len() int {
	return len(b.buckets)
}
