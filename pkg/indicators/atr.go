package indicators

import "math"

// ATR computes the Average True Range series with Wilder's smoothing.
// The first value corresponds to the bar at index `period`.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := minInt(minInt(len(highs), len(lows)), len(closes))
	if period <= 0 || n <= period {
		return nil
	}

	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		trs = append(trs, trueRange(highs[i], lows[i], closes[i-1]))
	}

	var atr float64
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)

	out := make([]float64, 0, len(trs)-period+1)
	out = append(out, atr)
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		out = append(out, atr)
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}
