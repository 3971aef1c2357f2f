package indicators

// MACDResult carries the MACD line, its signal line and the histogram.
// Signal and Histogram trail the MACD line by the signal warmup.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
	Current   float64
}

// MACD computes Moving Average Convergence Divergence over close
// prices. The MACD line is the fast EMA minus the slow EMA aligned on
// their common tail; the signal line is an EMA of the MACD line.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	emaFast := EMA(prices, fastPeriod)
	emaSlow := EMA(prices, slowPeriod)

	n := minInt(len(emaFast), len(emaSlow))
	if n == 0 {
		return MACDResult{}
	}

	line := make([]float64, n)
	for i := 0; i < n; i++ {
		line[i] = emaFast[len(emaFast)-n+i] - emaSlow[len(emaSlow)-n+i]
	}

	signal := EMA(line, signalPeriod)
	m := minInt(len(line), len(signal))
	histogram := make([]float64, m)
	for i := 0; i < m; i++ {
		histogram[i] = line[len(line)-m+i] - signal[len(signal)-m+i]
	}

	return MACDResult{
		MACD:      line,
		Signal:    signal,
		Histogram: histogram,
		Current:   last(line),
	}
}
