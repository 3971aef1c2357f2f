package indicators

// IchimokuResult carries the Ichimoku Cloud lines. SenkouA and SenkouB
// are computed without the conventional forward displacement; callers
// shift them if charting.
type IchimokuResult struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Current float64
}

// Ichimoku computes the Ichimoku Cloud midline series: Tenkan-sen,
// Kijun-sen, Senkou Span A (midpoint of the former two, aligned on
// their common tail) and Senkou Span B.
func Ichimoku(highs, lows []float64, tenkanPeriod, kijunPeriod, senkouBPeriod int) IchimokuResult {
	tenkan := midline(highs, lows, tenkanPeriod)
	kijun := midline(highs, lows, kijunPeriod)
	senkouB := midline(highs, lows, senkouBPeriod)

	n := minInt(len(tenkan), len(kijun))
	senkouA := make([]float64, n)
	for i := 0; i < n; i++ {
		senkouA[i] = (tenkan[len(tenkan)-n+i] + kijun[len(kijun)-n+i]) / 2
	}

	return IchimokuResult{
		Tenkan:  tenkan,
		Kijun:   kijun,
		SenkouA: senkouA,
		SenkouB: senkouB,
		Current: last(tenkan),
	}
}

// midline is the midpoint of the highest high and lowest low over a
// trailing window, the building block of every Ichimoku line.
func midline(highs, lows []float64, period int) []float64 {
	n := minInt(len(highs), len(lows))
	if period <= 0 || n < period {
		return nil
	}

	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hh := highest(highs, i-period+1, i+1)
		ll := lowest(lows, i-period+1, i+1)
		out = append(out, (hh+ll)/2)
	}
	return out
}
