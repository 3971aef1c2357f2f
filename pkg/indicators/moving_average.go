package indicators

// SMA computes the simple moving average series. The output holds
// len(prices)-period+1 values, one per full window.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	out := make([]float64, 0, len(prices)-period+1)
	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA computes the exponential moving average series, seeded with the
// SMA of the first window. The output holds len(prices)-period+1
// values.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)

	var ema float64
	for i := 0; i < period; i++ {
		ema += prices[i]
	}
	ema /= float64(period)

	out := make([]float64, 0, len(prices)-period+1)
	out = append(out, ema)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}
