package indicators

// StochasticResult carries the %K and smoothed %D oscillator series.
type StochasticResult struct {
	K       []float64
	D       []float64
	Current float64
}

// Stochastic computes the stochastic oscillator. %K compares each
// close to the high/low range of the trailing kPeriod window; %D is an
// SMA of %K over dPeriod.
func Stochastic(closes, highs, lows []float64, kPeriod, dPeriod int) StochasticResult {
	n := minInt(minInt(len(closes), len(highs)), len(lows))
	if kPeriod <= 0 || n < kPeriod {
		return StochasticResult{}
	}

	k := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		hh := highest(highs, i-kPeriod+1, i+1)
		ll := lowest(lows, i-kPeriod+1, i+1)
		if hh == ll {
			k = append(k, 50)
			continue
		}
		k = append(k, (closes[i]-ll)/(hh-ll)*100)
	}

	return StochasticResult{
		K:       k,
		D:       SMA(k, dPeriod),
		Current: last(k),
	}
}
