package indicators

import "math"

// BollingerResult carries the three Bollinger bands. All series share
// the SMA alignment of the middle band.
type BollingerResult struct {
	Middle  []float64
	Upper   []float64
	Lower   []float64
	Current float64
}

// Bollinger computes Bollinger Bands: an SMA middle band with upper
// and lower bands numStd standard deviations away.
func Bollinger(prices []float64, period int, numStd float64) BollingerResult {
	middle := SMA(prices, period)
	if len(middle) == 0 {
		return BollingerResult{}
	}

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for i := range middle {
		var variance float64
		for j := i; j < i+period; j++ {
			d := prices[j] - middle[i]
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + numStd*std
		lower[i] = middle[i] - numStd*std
	}

	return BollingerResult{
		Middle:  middle,
		Upper:   upper,
		Lower:   lower,
		Current: last(middle),
	}
}
