// Package indicators implements the technical indicator math used by
// the client's indicator facade. All functions are pure: they take
// price series and return computed series, with no I/O.
//
// Output series are shorter than the input by each indicator's warmup
// period. Insufficient input yields an empty result rather than an
// error; callers decide whether that is a problem.
package indicators

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// last returns the final element of a series, or 0 when empty.
func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// highest returns the maximum over window [from, to).
func highest(series []float64, from, to int) float64 {
	h := series[from]
	for i := from + 1; i < to; i++ {
		if series[i] > h {
			h = series[i]
		}
	}
	return h
}

// lowest returns the minimum over window [from, to).
func lowest(series []float64, from, to int) float64 {
	l := series[from]
	for i := from + 1; i < to; i++ {
		if series[i] < l {
			l = series[i]
		}
	}
	return l
}
