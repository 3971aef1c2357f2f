package indicators

import "math"

// ADXResult carries the trend strength index and both directional
// indicator series. PlusDI/MinusDI lead ADX by one warmup period.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
	Current float64
}

// ADX computes the Average Directional Index with Wilder smoothing of
// the directional movement and true range components.
func ADX(highs, lows, closes []float64, period int) ADXResult {
	n := minInt(minInt(len(highs), len(lows)), len(closes))
	if period <= 0 || n <= period {
		return ADXResult{}
	}

	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		switch {
		case up > down && up > 0:
			plusDM = append(plusDM, up)
			minusDM = append(minusDM, 0)
		case down > up && down > 0:
			plusDM = append(plusDM, 0)
			minusDM = append(minusDM, down)
		default:
			plusDM = append(plusDM, 0)
			minusDM = append(minusDM, 0)
		}
		trs = append(trs, trueRange(highs[i], lows[i], closes[i-1]))
	}

	var smPlus, smMinus, smTR float64
	for i := 0; i < period; i++ {
		smPlus += plusDM[i]
		smMinus += minusDM[i]
		smTR += trs[i]
	}

	plusDI := make([]float64, 0, len(trs)-period+1)
	minusDI := make([]float64, 0, len(trs)-period+1)
	dx := make([]float64, 0, len(trs)-period+1)

	appendDI := func() {
		var pdi, mdi float64
		if smTR != 0 {
			pdi = 100 * smPlus / smTR
			mdi = 100 * smMinus / smTR
		}
		plusDI = append(plusDI, pdi)
		minusDI = append(minusDI, mdi)
		if pdi+mdi == 0 {
			dx = append(dx, 0)
			return
		}
		dx = append(dx, 100*math.Abs(pdi-mdi)/(pdi+mdi))
	}
	appendDI()

	for i := period; i < len(trs); i++ {
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		smTR = smTR - smTR/float64(period) + trs[i]
		appendDI()
	}

	adx := SMA(dx, period)
	return ADXResult{
		ADX:     adx,
		PlusDI:  plusDI,
		MinusDI: minusDI,
		Current: last(adx),
	}
}
