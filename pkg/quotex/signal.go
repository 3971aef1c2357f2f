package quotex

import (
	"context"
	"math"

	"github.com/veiloq/quotex-connector/pkg/logging"
)

// fibLevels is the retracement grid used by the retest strategy.
var fibLevels = []float64{0.2, 0.38, 0.5, 0.62, 0.8, 0.9, 1.0}

// FibSignal is a trade suggestion from the 0.62 retest strategy.
type FibSignal struct {
	Direction     Direction
	ExpirySeconds int
	Level         float64
}

// DetectFibSignal looks for a retest of the 0.62 Fibonacci retracement
// with candle confirmation on the most recent candles of the asset. It
// returns nil when no setup is present.
//
// The setup: take the swing high and swing low of the fetched window,
// build the retracement grid, and require the last candle to straddle
// the 0.62 level. A call needs an uptrend over the last five closes, a
// bullish last candle whose lower wick exceeds its body and whose low
// tagged the level below the previous candle's high. A put mirrors
// that on the downside.
func (c *Client) DetectFibSignal(ctx context.Context, asset string, timeframeSeconds, expirySeconds int) (*FibSignal, error) {
	series, err := c.GetCandles(ctx, asset, c.state.ServerTime(), 100, int64(timeframeSeconds))
	if err != nil {
		return nil, err
	}
	if len(series) < 20 {
		c.logger.Debug("not enough candles for fib analysis",
			logging.String("asset", asset), logging.Int("count", len(series)))
		return nil, nil
	}

	swingHigh := math.Inf(-1)
	swingLow := math.Inf(1)
	for _, candle := range series {
		if candle.High > swingHigh {
			swingHigh = candle.High
		}
		if candle.Low < swingLow {
			swingLow = candle.Low
		}
	}

	diff := swingHigh - swingLow
	if diff <= 0 {
		return nil, nil
	}
	levels := make(map[float64]float64, len(fibLevels))
	for _, lv := range fibLevels {
		levels[lv] = swingLow + diff*lv
	}
	fib62 := levels[0.62]

	last := series[len(series)-1]
	prev := series[len(series)-2]

	body := math.Abs(last.Close - last.Open)
	lowerWick := math.Min(last.Open, last.Close) - last.Low
	upperWick := last.High - math.Max(last.Open, last.Close)

	// The last candle must straddle the level; a clean break either way
	// is not a retest
	if last.High > fib62 && last.Low > fib62 {
		return nil, nil
	}
	if last.Low < fib62 && last.High < fib62 {
		return nil, nil
	}

	recent := series[len(series)-5:]
	trendUp := recent[len(recent)-1].Close > recent[0].Close

	if trendUp &&
		last.Low <= fib62 && fib62 <= prev.High &&
		last.Close > last.Open &&
		lowerWick > body {
		return &FibSignal{Direction: Call, ExpirySeconds: expirySeconds, Level: fib62}, nil
	}

	if !trendUp &&
		last.High >= fib62 && fib62 >= prev.Low &&
		last.Close < last.Open &&
		upperWick > body {
		return &FibSignal{Direction: Put, ExpirySeconds: expirySeconds, Level: fib62}, nil
	}

	return nil, nil
}
