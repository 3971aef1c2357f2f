package quotex

import (
	"context"
	"fmt"
	"time"

	"github.com/veiloq/quotex-connector/pkg/indicators"
	"github.com/veiloq/quotex-connector/pkg/logging"
)

// Indicator identifies one supported technical indicator.
type Indicator string

const (
	IndicatorRSI        Indicator = "RSI"
	IndicatorMACD       Indicator = "MACD"
	IndicatorSMA        Indicator = "SMA"
	IndicatorEMA        Indicator = "EMA"
	IndicatorBollinger  Indicator = "BOLLINGER"
	IndicatorStochastic Indicator = "STOCHASTIC"
	IndicatorATR        Indicator = "ATR"
	IndicatorADX        Indicator = "ADX"
	IndicatorIchimoku   Indicator = "ICHIMOKU"
)

// validTimeframes are the chart periods the broker serves.
var validTimeframes = map[int64]bool{
	60: true, 300: true, 900: true, 1800: true,
	3600: true, 7200: true, 14400: true, 86400: true,
}

// minSamples is the minimum candle count each indicator needs before
// its output is meaningful; the subscription loop backfills from
// history until the live book reaches it.
var minSamples = map[Indicator]int{
	IndicatorRSI:        14,
	IndicatorMACD:       26,
	IndicatorBollinger:  20,
	IndicatorStochastic: 14,
	IndicatorADX:        14,
	IndicatorATR:        14,
	IndicatorSMA:        20,
	IndicatorEMA:        20,
	IndicatorIchimoku:   52,
}

// IndicatorParams tunes an indicator. Zero fields fall back to the
// conventional defaults for the chosen kind.
type IndicatorParams struct {
	// Period applies to RSI, SMA, EMA, Bollinger, ATR and ADX.
	Period int

	// StdDev is the Bollinger band width in standard deviations.
	StdDev float64

	// MACD periods.
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int

	// Stochastic periods.
	KPeriod int
	DPeriod int

	// Ichimoku periods.
	TenkanPeriod  int
	KijunPeriod   int
	SenkouBPeriod int
}

// withDefaults fills zero fields with the conventional defaults of the
// indicator kind.
func (p IndicatorParams) withDefaults(kind Indicator) IndicatorParams {
	if p.Period == 0 {
		switch kind {
		case IndicatorSMA, IndicatorEMA, IndicatorBollinger:
			p.Period = 20
		default:
			p.Period = 14
		}
	}
	if p.StdDev == 0 {
		p.StdDev = 2
	}
	if p.FastPeriod == 0 {
		p.FastPeriod = 12
	}
	if p.SlowPeriod == 0 {
		p.SlowPeriod = 26
	}
	if p.SignalPeriod == 0 {
		p.SignalPeriod = 9
	}
	if p.KPeriod == 0 {
		p.KPeriod = 14
	}
	if p.DPeriod == 0 {
		p.DPeriod = 3
	}
	if p.TenkanPeriod == 0 {
		p.TenkanPeriod = 9
	}
	if p.KijunPeriod == 0 {
		p.KijunPeriod = 26
	}
	if p.SenkouBPeriod == 0 {
		p.SenkouBPeriod = 52
	}
	return p
}

// IndicatorResult holds one indicator evaluation. Values carries the
// primary series for single-line indicators; the multi-line kinds fill
// their dedicated field instead. Timestamps is right-aligned with the
// primary series: the i-th timestamp belongs to the i-th value.
type IndicatorResult struct {
	Indicator  Indicator
	Timeframe  int64
	Current    float64
	Values     []float64
	Timestamps []int64

	MACD       *indicators.MACDResult
	Bollinger  *indicators.BollingerResult
	Stochastic *indicators.StochasticResult
	ADX        *indicators.ADXResult
	Ichimoku   *indicators.IchimokuResult
}

// IndicatorUpdate is one push from SubscribeIndicator.
type IndicatorUpdate struct {
	Asset  string
	Time   int64
	Result *IndicatorResult
}

// IndicatorCallback receives subscription updates.
type IndicatorCallback func(IndicatorUpdate)

// CalculateIndicator evaluates an indicator over the asset's history.
// The timeframe must be one of the broker's chart periods; historySize
// is widened to at least 50 candles of the timeframe. Validation
// happens before any data is fetched.
func (c *Client) CalculateIndicator(ctx context.Context, asset string, kind Indicator, params IndicatorParams, historySize, timeframe int64) (*IndicatorResult, error) {
	if !validTimeframes[timeframe] {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeframe, timeframe)
	}
	if _, ok := minSamples[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, kind)
	}

	adjusted := historySize
	if floor := timeframe * 50; adjusted < floor {
		adjusted = floor
	}

	series, err := c.GetCandles(ctx, asset, c.state.ServerTime(), adjusted, timeframe)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, NewMarketError(asset, "no candle data available", nil)
	}

	return evaluateIndicator(kind, params, timeframe, series)
}

// evaluateIndicator runs the math over an already-fetched series.
func evaluateIndicator(kind Indicator, params IndicatorParams, timeframe int64, series []Candle) (*IndicatorResult, error) {
	params = params.withDefaults(kind)

	closes := make([]float64, len(series))
	highs := make([]float64, len(series))
	lows := make([]float64, len(series))
	timestamps := make([]int64, len(series))
	for i, candle := range series {
		closes[i] = candle.Close
		highs[i] = candle.High
		lows[i] = candle.Low
		timestamps[i] = candle.Time
	}

	res := &IndicatorResult{Indicator: kind, Timeframe: timeframe}

	switch kind {
	case IndicatorRSI:
		res.Values = indicators.RSI(closes, params.Period)
	case IndicatorSMA:
		res.Values = indicators.SMA(closes, params.Period)
	case IndicatorEMA:
		res.Values = indicators.EMA(closes, params.Period)
	case IndicatorATR:
		res.Values = indicators.ATR(highs, lows, closes, params.Period)
	case IndicatorMACD:
		v := indicators.MACD(closes, params.FastPeriod, params.SlowPeriod, params.SignalPeriod)
		res.MACD = &v
		res.Current = v.Current
		res.Timestamps = alignTimestamps(timestamps, len(v.MACD))
		return res, nil
	case IndicatorBollinger:
		v := indicators.Bollinger(closes, params.Period, params.StdDev)
		res.Bollinger = &v
		res.Current = v.Current
		res.Timestamps = alignTimestamps(timestamps, len(v.Middle))
		return res, nil
	case IndicatorStochastic:
		v := indicators.Stochastic(closes, highs, lows, params.KPeriod, params.DPeriod)
		res.Stochastic = &v
		res.Current = v.Current
		res.Timestamps = alignTimestamps(timestamps, len(v.K))
		return res, nil
	case IndicatorADX:
		v := indicators.ADX(highs, lows, closes, params.Period)
		res.ADX = &v
		res.Current = v.Current
		res.Timestamps = alignTimestamps(timestamps, len(v.ADX))
		return res, nil
	case IndicatorIchimoku:
		v := indicators.Ichimoku(highs, lows, params.TenkanPeriod, params.KijunPeriod, params.SenkouBPeriod)
		res.Ichimoku = &v
		res.Current = v.Current
		res.Timestamps = alignTimestamps(timestamps, len(v.Tenkan))
		return res, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownIndicator, kind)
	}

	if len(res.Values) > 0 {
		res.Current = res.Values[len(res.Values)-1]
	}
	res.Timestamps = alignTimestamps(timestamps, len(res.Values))
	return res, nil
}

// alignTimestamps keeps the newest n timestamps so each indicator value
// pairs with the candle it was computed at.
func alignTimestamps(timestamps []int64, n int) []int64 {
	if n <= 0 || n > len(timestamps) {
		if n <= 0 {
			return nil
		}
		return timestamps
	}
	return timestamps[len(timestamps)-n:]
}

// SubscribeIndicator evaluates an indicator once per second over the
// live candle stream and pushes each result to the callback, until the
// context is cancelled. The live book is backfilled from history while
// it holds fewer candles than the indicator needs. Per-iteration
// failures are logged and retried after a second.
func (c *Client) SubscribeIndicator(ctx context.Context, asset string, kind Indicator, params IndicatorParams, timeframe int64, callback IndicatorCallback) error {
	if callback == nil {
		return ErrMissingCallback
	}
	if !validTimeframes[timeframe] {
		return fmt.Errorf("%w: %d", ErrInvalidTimeframe, timeframe)
	}
	required, ok := minSamples[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIndicator, kind)
	}

	c.StartCandlesStream(asset, timeframe)
	defer c.StopCandlesStream(asset)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		series := c.store.liveSeries(asset, timeframe)
		if len(series) == 0 {
			continue
		}

		if len(series) < required {
			backfill, err := c.GetCandles(ctx, asset, c.state.ServerTime(),
				timeframe*int64(required)*2, timeframe)
			if err != nil {
				c.logger.Warn("indicator backfill failed",
					logging.String("asset", asset), logging.Error(err))
				continue
			}
			series = backfill
		}

		result, err := evaluateIndicator(kind, params, timeframe, series)
		if err != nil {
			c.logger.Warn("indicator evaluation failed",
				logging.String("asset", asset), logging.Error(err))
			continue
		}

		callback(IndicatorUpdate{
			Asset:  asset,
			Time:   series[len(series)-1].Time,
			Result: result,
		})
	}
}
