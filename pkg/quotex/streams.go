package quotex

import (
	"context"
	"fmt"
	"time"

	"github.com/veiloq/quotex-connector/pkg/logging"
)

// StartCandlesStream opens the three server-side feeds backing one
// (asset, period) chart: the candle subscription, the chart
// notification channel and the tick follow. Send errors are logged and
// swallowed; data-plane getters surface missing data instead.
func (c *Client) StartCandlesStream(asset string, period int64) {
	c.store.ensureBook(asset, period)

	if err := c.sendCandlesSubscribe(asset, period); err != nil {
		c.logger.Warn("candles subscribe failed",
			logging.String("asset", asset), logging.Error(err))
	}
	if err := c.sendChartNotification(asset); err != nil {
		c.logger.Warn("chart notification failed",
			logging.String("asset", asset), logging.Error(err))
	}
	if err := c.sendDepthFollow(asset); err != nil {
		c.logger.Warn("depth follow failed",
			logging.String("asset", asset), logging.Error(err))
	}
}

// StopCandlesStream unsubscribes the asset's candle and tick feeds.
// The reconnect replay lists keep their entries, so a stopped stream is
// resurrected by the next reconnect; callers that care must stop it
// again.
func (c *Client) StopCandlesStream(asset string) {
	if err := c.sendCandlesUnsubscribe(asset); err != nil {
		c.logger.Warn("candles unsubscribe failed",
			logging.String("asset", asset), logging.Error(err))
	}
	if err := c.sendDepthUnfollow(asset); err != nil {
		c.logger.Warn("depth unfollow failed",
			logging.String("asset", asset), logging.Error(err))
	}
}

// StartCandlesOneStream subscribes one (asset, period) candle feed and
// waits for the first generated candle, re-sending the follow and
// forcing a reconnect while nothing arrives. It gives up after the
// stall window.
func (c *Client) StartCandlesOneStream(ctx context.Context, asset string, period int64) error {
	c.subMu.Lock()
	if !c.hasCandleSub(asset, period) {
		c.subCandle = append(c.subCandle, candleSub{Asset: asset, Period: period})
	}
	c.subMu.Unlock()

	c.store.resetGenerated(asset, period)
	c.store.ensureBook(asset, period)

	deadline := time.Now().Add(20 * time.Second)
	for {
		if time.Now().After(deadline) {
			c.logger.Error("candle stream did not start in time",
				logging.String("asset", asset), logging.Int64("period", period))
			return fmt.Errorf("%w: %s/%d", ErrStreamStallTimeout, asset, period)
		}
		if c.store.isGenerated(asset, period) {
			return nil
		}

		if err := c.sendCandlesSubscribe(asset, period); err != nil {
			c.logger.Error("candle stream send failed, reconnecting", logging.Error(err))
			if err := c.Connect(ctx); err != nil {
				return err
			}
		}

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		_ = waitFor(waitCtx, c.store.notify, func() bool {
			return c.store.isGenerated(asset, period)
		})
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// StartCandlesAllSizeStream subscribes the all-periods candle feed for
// an asset with the same stall watchdog as StartCandlesOneStream.
func (c *Client) StartCandlesAllSizeStream(ctx context.Context, asset string) error {
	c.subMu.Lock()
	if !c.hasCandleAllSub(asset) {
		c.subCandleAll = append(c.subCandleAll, asset)
	}
	c.subMu.Unlock()

	c.store.resetGeneratedAll(asset)

	deadline := time.Now().Add(20 * time.Second)
	for {
		if time.Now().After(deadline) {
			c.logger.Error("all-size candle stream did not start in time",
				logging.String("asset", asset))
			return fmt.Errorf("%w: %s", ErrStreamStallTimeout, asset)
		}
		if c.store.isGeneratedAll(asset) {
			return nil
		}

		if err := c.sendCandlesSubscribeAll(asset); err != nil {
			c.logger.Error("all-size stream send failed, reconnecting", logging.Error(err))
			if err := c.Connect(ctx); err != nil {
				return err
			}
		}

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		_ = waitFor(waitCtx, c.store.notify, func() bool {
			return c.store.isGeneratedAll(asset)
		})
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// StartMoodStream subscribes the traders mood feed for an asset.
func (c *Client) StartMoodStream(asset string) {
	c.subMu.Lock()
	if !c.hasMoodSub(asset) {
		c.subMood = append(c.subMood, asset)
	}
	c.subMu.Unlock()

	if err := c.sendMoodSubscribe(asset); err != nil {
		c.logger.Warn("mood subscribe failed",
			logging.String("asset", asset), logging.Error(err))
	}
}

// resubscribeStreams replays every subscription recorded since the
// process started. Runs after each reconnect.
func (c *Client) resubscribeStreams() {
	c.subMu.Lock()
	candleSubs := append([]candleSub(nil), c.subCandle...)
	allSubs := append([]string(nil), c.subCandleAll...)
	moodSubs := append([]string(nil), c.subMood...)
	c.subMu.Unlock()

	for _, sub := range candleSubs {
		if err := c.sendCandlesSubscribe(sub.Asset, sub.Period); err != nil {
			c.logger.Warn("candle resubscribe failed",
				logging.String("asset", sub.Asset), logging.Error(err))
		}
		if err := c.sendDepthFollow(sub.Asset); err != nil {
			c.logger.Warn("depth refollow failed",
				logging.String("asset", sub.Asset), logging.Error(err))
		}
	}
	for _, asset := range allSubs {
		if err := c.sendCandlesSubscribeAll(asset); err != nil {
			c.logger.Warn("all-size resubscribe failed",
				logging.String("asset", asset), logging.Error(err))
		}
	}
	for _, asset := range moodSubs {
		if err := c.sendMoodSubscribe(asset); err != nil {
			c.logger.Warn("mood resubscribe failed",
				logging.String("asset", asset), logging.Error(err))
		}
	}

	if n := len(candleSubs) + len(allSubs) + len(moodSubs); n > 0 {
		c.logger.Info("subscriptions replayed", logging.Int("count", n))
	}
}

func (c *Client) hasCandleSub(asset string, period int64) bool {
	for _, s := range c.subCandle {
		if s.Asset == asset && s.Period == period {
			return true
		}
	}
	return false
}

func (c *Client) hasCandleAllSub(asset string) bool {
	for _, a := range c.subCandleAll {
		if a == asset {
			return true
		}
	}
	return false
}

func (c *Client) hasMoodSub(asset string) bool {
	for _, a := range c.subMood {
		if a == asset {
			return true
		}
	}
	return false
}

// candleSubscriptions returns a copy of the candle replay list.
func (c *Client) candleSubscriptions() []candleSub {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return append([]candleSub(nil), c.subCandle...)
}
