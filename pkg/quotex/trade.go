package quotex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veiloq/quotex-connector/pkg/logging"
)

// Buy places a market order and waits for the broker's confirmation.
// The wait is bounded by the order duration itself; a raised websocket
// error flag short-circuits it immediately. The boolean mirrors whether
// the order was accepted; the confirmation is nil otherwise.
func (c *Client) Buy(ctx context.Context, amount float64, asset string, direction Direction, duration int, timeMode string) (bool, *OrderConfirmation, error) {
	if !c.ws.IsConnected() {
		return false, nil, ErrNotConnected
	}
	c.store.clearBuyConfirmation()

	req := OrderRequest{
		Amount:     amount,
		Asset:      asset,
		Direction:  direction,
		Duration:   duration,
		RequestID:  uuid.NewString(),
		FastOption: strings.ToUpper(timeMode) == "TIME",
	}

	c.StartCandlesStream(asset, int64(duration))
	if err := c.sendOrderOpen(req); err != nil {
		return false, nil, fmt.Errorf("order send failed: %w", err)
	}

	c.logger.Info("order placed",
		logging.String("asset", asset),
		logging.String("direction", string(direction)),
		logging.Float64("amount", amount),
		logging.Int("duration", duration),
	)

	conf, err := c.awaitConfirmation(ctx, time.Duration(duration)*time.Second,
		c.store.getBuyConfirmation)
	if err != nil {
		return false, nil, err
	}
	return true, conf, nil
}

// OpenPending schedules an order to open at the next aligned candle
// boundary, or at the requested "HH:MM" wall-clock time in the
// account's timezone. On acceptance the broker-side follow is armed so
// the order fires server-side.
func (c *Client) OpenPending(ctx context.Context, amount float64, asset string, direction Direction, duration int, openTime string) (bool, *OrderConfirmation, error) {
	if !c.ws.IsConnected() {
		return false, nil, ErrNotConnected
	}
	profile, err := c.GetProfile(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to resolve account offset: %w", err)
	}

	openTS, err := NextTimeframe(Timestamp(), profile.Offset, int64(duration), openTime)
	if err != nil {
		return false, nil, err
	}

	c.store.clearPendingConfirmation()
	req := OrderRequest{
		Amount:    amount,
		Asset:     asset,
		Direction: direction,
		Duration:  duration,
		RequestID: uuid.NewString(),
		OpenTime:  openTS,
	}
	if err := c.sendPendingCreate(req); err != nil {
		return false, nil, fmt.Errorf("pending order send failed: %w", err)
	}

	conf, err := c.awaitConfirmation(ctx, time.Duration(duration)*time.Second,
		c.store.getPendingConfirmation)
	if err != nil {
		return false, nil, err
	}

	if err := c.sendPendingFollow(req); err != nil {
		c.logger.Warn("pending follow failed", logging.Error(err))
	}
	return true, conf, nil
}

// awaitConfirmation blocks until the slot fills, the websocket error
// flag rises, the bound elapses or the context is cancelled.
func (c *Client) awaitConfirmation(ctx context.Context, bound time.Duration, slot func() *OrderConfirmation) (*OrderConfirmation, error) {
	waitCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	err := waitFor(waitCtx, c.store.notify, func() bool {
		if slot() != nil {
			return true
		}
		failed, _ := c.state.WSError()
		return failed
	})

	if failed, reason := c.state.WSError(); failed {
		return nil, fmt.Errorf("websocket error during order: %s", reason)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrBuyTimeout
		}
		return nil, err
	}
	return slot(), nil
}

// SellOption asks the broker to close open orders early and waits for
// the sold acknowledgement. The wait is unbounded; bound it with the
// context.
func (c *Client) SellOption(ctx context.Context, optionIDs []string) (json.RawMessage, error) {
	c.store.clearSoldResponse()
	if err := c.sendOrderSell(optionIDs); err != nil {
		return nil, fmt.Errorf("sell send failed: %w", err)
	}

	err := waitFor(ctx, c.store.notify, func() bool {
		return c.store.getSoldResponse() != nil
	})
	if err != nil {
		return nil, err
	}
	return c.store.getSoldResponse(), nil
}

// CheckWin waits for the settlement of an order and returns its
// outcome. The settlement entry is consumed: a second call for the same
// id blocks until the broker pushes it again. The wait is unbounded;
// bound it with the context.
func (c *Client) CheckWin(ctx context.Context, id string) (TradeOutcome, error) {
	countdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if expiry := c.expiryFor(id); expiry > 0 {
		go c.settlementCountdown(countdownCtx, expiry)
	}

	err := waitFor(ctx, c.store.notify, func() bool {
		o, ok := c.store.getSettlement(id)
		return ok && o.Settled()
	})
	if err != nil {
		return TradeOutcome{}, err
	}

	outcome, _ := c.store.getSettlement(id)
	c.store.deleteSettlement(id)
	return outcome, nil
}

// expiryFor resolves the expected expiration of an open order from its
// confirmation, when one is still held for that id.
func (c *Client) expiryFor(id string) int64 {
	for _, conf := range []*OrderConfirmation{
		c.store.getBuyConfirmation(),
		c.store.getPendingConfirmation(),
	} {
		if conf != nil && conf.ID == id {
			return conf.CloseTimestamp
		}
	}
	return 0
}

// settlementCountdown logs the seconds remaining until the order's
// expected expiration. Cancelled as soon as the settlement lands.
func (c *Client) settlementCountdown(ctx context.Context, expiry int64) {
	remaining := expiry - time.Now().Unix()
	if remaining <= 0 {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				c.logger.Debug("awaiting settlement",
					logging.Int64("seconds_left", remaining))
			}
		}
	}
}
