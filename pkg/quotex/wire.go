package quotex

import (
	"encoding/json"

	"github.com/veiloq/quotex-connector/pkg/candles"
	"github.com/veiloq/quotex-connector/pkg/logging"
)

// Outbound event names understood by the broker.
const (
	evAuthorization       = "authorization"
	evInstrumentsUpdate   = "instruments/update"
	evDepthFollow         = "depth/follow"
	evDepthUnfollow       = "depth/unfollow"
	evChartNotification   = "chart_notification/get"
	evCandlesSubscribe    = "candles/subscribe"
	evCandlesUnsubscribe  = "candles/unsubscribe"
	evCandlesSubscribeAll = "candles/subscribe-all"
	evMoodSubscribe       = "mood/subscribe"
	evOrdersOpen          = "orders/open"
	evOrdersSell          = "orders/sell"
	evPendingCreate       = "pending/create"
	evPendingFollow       = "pending/follow"
	evSettingsStore       = "settings/store"
	evHistoryLoad         = "history/load"
	evHistoryLineLoad     = "history/load/line"
	evAccountChange       = "account/change"
	evTrainingEdit        = "training_balance/edit"
)

// Inbound event names pushed by the broker.
const (
	evAccepted        = "authorization/accepted"
	evInstrumentsList = "instruments/list"
	evHistoryList     = "history/list"
	evHistoryLineList = "history/list/line"
	evTick            = "tick"
	evCandleGenerated = "candles/generated"
	evCandleAll       = "candles/generated-all"
	evMoodChanged     = "mood/changed"
	evOrdersOpened    = "orders/opened"
	evPendingOK       = "pending/successful"
	evOrdersClosed    = "orders/closed"
	evBalanceChanged  = "balance/changed"
	evSettingsList    = "settings/list"
	evTrainingEdited  = "training_balance/edited"
	evSold            = "sold"
	evSignalsList     = "signals/list"
)

// registerHandlers wires every inbound broker event into the market
// store. Handlers run on the transport's read goroutine, so they only
// decode and store; all waiting happens on the caller side through the
// store's notifier.
func (c *Client) registerHandlers() {
	c.ws.On(evAccepted, c.handleAccepted)
	c.ws.On(evInstrumentsList, c.handleInstruments)
	c.ws.On(evHistoryList, c.handleHistory)
	c.ws.On(evHistoryLineList, c.handleHistoryLine)
	c.ws.On(evTick, c.handleTick)
	c.ws.On(evCandleGenerated, c.handleCandleGenerated)
	c.ws.On(evCandleAll, c.handleCandleGeneratedAll)
	c.ws.On(evMoodChanged, c.handleMood)
	c.ws.On(evOrdersOpened, c.handleOrderOpened)
	c.ws.On(evPendingOK, c.handlePendingSuccessful)
	c.ws.On(evOrdersClosed, c.handleOrderClosed)
	c.ws.On(evBalanceChanged, c.handleBalance)
	c.ws.On(evSettingsList, c.handleSettings)
	c.ws.On(evTrainingEdited, c.handleTrainingEdited)
	c.ws.On(evSold, c.handleSold)
	c.ws.On(evSignalsList, c.handleSignals)
}

func (c *Client) handleAccepted(payload json.RawMessage) {
	var body struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad authorization payload", logging.Error(err))
	}
	if body.ServerTime > 0 {
		c.state.SetServerTime(body.ServerTime)
	}
	c.state.SetAccepted(true)
	c.state.ClearWSError()
	c.logger.Info("authorization accepted")
	c.store.notify.broadcast()
}

func (c *Client) handleInstruments(payload json.RawMessage) {
	var list []Instrument
	if err := json.Unmarshal(payload, &list); err != nil {
		c.logger.Warn("bad instruments payload", logging.Error(err))
		return
	}
	c.store.setInstruments(list)
	c.logger.Debug("instruments snapshot received", logging.Int("count", len(list)))
}

func (c *Client) handleHistory(payload json.RawMessage) {
	var body struct {
		Asset   string       `json:"asset"`
		History [][2]float64 `json:"history"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad history payload", logging.Error(err))
		return
	}
	points := make([]candles.PricePoint, 0, len(body.History))
	for _, pair := range body.History {
		points = append(points, candles.PricePoint{
			Time:  int64(pair[0]),
			Price: pair[1],
		})
	}
	c.store.setHistory(body.Asset, points)
}

// handleHistoryLine keeps the payload opaque; callers of GetHistoryLine
// get the broker's answer untouched.
func (c *Client) handleHistoryLine(payload json.RawMessage) {
	c.store.setHistoryLine(append(json.RawMessage(nil), payload...))
}

// handleTick decodes the positional [asset, timestamp, price] tick
// frame.
func (c *Client) handleTick(payload json.RawMessage) {
	var parts []json.RawMessage
	if err := json.Unmarshal(payload, &parts); err != nil || len(parts) < 3 {
		c.logger.Warn("bad tick payload", logging.Error(err))
		return
	}
	var (
		asset     string
		ts, price float64
	)
	if err := json.Unmarshal(parts[0], &asset); err != nil {
		return
	}
	if err := json.Unmarshal(parts[1], &ts); err != nil {
		return
	}
	if err := json.Unmarshal(parts[2], &price); err != nil {
		return
	}
	c.store.applyTick(asset, candles.PricePoint{Time: int64(ts), Price: price})
}

func (c *Client) handleCandleGenerated(payload json.RawMessage) {
	var body struct {
		Asset  string  `json:"asset"`
		Period int64   `json:"period"`
		Time   int64   `json:"time"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
		Closed bool    `json:"closed"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad candle payload", logging.Error(err))
		return
	}
	c.store.applyCandle(body.Asset, body.Period, candles.Candle{
		Time:   body.Time,
		Open:   body.Open,
		High:   body.High,
		Low:    body.Low,
		Close:  body.Close,
		Volume: body.Volume,
		Closed: body.Closed,
	})
}

func (c *Client) handleCandleGeneratedAll(payload json.RawMessage) {
	var body struct {
		Asset string `json:"asset"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad candle-all payload", logging.Error(err))
		return
	}
	c.store.setGeneratedAll(body.Asset)
}

func (c *Client) handleMood(payload json.RawMessage) {
	var body struct {
		Asset string `json:"asset"`
		Buy   int    `json:"buy"`
		Sell  int    `json:"sell"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad mood payload", logging.Error(err))
		return
	}
	c.store.setSentiment(body.Asset, Sentiment{Buy: body.Buy, Sell: body.Sell})
}

func (c *Client) handleOrderOpened(payload json.RawMessage) {
	var conf OrderConfirmation
	if err := json.Unmarshal(payload, &conf); err != nil {
		c.logger.Warn("bad order confirmation payload", logging.Error(err))
		return
	}
	conf.Raw = append(json.RawMessage(nil), payload...)
	c.store.setBuyConfirmation(conf)
	c.logger.Info("order opened", logging.String("id", conf.ID))
}

func (c *Client) handlePendingSuccessful(payload json.RawMessage) {
	var conf OrderConfirmation
	if err := json.Unmarshal(payload, &conf); err != nil {
		c.logger.Warn("bad pending confirmation payload", logging.Error(err))
		return
	}
	conf.Raw = append(json.RawMessage(nil), payload...)
	c.store.setPendingConfirmation(conf)
	c.logger.Info("pending order accepted", logging.String("id", conf.ID))
}

func (c *Client) handleOrderClosed(payload json.RawMessage) {
	var outcome TradeOutcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		c.logger.Warn("bad settlement payload", logging.Error(err))
		return
	}
	outcome.Raw = append(json.RawMessage(nil), payload...)
	c.store.setSettlement(outcome)
	c.logger.Info("order closed",
		logging.String("id", outcome.ID),
		logging.String("result", outcome.Result),
	)
}

func (c *Client) handleBalance(payload json.RawMessage) {
	var body struct {
		Demo   float64 `json:"demoBalance"`
		Live   float64 `json:"liveBalance"`
		Profit float64 `json:"profitInOperation"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		c.logger.Warn("bad balance payload", logging.Error(err))
		return
	}
	c.store.setBalance(Balance{Demo: body.Demo, Live: body.Live})
	c.store.setProfit(body.Profit)
}

func (c *Client) handleSettings(payload json.RawMessage) {
	c.store.setSettings(append(json.RawMessage(nil), payload...))
}

func (c *Client) handleTrainingEdited(payload json.RawMessage) {
	c.store.setTrainingBalance(append(json.RawMessage(nil), payload...))
}

func (c *Client) handleSold(payload json.RawMessage) {
	c.store.setSoldResponse(append(json.RawMessage(nil), payload...))
}

func (c *Client) handleSignals(payload json.RawMessage) {
	c.store.setSignals(append(json.RawMessage(nil), payload...))
}

// --- outbound senders ---

func (c *Client) sendAuthorization() error {
	isDemo := 0
	if c.isDemo() {
		isDemo = 1
	}
	return c.ws.SendEvent(evAuthorization, map[string]interface{}{
		"session":      c.state.SSID(),
		"isDemo":       isDemo,
		"tournamentId": 0,
	})
}

func (c *Client) sendInstrumentsSubscribe(asset string, period int64) error {
	return c.ws.SendEvent(evInstrumentsUpdate, map[string]interface{}{
		"asset":  asset,
		"period": period,
	})
}

func (c *Client) sendDepthFollow(asset string) error {
	return c.ws.SendEvent(evDepthFollow, asset)
}

func (c *Client) sendDepthUnfollow(asset string) error {
	return c.ws.SendEvent(evDepthUnfollow, asset)
}

func (c *Client) sendChartNotification(asset string) error {
	return c.ws.SendEvent(evChartNotification, map[string]interface{}{
		"asset":   asset,
		"version": "1.0.0",
	})
}

func (c *Client) sendCandlesSubscribe(asset string, period int64) error {
	return c.ws.SendEvent(evCandlesSubscribe, map[string]interface{}{
		"asset":  asset,
		"period": period,
	})
}

func (c *Client) sendCandlesUnsubscribe(asset string) error {
	return c.ws.SendEvent(evCandlesUnsubscribe, map[string]interface{}{
		"asset": asset,
	})
}

func (c *Client) sendCandlesSubscribeAll(asset string) error {
	return c.ws.SendEvent(evCandlesSubscribeAll, map[string]interface{}{
		"asset": asset,
	})
}

func (c *Client) sendMoodSubscribe(asset string) error {
	return c.ws.SendEvent(evMoodSubscribe, map[string]interface{}{
		"asset": asset,
	})
}

func (c *Client) sendOrderOpen(req OrderRequest) error {
	return c.ws.SendEvent(evOrdersOpen, req)
}

func (c *Client) sendOrderSell(ids []string) error {
	return c.ws.SendEvent(evOrdersSell, map[string]interface{}{
		"ticket": ids,
	})
}

func (c *Client) sendPendingCreate(req OrderRequest) error {
	return c.ws.SendEvent(evPendingCreate, map[string]interface{}{
		"openType":       0,
		"amount":         req.Amount,
		"asset":          req.Asset,
		"command":        req.Direction,
		"timeframe":      req.Duration,
		"openTimestamp":  req.OpenTime,
		"optionType":     100,
		"openPrice":      0,
		"positionsCount": 1,
	})
}

func (c *Client) sendPendingFollow(req OrderRequest) error {
	return c.ws.SendEvent(evPendingFollow, map[string]interface{}{
		"amount":        req.Amount,
		"asset":         req.Asset,
		"command":       req.Direction,
		"timeframe":     req.Duration,
		"openTimestamp": req.OpenTime,
	})
}

func (c *Client) sendSettingsStore(settings map[string]interface{}) error {
	return c.ws.SendEvent(evSettingsStore, settings)
}

func (c *Client) sendHistoryLineLoad(code int, index, endTime, offset int64) error {
	return c.ws.SendEvent(evHistoryLineLoad, map[string]interface{}{
		"id":     code,
		"index":  index,
		"time":   endTime,
		"offset": offset,
	})
}

func (c *Client) sendHistoryLoad(asset string, index, endTime, offset, period int64) error {
	return c.ws.SendEvent(evHistoryLoad, map[string]interface{}{
		"asset":  asset,
		"index":  index,
		"time":   endTime,
		"offset": offset,
		"period": period,
	})
}

func (c *Client) sendAccountChange(demo bool) error {
	isDemo := 0
	if demo {
		isDemo = 1
	}
	return c.ws.SendEvent(evAccountChange, map[string]interface{}{
		"demo":         isDemo,
		"tournamentId": 0,
	})
}

func (c *Client) sendTrainingBalanceEdit(amount float64) error {
	return c.ws.SendEvent(evTrainingEdit, map[string]interface{}{
		"balance": amount,
	})
}
