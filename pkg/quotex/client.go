// Package quotex implements the trading client for the Quotex broker:
// session authorization, market data subscriptions, order lifecycle and
// the indicator facade, all over a single socket.io style WebSocket
// plus a handful of REST endpoints.
package quotex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/veiloq/quotex-connector/pkg/candles"
	"github.com/veiloq/quotex-connector/pkg/common"
	"github.com/veiloq/quotex-connector/pkg/logging"
	"github.com/veiloq/quotex-connector/pkg/ratelimit"
	"github.com/veiloq/quotex-connector/pkg/session"
	"github.com/veiloq/quotex-connector/pkg/websocket"
)

// AccountMode selects which balance trades draw from.
const (
	ModePractice = "PRACTICE"
	ModeReal     = "REAL"
)

type candleSub struct {
	Asset  string
	Period int64
}

// Client is the high level broker client. All blocking getters wait on
// pushed data and honor context cancellation; none of them poll.
type Client struct {
	opts   *session.Options
	sess   session.Session
	logger logging.Logger

	ws   websocket.WSConnector
	http common.HTTPClient

	state *ConnState
	store *marketStore

	demo   bool
	demoMu sync.RWMutex

	// Replay lists for reconnect. Entries are appended on stream start
	// and deliberately kept on stream stop, so a stopped stream comes
	// back after a reconnect until the process restarts.
	subMu        sync.Mutex
	subCandle    []candleSub
	subCandleAll []string
	subMood      []string

	codesMu    sync.RWMutex
	codesAsset map[string]int

	tradeLog *TradeLog
}

// NewClient builds a client from options, loading any persisted session
// from disk. It does not touch the network; call Connect.
func NewClient(opts *session.Options, logger logging.Logger) (*Client, error) {
	if opts == nil {
		opts = session.NewOptions()
	}
	if logger == nil {
		logger = logging.NewLogger()
	}

	sess, err := session.Load(opts.SessionPath(), opts.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	c := &Client{
		opts:       opts,
		sess:       sess,
		logger:     logger,
		state:      NewConnState(),
		store:      newMarketStore(),
		demo:       opts.Demo,
		codesAsset: make(map[string]int),
		tradeLog:   NewTradeLog(opts.RootPath, logger),
	}

	c.ws = websocket.NewConnector(websocket.Config{
		URL:               opts.WSURL,
		Origin:            opts.HTTPURL,
		UserAgent:         sess.UserAgent,
		HeartbeatInterval: opts.WSHeartbeatInterval,
		ReconnectInterval: opts.WSReconnectInterval,
		MaxRetries:        opts.MaxReconnectRetries,
		SendRate:          ratelimit.Rate{Limit: 20, Interval: time.Second},
		Logger:            logger,
	})

	httpConfig := &common.ClientConfig{
		BaseURL: opts.HTTPURL,
		Timeout: opts.HTTPTimeout,
		RateLimit: ratelimit.Rate{
			Limit:    5,
			Interval: time.Second,
		},
		Headers: map[string]string{
			"User-Agent": sess.UserAgent,
			"Cookie":     sess.Cookies,
			"Referer":    opts.HTTPURL + "/" + opts.Lang + "/trade",
		},
		MaxRetries: 3,
		RetryDelay: time.Second,
		Logger:     logger,
	}
	if opts.Debug {
		c.http = common.NewDebugHTTPClient(&common.DebugClientConfig{
			ClientConfig:    httpConfig,
			LogRequestBody:  true,
			LogResponseBody: true,
			MaxBodyLogSize:  4096,
		})
	} else {
		c.http = common.NewHTTPClient(httpConfig)
	}

	c.bindTransport()

	return c, nil
}

// bindTransport registers the event handlers and connection callbacks
// on the current transport.
func (c *Client) bindTransport() {
	c.registerHandlers()
	c.ws.OnError(func(err error) {
		c.state.SetAccepted(false)
		c.state.SetWSError(err.Error())
		c.logger.Error("websocket error", logging.Error(err))
		c.store.notify.broadcast()
	})
	c.ws.OnReconnect(func() {
		go c.afterConnect()
	})
}

// afterConnect re-authorizes and replays subscriptions after every
// successful (re)connection.
func (c *Client) afterConnect() {
	c.state.SetAccepted(false)
	if err := c.sendAuthorization(); err != nil {
		c.logger.Error("authorization send failed", logging.Error(err))
		return
	}
	// Seed the default chart so the broker starts pushing ticks
	if err := c.sendInstrumentsSubscribe(c.opts.AssetDefault, int64(c.opts.PeriodDefault)); err != nil {
		c.logger.Warn("default chart subscribe failed", logging.Error(err))
	}
	c.resubscribeStreams()
}

// Connect authenticates over REST when no session token is stored yet,
// then opens the WebSocket and waits for the authorization ack.
func (c *Client) Connect(ctx context.Context) error {
	if c.sess.Token == "" {
		if err := c.authenticate(ctx); err != nil {
			return err
		}
	}
	c.state.SetSSID(c.sess.Token)
	c.state.ClearWSError()

	if err := c.ws.Connect(ctx); err != nil {
		return fmt.Errorf("websocket connect failed: %w", err)
	}

	return waitFor(ctx, c.store.notify, func() bool {
		return c.state.Accepted()
	})
}

// Reconnect forces a fresh authentication and connection cycle.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.ws.Close()
	c.sess.Token = ""
	return c.Connect(ctx)
}

// Close shuts the WebSocket down.
func (c *Client) Close() error {
	return c.ws.Close()
}

// IsConnected reports whether the transport is up and authorized.
func (c *Client) IsConnected() bool {
	return c.ws.IsConnected() && c.state.Accepted()
}

// authenticate performs the REST sign-in and persists the refreshed
// session token.
func (c *Client) authenticate(ctx context.Context) error {
	creds := session.Credentials{Email: c.opts.Email, Password: c.opts.Password}
	if creds.Email == "" || creds.Password == "" {
		var err error
		creds, err = session.CredentialsFromEnv()
		if err != nil {
			return err
		}
	}

	resp, err := c.http.Post(ctx, c.opts.HTTPURL+"/api/v1/sign-in", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("sign-in rejected with status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	if body.Data.Token == "" {
		return fmt.Errorf("sign-in response carried no token")
	}

	c.sess.Token = body.Data.Token
	if err := c.sess.Save(c.opts.SessionPath()); err != nil {
		c.logger.Warn("failed to persist session", logging.Error(err))
	}
	return nil
}

// SetAccountMode switches the local account mode without notifying the
// broker. Use ChangeAccount to switch the remote side too.
func (c *Client) SetAccountMode(mode string) error {
	switch strings.ToUpper(mode) {
	case ModePractice:
		c.demoMu.Lock()
		c.demo = true
		c.demoMu.Unlock()
	case ModeReal:
		c.demoMu.Lock()
		c.demo = false
		c.demoMu.Unlock()
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAccountMode, mode)
	}
	return nil
}

// ChangeAccount switches between the practice and live balance.
func (c *Client) ChangeAccount(mode string) error {
	if err := c.SetAccountMode(mode); err != nil {
		return err
	}
	return c.sendAccountChange(c.isDemo())
}

func (c *Client) isDemo() bool {
	c.demoMu.RLock()
	defer c.demoMu.RUnlock()
	return c.demo
}

// GetInstruments blocks until the instruments snapshot arrives.
func (c *Client) GetInstruments(ctx context.Context) ([]Instrument, error) {
	err := waitFor(ctx, c.store.notify, func() bool {
		return len(c.store.getInstruments()) > 0
	})
	if err != nil {
		return nil, err
	}
	return c.store.getInstruments(), nil
}

// GetAllAssetName returns [symbol, display name] pairs for every known
// instrument.
func (c *Client) GetAllAssetName(ctx context.Context) ([][2]string, error) {
	instruments, err := c.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([][2]string, 0, len(instruments))
	for _, i := range instruments {
		out = append(out, [2]string{i.Symbol, strings.ReplaceAll(i.Name, "\n", "")})
	}
	return out, nil
}

// GetAllAssets returns the symbol to numeric code map the pending-order
// path needs.
func (c *Client) GetAllAssets(ctx context.Context) (map[string]int, error) {
	instruments, err := c.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}
	c.codesMu.Lock()
	for _, i := range instruments {
		if i.Code != 0 {
			c.codesAsset[i.Symbol] = i.Code
		}
	}
	out := make(map[string]int, len(c.codesAsset))
	for k, v := range c.codesAsset {
		out[k] = v
	}
	c.codesMu.Unlock()
	return out, nil
}

// CheckAssetOpen looks an asset up in the instruments snapshot.
func (c *Client) CheckAssetOpen(ctx context.Context, assetName string) (Instrument, error) {
	instruments, err := c.GetInstruments(ctx)
	if err != nil {
		return Instrument{}, err
	}
	for _, i := range instruments {
		if i.Symbol == assetName {
			return i, nil
		}
	}
	return Instrument{}, fmt.Errorf("%w: %s", ErrAssetNotFound, assetName)
}

// GetAvailableAsset resolves an asset, optionally falling back to its
// OTC twin (or back from it) when the market is closed and forceOpen is
// set.
func (c *Client) GetAvailableAsset(ctx context.Context, assetName string, forceOpen bool) (string, Instrument, error) {
	inst, err := c.CheckAssetOpen(ctx, assetName)
	if err == nil && (!forceOpen || inst.Open) {
		return assetName, inst, err
	}
	if !forceOpen {
		return assetName, inst, err
	}

	alt := assetName + "_otc"
	if strings.Contains(assetName, "otc") {
		alt = strings.ReplaceAll(assetName, "_otc", "")
	}
	altInst, altErr := c.CheckAssetOpen(ctx, alt)
	if altErr != nil {
		return assetName, inst, err
	}
	return alt, altInst, nil
}

// GetCandles fetches bulk history for the asset ending at endTime,
// rebuckets it to the requested period and merges any live candles
// collected meanwhile. Live data wins the open bucket, bulk data wins
// closed buckets.
func (c *Client) GetCandles(ctx context.Context, asset string, endTime int64, offset int64, period int64) ([]Candle, error) {
	if endTime == 0 {
		endTime = c.state.ServerTime()
	}

	c.store.clearHistory(asset)
	c.StartCandlesStream(asset, period)
	if err := c.sendHistoryLoad(asset, Timestamp(), endTime, offset, period); err != nil {
		return nil, err
	}

	err := waitFor(ctx, c.store.notify, func() bool {
		_, ok := c.store.getHistory(asset)
		return ok
	})
	if err != nil {
		return nil, err
	}

	return c.prepareCandles(asset, period), nil
}

// GetHistoryLine fetches a raw chart-history slice ending at
// endFromTime. The broker addresses this endpoint by numeric instrument
// code rather than symbol, and the answer is returned untouched.
func (c *Client) GetHistoryLine(ctx context.Context, asset string, endFromTime int64, offset int64) (json.RawMessage, error) {
	if endFromTime <= 0 {
		endFromTime = Timestamp()
	}

	codes, err := c.GetAllAssets(ctx)
	if err != nil {
		return nil, err
	}
	code, ok := codes[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, asset)
	}

	c.store.clearHistoryLine()
	c.StartCandlesStream(asset, int64(c.opts.PeriodDefault))
	if err := c.sendHistoryLineLoad(code, Timestamp(), endFromTime, offset); err != nil {
		return nil, err
	}

	err = waitFor(ctx, c.store.notify, func() bool {
		return c.store.getHistoryLine() != nil
	})
	if err != nil {
		return nil, err
	}
	return c.store.getHistoryLine(), nil
}

// prepareCandles merges the bulk history with the live book for the
// (asset, period) pair.
func (c *Client) prepareCandles(asset string, period int64) []Candle {
	points, _ := c.store.getHistory(asset)
	bulk := candles.FromHistory(points, period)
	live := c.store.liveSeries(asset, period)
	return candles.Merge(bulk, live)
}

// GetCandleV2 returns the live candle series, starting the stream and
// waiting for the first candle push when none arrived yet.
func (c *Client) GetCandleV2(ctx context.Context, asset string, period int64) ([]Candle, error) {
	c.store.ensureBook(asset, period)
	c.StartCandlesStream(asset, period)

	err := waitFor(ctx, c.store.notify, func() bool {
		return len(c.store.liveSeries(asset, period)) > 0
	})
	if err != nil {
		return nil, err
	}
	return c.store.liveSeries(asset, period), nil
}

// GetRealtimeCandles starts the candle stream for the asset and returns
// the live series once the first tick arrives.
func (c *Client) GetRealtimeCandles(ctx context.Context, asset string, period int64) ([]Candle, error) {
	c.store.ensureBook(asset, period)
	c.StartCandlesStream(asset, period)

	err := waitFor(ctx, c.store.notify, func() bool {
		_, ok := c.store.getLastTick(asset)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return c.store.liveSeries(asset, period), nil
}

// StartRealtimePrice starts a candle stream and blocks until the first
// tick arrives.
func (c *Client) StartRealtimePrice(ctx context.Context, asset string, period int64) (candles.PricePoint, error) {
	c.StartCandlesStream(asset, period)
	return c.GetRealtimePrice(ctx, asset)
}

// GetRealtimePrice blocks until a tick for the asset is known and
// returns it.
func (c *Client) GetRealtimePrice(ctx context.Context, asset string) (candles.PricePoint, error) {
	err := waitFor(ctx, c.store.notify, func() bool {
		_, ok := c.store.getLastTick(asset)
		return ok
	})
	if err != nil {
		return candles.PricePoint{}, err
	}
	p, _ := c.store.getLastTick(asset)
	return p, nil
}

// StartRealtimeSentiment subscribes to the traders mood feed and blocks
// until the first reading.
func (c *Client) StartRealtimeSentiment(ctx context.Context, asset string) (Sentiment, error) {
	c.StartMoodStream(asset)
	return c.GetRealtimeSentiment(ctx, asset)
}

// GetRealtimeSentiment blocks until a sentiment reading for the asset
// is known and returns it.
func (c *Client) GetRealtimeSentiment(ctx context.Context, asset string) (Sentiment, error) {
	err := waitFor(ctx, c.store.notify, func() bool {
		_, ok := c.store.getSentiment(asset)
		return ok
	})
	if err != nil {
		return Sentiment{}, err
	}
	m, _ := c.store.getSentiment(asset)
	return m, nil
}

// GetPayment returns the payout snapshot for every instrument, keyed by
// display name.
func (c *Client) GetPayment(ctx context.Context) (map[string]Payout, error) {
	instruments, err := c.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Payout, len(instruments))
	for _, i := range instruments {
		out[strings.ReplaceAll(i.Name, "\n", "")] = Payout{
			TurboPayment: i.TurboPayment,
			Payment:      i.Payment,
			Profit:       i.Profit,
			Open:         i.Open,
		}
	}
	return out, nil
}

// GetPayoutByAsset returns the payout for one asset. The result shape
// depends on the timeframe argument: "all" yields the full
// PayoutProfile, a numeric timeframe ("1", "5") yields the single
// percentage for that tier.
func (c *Client) GetPayoutByAsset(ctx context.Context, assetName, timeframe string) (interface{}, error) {
	inst, err := c.CheckAssetOpen(ctx, assetName)
	if err != nil {
		return nil, err
	}
	if timeframe == "all" {
		return inst.Profit, nil
	}
	switch timeframe {
	case "1":
		return inst.Profit.OneMinute, nil
	case "5":
		return inst.Profit.FiveMinutes, nil
	case "24":
		return inst.Profit.Day, nil
	default:
		return nil, fmt.Errorf("%w: unknown payout timeframe %q", ErrInvalidTimeframe, timeframe)
	}
}

// GetBalance blocks until a balance push is known and returns the
// active account's balance plus any profit currently in operation,
// truncated to cents.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	err := waitFor(ctx, c.store.notify, func() bool {
		return c.store.getBalance() != nil
	})
	if err != nil {
		return 0, err
	}
	b := c.store.getBalance()
	v := b.Live
	if c.isDemo() {
		v = b.Demo
	}
	v += c.store.getProfit()
	return math.Trunc(v*100) / 100, nil
}

// EditPracticeBalance asks the broker to reset the practice balance and
// waits for the acknowledgement.
func (c *Client) EditPracticeBalance(ctx context.Context, amount float64) (json.RawMessage, error) {
	c.store.clearTrainingBalance()
	if err := c.sendTrainingBalanceEdit(amount); err != nil {
		return nil, err
	}
	err := waitFor(ctx, c.store.notify, func() bool {
		return c.store.getTrainingBalance() != nil
	})
	if err != nil {
		return nil, err
	}
	return c.store.getTrainingBalance(), nil
}

// GetProfile fetches the account digest over REST.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	resp, err := c.http.Get(ctx, c.opts.HTTPURL+"/api/v1/cabinets/digest")
	if err != nil {
		return Profile{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Profile{}, fmt.Errorf("profile request rejected with status %d", resp.StatusCode)
	}

	var body struct {
		Data Profile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return body.Data, nil
}

// GetHistory fetches the closed trades of the active account.
func (c *Client) GetHistory(ctx context.Context) ([]HistoryItem, error) {
	mode := "live"
	if c.isDemo() {
		mode = "demo"
	}
	url := fmt.Sprintf("%s/api/v1/cabinets/trades/history/type/%s?page=1", c.opts.HTTPURL, mode)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("history request rejected with status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history response: %w", err)
	}

	var body struct {
		Data []HistoryItem `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return body.Data, nil
}

// GetResult resolves a trade outcome from the trader history by ticket
// id, returning "win" or "loss" based on the profit sign.
func (c *Client) GetResult(ctx context.Context, operationID string) (string, HistoryItem, error) {
	history, err := c.GetHistory(ctx)
	if err != nil {
		return "", HistoryItem{}, err
	}
	for _, item := range history {
		if item.Ticket == operationID {
			status := "loss"
			if item.ProfitAmount > 0 {
				status = "win"
			}
			return status, item, nil
		}
	}
	return "", HistoryItem{}, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
}

// StoreSettingsApply pushes chart settings and waits for the refreshed
// settings list.
func (c *Client) StoreSettingsApply(ctx context.Context, asset string, period int64, dealAmount float64, fastOption bool, percentMode bool, percentDeal int) (json.RawMessage, error) {
	c.store.clearSettings()
	err := c.sendSettingsStore(map[string]interface{}{
		"chartId":       "graph",
		"asset":         asset,
		"chartPeriod":   period,
		"deal":          dealAmount,
		"isFastOption":  fastOption,
		"percentMode":   percentMode,
		"percentDeal":   percentDeal,
		"currentExpiry": "TIMER",
	})
	if err != nil {
		return nil, err
	}
	err = waitFor(ctx, c.store.notify, func() bool {
		return c.store.getSettings() != nil
	})
	if err != nil {
		return nil, err
	}
	return c.store.getSettings(), nil
}

// GetSignalData returns the last raw signals push.
func (c *Client) GetSignalData() json.RawMessage {
	return c.store.getSignals()
}

// GetProfit returns the profit currently at stake in open operations.
func (c *Client) GetProfit() float64 {
	return c.store.getProfit()
}

// TradeLogRecords returns the persisted trade log entries.
func (c *Client) TradeLogRecords() []TradeRecord {
	return c.tradeLog.Records()
}
