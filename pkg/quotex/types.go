package quotex

import (
	"encoding/json"

	"github.com/veiloq/quotex-connector/pkg/candles"
)

// Direction is the side of a binary option trade.
type Direction string

const (
	Call Direction = "call"
	Put  Direction = "put"
)

// Instrument describes one tradable asset from the platform's
// instrument list snapshot. Populated once per connection; only the
// Open flag is refreshed afterwards.
type Instrument struct {
	Code         int     `json:"code"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Open         bool    `json:"open"`
	TurboPayment float64 `json:"turboPayment"`
	Payment      float64 `json:"payment"`

	Profit PayoutProfile `json:"profit"`
}

// PayoutProfile holds the payout percentages per duration tier.
type PayoutProfile struct {
	Day         float64 `json:"24H"`
	OneMinute   float64 `json:"1M"`
	FiveMinutes float64 `json:"5M"`
}

// Payout is the per-asset payout snapshot returned by GetPayment.
type Payout struct {
	TurboPayment float64       `json:"turbo_payment"`
	Payment      float64       `json:"payment"`
	Profit       PayoutProfile `json:"profit"`
	Open         bool          `json:"open"`
}

// OrderRequest is the outbound buy request body.
type OrderRequest struct {
	Amount     float64   `json:"amount"`
	Asset      string    `json:"asset"`
	Direction  Direction `json:"direction"`
	Duration   int       `json:"duration"`
	RequestID  string    `json:"requestId"`
	FastOption bool      `json:"fastOption"`
	OpenTime   int64     `json:"openTime,omitempty"`
}

// OrderConfirmation is the platform's asynchronous answer to a buy or
// pending request, correlated by request id.
type OrderConfirmation struct {
	ID             string          `json:"id"`
	RequestID      string          `json:"requestId"`
	OpenTimestamp  int64           `json:"openTimestamp"`
	CloseTimestamp int64           `json:"closeTimestamp"`
	Raw            json.RawMessage `json:"-"`
}

// TradeOutcome is the settlement record for one order.
type TradeOutcome struct {
	ID        string          `json:"id"`
	GameState int             `json:"gameState"`
	Result    string          `json:"result"` // "win" or "loss"
	Profit    float64         `json:"profit"`
	Raw       json.RawMessage `json:"-"`
}

// Settled reports whether the platform considers the order finished.
func (o TradeOutcome) Settled() bool {
	return o.GameState == 1
}

// Sentiment is the aggregate trader positioning for an asset.
type Sentiment struct {
	Buy  int `json:"buy"`
	Sell int `json:"sell"`
}

// Balance mirrors the account balance push from the platform.
type Balance struct {
	Demo float64 `json:"demoBalance"`
	Live float64 `json:"liveBalance"`
}

// Profile is the account digest fetched over REST.
type Profile struct {
	ID          int     `json:"id"`
	Nickname    string  `json:"nickname"`
	Email       string  `json:"email"`
	DemoBalance float64 `json:"demoBalance"`
	LiveBalance float64 `json:"liveBalance"`
	Avatar      string  `json:"avatar"`
	CountryName string  `json:"countryName"`

	// Offset is the account's UTC offset in hours, used to schedule
	// pending order open times.
	Offset int `json:"timeOffset"`
}

// HistoryItem is one closed trade from the trader history endpoint.
type HistoryItem struct {
	Ticket       string  `json:"ticket"`
	Asset        string  `json:"asset"`
	ProfitAmount float64 `json:"profitAmount"`
	Amount       float64 `json:"amount"`
	CloseTime    int64   `json:"closeTimestamp"`

	Raw json.RawMessage `json:"-"`
}

// Candle is re-exported so callers do not need to import the
// aggregation package for common flows.
type Candle = candles.Candle
