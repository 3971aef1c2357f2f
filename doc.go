// Package quotex-connector is a Go client for the Quotex binary options
// platform.
//
// The broker speaks a socket.io style protocol over a single WebSocket:
// the client authorizes with a session token, subscribes to market data
// feeds (candles, ticks, traders mood) and places orders whose
// confirmations and settlements arrive asynchronously on the same
// socket. A small REST surface covers sign-in, the account profile and
// the trader history.
//
// Core Features:
//
//   - Session handling with a persisted token and REST sign-in fallback
//   - Candle aggregation of arbitrary periods from bulk history and
//     live ticks, with a consistent merge of both sources
//   - Order lifecycle: market buys, pending orders at aligned open
//     times, early sells and settlement waits
//   - Nine technical indicators (RSI, MACD, SMA, EMA, Bollinger,
//     Stochastic, ATR, ADX, Ichimoku) with one-shot evaluation and a
//     per-second live subscription
//   - Automatic reconnection with authorization and subscription replay
//   - Rate limiting on both the WebSocket and REST paths
//
// All blocking calls take a context and wait on pushed data instead of
// polling; bound them with a deadline when giving up is acceptable.
//
// # Standard Errors
//
//   - ErrNotConnected: an operation was attempted before Connect
//     succeeded or after the connection was lost
//
//   - ErrInvalidTimeframe: the requested chart period is not one the
//     broker serves
//
//   - ErrUnknownIndicator: the indicator kind is not supported
//
//   - ErrBuyTimeout: the broker did not confirm an order within its own
//     duration window
//
//   - ErrAssetNotFound: the asset is absent from the instruments
//     snapshot
//
//   - ErrOperationNotFound: the trade id is absent from the trader
//     history
//
//   - ErrStreamStallTimeout: a candle stream produced nothing within
//     the watchdog window
//
// MarketError wraps asset-specific failures and is created with
// NewMarketError(asset, message, err).
//
// # Examples
//
// Connecting and fetching candles:
//
//	opts := session.NewOptions()
//	opts.Email = "trader@example.com"
//	opts.Password = "secret"
//
//	client, err := quotex.NewClient(opts, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatalf("connect failed: %v", err)
//	}
//	defer client.Close()
//
//	candles, err := client.GetCandles(ctx, "EURUSD_otc", 0, 3600, 60)
//	if err != nil {
//	    log.Fatalf("candles: %v", err)
//	}
//	fmt.Printf("got %d candles\n", len(candles))
//
// Placing a trade and waiting for its settlement:
//
//	ok, conf, err := client.Buy(ctx, 10, "EURUSD_otc", quotex.Call, 60, "TIME")
//	if err != nil || !ok {
//	    log.Fatalf("buy rejected: %v", err)
//	}
//
//	outcome, err := client.CheckWin(ctx, conf.ID)
//	if err != nil {
//	    log.Fatalf("settlement: %v", err)
//	}
//	fmt.Printf("result: %s profit: %.2f\n", outcome.Result, outcome.Profit)
//
// Evaluating an indicator over live data:
//
//	err = client.SubscribeIndicator(ctx, "EURUSD_otc", quotex.IndicatorRSI,
//	    quotex.IndicatorParams{Period: 14}, 60,
//	    func(u quotex.IndicatorUpdate) {
//	        fmt.Printf("[%d] RSI %.2f\n", u.Time, u.Result.Current)
//	    })
package quotexconnector
