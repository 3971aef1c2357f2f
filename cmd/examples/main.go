package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veiloq/quotex-connector/pkg/logging"
	"github.com/veiloq/quotex-connector/pkg/quotex"
	"github.com/veiloq/quotex-connector/pkg/session"
)

func main() {
	// Create logger
	logger := logging.NewLogger()
	logger.SetLevel(logging.DEBUG)

	// Client options; credentials come from the environment or .env
	opts := session.NewOptions()
	opts.Demo = true
	opts.HTTPTimeout = 15 * time.Second
	opts.WSReconnectInterval = 5 * time.Second
	opts.WSHeartbeatInterval = 20 * time.Second
	opts.ApplyEnv()

	client, err := quotex.NewClient(opts, logger)
	if err != nil {
		logger.Error("failed to build client", logging.Error(err))
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect and authorize
	logger.Info("connecting to broker")
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", logging.Error(err))
		os.Exit(1)
	}
	defer client.Close()

	// Resolve a tradable asset, falling back to the OTC market
	asset, inst, err := client.GetAvailableAsset(ctx, "EURUSD", true)
	if err != nil {
		logger.Error("no tradable asset", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("trading asset",
		logging.String("asset", asset),
		logging.Bool("open", inst.Open),
		logging.Float64("payout_1m", inst.Profit.OneMinute),
	)

	// Fetch an hour of one-minute candles
	logger.Info("fetching candles")
	candles, err := client.GetCandles(ctx, asset, 0, 3600, 60)
	if err != nil {
		logger.Error("failed to get candles", logging.Error(err))
		os.Exit(1)
	}
	for _, candle := range candles[max(0, len(candles)-5):] {
		logger.Info("candle",
			logging.Int64("time", candle.Time),
			logging.Float64("open", candle.Open),
			logging.Float64("close", candle.Close),
		)
	}

	// Evaluate RSI over the same window
	rsi, err := client.CalculateIndicator(ctx, asset, quotex.IndicatorRSI,
		quotex.IndicatorParams{Period: 14}, 3600, 60)
	if err != nil {
		logger.Error("failed to calculate rsi", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("rsi", logging.Float64("current", rsi.Current))

	// Check the practice balance and place a small demo trade
	balance, err := client.GetBalance(ctx)
	if err != nil {
		logger.Error("failed to get balance", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("practice balance", logging.Float64("balance", balance))

	ok, conf, err := client.Buy(ctx, 1, asset, quotex.Call, 60, "TIME")
	if err != nil || !ok {
		logger.Error("buy rejected", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("order confirmed", logging.String("id", conf.ID))

	outcome, err := client.CheckWin(ctx, conf.ID)
	if err != nil {
		logger.Error("settlement wait failed", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("trade settled",
		logging.String("result", outcome.Result),
		logging.Float64("profit", outcome.Profit),
	)

	// Stream RSI updates until interrupted
	go func() {
		err := client.SubscribeIndicator(ctx, asset, quotex.IndicatorRSI,
			quotex.IndicatorParams{}, 60, func(u quotex.IndicatorUpdate) {
				logger.Info("rsi update",
					logging.Int64("time", u.Time),
					logging.Float64("value", u.Result.Current),
				)
			})
		if err != nil && ctx.Err() == nil {
			logger.Error("indicator subscription failed", logging.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("running... press Ctrl+C to exit")
	<-sigChan

	// Cleanup
	logger.Info("shutting down")
	cancel()
}
