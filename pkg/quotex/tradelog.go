package quotex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/veiloq/quotex-connector/pkg/logging"
)

// TradeLogFileName is the JSON trade journal written under the root
// path.
const TradeLogFileName = "trades_log.json"

// TradeRecord is one journaled trade.
type TradeRecord struct {
	Timestamp       string  `json:"timestamp"`
	Asset           string  `json:"asset"`
	Direction       string  `json:"direction"`
	EntryPrice      float64 `json:"entry_price"`
	FibLevel        float64 `json:"fib_level"`
	Result          string  `json:"result"`
	Profit          float64 `json:"profit"`
	DurationSeconds int     `json:"duration_seconds"`
}

// TradeLog is a JSON-array trade journal. The whole file is rewritten
// on each append. Journal I/O failures are logged and swallowed so a
// full disk never interrupts trading.
type TradeLog struct {
	mu      sync.Mutex
	path    string
	records []TradeRecord
	logger  logging.Logger
}

// NewTradeLog opens the journal under rootPath, loading any existing
// entries. A corrupt or missing file yields an empty journal.
func NewTradeLog(rootPath string, logger logging.Logger) *TradeLog {
	if logger == nil {
		logger = logging.NewLogger()
	}
	l := &TradeLog{
		path:   filepath.Join(rootPath, TradeLogFileName),
		logger: logger,
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read trade log", logging.Error(err))
		}
		return l
	}
	if err := json.Unmarshal(data, &l.records); err != nil {
		logger.Warn("trade log is corrupt, starting empty", logging.Error(err))
		l.records = nil
	}
	return l
}

// Append journals one trade and flushes the file.
func (l *TradeLog) Append(rec TradeRecord) {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)

	data, err := json.MarshalIndent(l.records, "", "    ")
	if err != nil {
		l.logger.Error("failed to encode trade log", logging.Error(err))
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.Error("failed to write trade log", logging.Error(err))
	}
}

// Records returns a copy of the journal in insertion order.
func (l *TradeLog) Records() []TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]TradeRecord(nil), l.records...)
}

// LogTrade journals one trade through the client's journal.
func (c *Client) LogTrade(asset string, direction Direction, entryPrice, fibLevel float64, result string, profit float64, durationSeconds int) {
	c.tradeLog.Append(TradeRecord{
		Asset:           asset,
		Direction:       string(direction),
		EntryPrice:      entryPrice,
		FibLevel:        fibLevel,
		Result:          result,
		Profit:          profit,
		DurationSeconds: durationSeconds,
	})
}
