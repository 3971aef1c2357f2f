package quotex

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/veiloq/quotex-connector/pkg/candles"
)

// notifier wakes blocked readers whenever a store write happens.
// Waiters grab the current channel, re-check their predicate, then
// block until the channel is closed by the next broadcast.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}

// waitFor blocks until pred returns true or the context is cancelled.
// Market-data waits pass a background-like context on purpose: the
// protocol has no way to distinguish a dead connection from a slow
// market, so the caller owns the decision to give up.
func waitFor(ctx context.Context, n *notifier, pred func() bool) error {
	for {
		ch := n.wait()
		if pred() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

type bookKey struct {
	asset  string
	period int64
}

// marketStore holds every buffer the transport callbacks write and the
// client reads: the instruments snapshot, bulk history payloads, live
// candle books, tick/sentiment maps, order confirmation slots and the
// settlement map. Each namespace is isolated per asset or per
// (asset, period) so concurrent subscriptions do not interfere.
type marketStore struct {
	notify *notifier
	mu     sync.RWMutex

	instruments []Instrument

	history     map[string][]candles.PricePoint
	historySeen map[string]bool
	historyLine json.RawMessage

	books        map[bookKey]*candles.Book
	lastTick     map[string]candles.PricePoint
	sentiment    map[string]Sentiment
	generated    map[bookKey]bool
	generatedAll map[string]bool

	buyConfirmation     *OrderConfirmation
	pendingConfirmation *OrderConfirmation
	soldResponse        json.RawMessage
	settlements         map[string]TradeOutcome

	balance         *Balance
	settings        json.RawMessage
	trainingBalance json.RawMessage
	signals         json.RawMessage
	profit          float64
}

func newMarketStore() *marketStore {
	return &marketStore{
		notify:       newNotifier(),
		history:      make(map[string][]candles.PricePoint),
		historySeen:  make(map[string]bool),
		books:        make(map[bookKey]*candles.Book),
		lastTick:     make(map[string]candles.PricePoint),
		sentiment:    make(map[string]Sentiment),
		generated:    make(map[bookKey]bool),
		generatedAll: make(map[string]bool),
		settlements:  make(map[string]TradeOutcome),
	}
}

// --- instruments ---

func (s *marketStore) setInstruments(list []Instrument) {
	s.mu.Lock()
	s.instruments = list
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getInstruments() []Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instruments
}

// --- bulk history ---

func (s *marketStore) clearHistory(asset string) {
	s.mu.Lock()
	delete(s.history, asset)
	delete(s.historySeen, asset)
	s.mu.Unlock()
}

func (s *marketStore) setHistory(asset string, points []candles.PricePoint) {
	s.mu.Lock()
	s.history[asset] = points
	s.historySeen[asset] = true
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getHistory(asset string) ([]candles.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history[asset], s.historySeen[asset]
}

func (s *marketStore) clearHistoryLine() {
	s.mu.Lock()
	s.historyLine = nil
	s.mu.Unlock()
}

func (s *marketStore) setHistoryLine(raw json.RawMessage) {
	s.mu.Lock()
	s.historyLine = raw
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getHistoryLine() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyLine
}

// --- live candle books ---

func (s *marketStore) ensureBook(asset string, period int64) *candles.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bookKey{asset: asset, period: period}
	b, ok := s.books[key]
	if !ok {
		b = candles.NewBook(period)
		s.books[key] = b
	}
	return b
}

func (s *marketStore) applyTick(asset string, point candles.PricePoint) {
	s.mu.Lock()
	s.lastTick[asset] = point
	for key, book := range s.books {
		if key.asset == asset {
			book.ApplyTick(point.Time, point.Price)
		}
	}
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) applyCandle(asset string, period int64, c candles.Candle) {
	s.mu.Lock()
	key := bookKey{asset: asset, period: period}
	book, ok := s.books[key]
	if !ok {
		book = candles.NewBook(period)
		s.books[key] = book
	}
	book.ApplyCandle(c)
	s.generated[key] = true
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) liveSeries(asset string, period int64) []candles.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[bookKey{asset: asset, period: period}]
	if !ok {
		return nil
	}
	return book.Series()
}

func (s *marketStore) getLastTick(asset string) (candles.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.lastTick[asset]
	return p, ok
}

// --- stream confirmations ---

func (s *marketStore) resetGenerated(asset string, period int64) {
	s.mu.Lock()
	delete(s.generated, bookKey{asset: asset, period: period})
	s.mu.Unlock()
}

func (s *marketStore) isGenerated(asset string, period int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generated[bookKey{asset: asset, period: period}]
}

func (s *marketStore) resetGeneratedAll(asset string) {
	s.mu.Lock()
	delete(s.generatedAll, asset)
	s.mu.Unlock()
}

func (s *marketStore) setGeneratedAll(asset string) {
	s.mu.Lock()
	s.generatedAll[asset] = true
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) isGeneratedAll(asset string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generatedAll[asset]
}

// --- sentiment ---

func (s *marketStore) setSentiment(asset string, m Sentiment) {
	s.mu.Lock()
	s.sentiment[asset] = m
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getSentiment(asset string) (Sentiment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sentiment[asset]
	return m, ok
}

// --- order confirmation slots ---

func (s *marketStore) clearBuyConfirmation() {
	s.mu.Lock()
	s.buyConfirmation = nil
	s.mu.Unlock()
}

func (s *marketStore) setBuyConfirmation(c OrderConfirmation) {
	s.mu.Lock()
	s.buyConfirmation = &c
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getBuyConfirmation() *OrderConfirmation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buyConfirmation
}

func (s *marketStore) clearPendingConfirmation() {
	s.mu.Lock()
	s.pendingConfirmation = nil
	s.mu.Unlock()
}

func (s *marketStore) setPendingConfirmation(c OrderConfirmation) {
	s.mu.Lock()
	s.pendingConfirmation = &c
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getPendingConfirmation() *OrderConfirmation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingConfirmation
}

func (s *marketStore) clearSoldResponse() {
	s.mu.Lock()
	s.soldResponse = nil
	s.mu.Unlock()
}

func (s *marketStore) setSoldResponse(raw json.RawMessage) {
	s.mu.Lock()
	s.soldResponse = raw
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getSoldResponse() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soldResponse
}

// --- settlements ---

func (s *marketStore) setSettlement(o TradeOutcome) {
	s.mu.Lock()
	s.settlements[o.ID] = o
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getSettlement(id string) (TradeOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.settlements[id]
	return o, ok
}

// deleteSettlement removes a consumed settlement entry; results are
// read at most once.
func (s *marketStore) deleteSettlement(id string) {
	s.mu.Lock()
	delete(s.settlements, id)
	s.mu.Unlock()
}

// --- account ---

func (s *marketStore) setBalance(b Balance) {
	s.mu.Lock()
	s.balance = &b
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getBalance() *Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

func (s *marketStore) setProfit(p float64) {
	s.mu.Lock()
	s.profit = p
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getProfit() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profit
}

func (s *marketStore) clearSettings() {
	s.mu.Lock()
	s.settings = nil
	s.mu.Unlock()
}

func (s *marketStore) setSettings(raw json.RawMessage) {
	s.mu.Lock()
	s.settings = raw
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getSettings() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *marketStore) clearTrainingBalance() {
	s.mu.Lock()
	s.trainingBalance = nil
	s.mu.Unlock()
}

func (s *marketStore) setTrainingBalance(raw json.RawMessage) {
	s.mu.Lock()
	s.trainingBalance = raw
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getTrainingBalance() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trainingBalance
}

func (s *marketStore) setSignals(raw json.RawMessage) {
	s.mu.Lock()
	s.signals = raw
	s.mu.Unlock()
	s.notify.broadcast()
}

func (s *marketStore) getSignals() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals
}
