// Package websocket owns the physical connection to the broker.
//
// The broker speaks a socket.io style framing over a single WebSocket:
// event frames are text messages of the form
//
//	42["event-name",{...payload...}]
//
// with "2"/"3" ping-pong control frames. This package decodes that
// framing, dispatches payloads to per-event handlers and keeps the
// connection alive, reconnecting with backoff when it drops.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	"github.com/veiloq/quotex-connector/pkg/logging"
	"github.com/veiloq/quotex-connector/pkg/ratelimit"
)

// EventHandler is a callback invoked with the raw payload of a decoded
// event frame.
type EventHandler func(payload json.RawMessage)

// WSConnector manages the WebSocket connection to the broker
type WSConnector interface {
	// Connect establishes the WebSocket connection
	Connect(ctx context.Context) error

	// Close cleanly closes the WebSocket connection
	Close() error

	// On registers a handler for an event name
	On(event string, handler EventHandler)

	// Off removes the handler for an event name
	Off(event string)

	// SendEvent encodes and sends a 42["event",payload] frame
	SendEvent(event string, payload interface{}) error

	// SendRaw sends a pre-encoded text frame
	SendRaw(data []byte) error

	// OnReconnect registers a callback invoked after every successful
	// (re)connection, used to replay server-side subscriptions
	OnReconnect(fn func())

	// OnError registers a callback invoked when the connection drops
	// with an error
	OnError(fn func(err error))

	// IsConnected returns the current connection status
	IsConnected() bool
}

// Config holds WebSocket connection configuration
type Config struct {
	URL               string
	Origin            string
	UserAgent         string
	HeartbeatInterval time.Duration
	ReconnectInterval time.Duration
	MaxRetries        int

	// SendRate paces outbound frames; zero value disables pacing
	SendRate ratelimit.Rate

	Logger logging.Logger
}

// connector implements the WSConnector interface
type connector struct {
	config Config
	conn   *websocket.Conn

	handlers   map[string]EventHandler
	handlersMu sync.RWMutex
	writeMu    sync.Mutex

	connected bool
	done      chan struct{}
	doneMu    sync.Mutex
	closed    bool

	reconnectMu  sync.Mutex
	reconnecting bool

	onReconnect func()
	onError     func(error)
	callbackMu  sync.RWMutex

	limiter ratelimit.RateLimiter
	logger  logging.Logger
}

// NewConnector creates a new WebSocket connector with the given configuration
func NewConnector(config Config) WSConnector {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	c := &connector{
		config:   config,
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}
	if config.SendRate.Limit > 0 && config.SendRate.Interval > 0 {
		c.limiter = ratelimit.NewTokenBucketLimiter(config.SendRate)
	}
	return c
}

// Connect establishes the WebSocket connection and starts background routines
func (c *connector) Connect(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	if c.connected {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("context already cancelled: %w", ctx.Err())
	}

	c.logger.Debug("attempting websocket connection",
		logging.String("url", c.config.URL),
		logging.Duration("heartbeat", c.config.HeartbeatInterval),
	)

	var lastErr error
	attempt := 0

	for {
		attempt++
		if attempt > c.config.MaxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		header := make(map[string][]string)
		if c.config.Origin != "" {
			header["Origin"] = []string{c.config.Origin}
		}
		if c.config.UserAgent != "" {
			header["User-Agent"] = []string{c.config.UserAgent}
		}

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}
		conn, _, err := dialer.DialContext(ctx, c.config.URL, header)
		if err != nil {
			lastErr = err
			c.logger.Warn("connection attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.ReconnectInterval):
				continue
			}
		}

		c.conn = conn
		c.connected = true

		c.doneMu.Lock()
		c.done = make(chan struct{})
		c.closed = false
		c.doneMu.Unlock()

		go c.readPump(ctx)
		go c.heartbeat()

		go func() {
			select {
			case <-ctx.Done():
				c.logger.Info("context cancelled, closing connection")
				c.Close()
			case <-c.done:
			}
		}()

		c.logger.Info("websocket connected")

		c.callbackMu.RLock()
		onReconnect := c.onReconnect
		c.callbackMu.RUnlock()
		if onReconnect != nil {
			onReconnect()
		}

		return nil
	}
}

// readPump continuously reads frames from the WebSocket
func (c *connector) readPump(ctx context.Context) {
	var readErr error

	defer func() {
		c.connected = false
		if c.conn != nil {
			_ = c.conn.Close()
		}

		c.doneMu.Lock()
		explicitClose := c.closed
		if !c.closed {
			close(c.done)
			c.closed = true
		}
		c.doneMu.Unlock()

		c.logger.Info("readPump stopped")

		if readErr != nil && !explicitClose {
			c.callbackMu.RLock()
			onError := c.onError
			c.callbackMu.RUnlock()
			if onError != nil {
				onError(readErr)
			}
		}

		if !c.reconnecting && !explicitClose && ctx.Err() == nil {
			go c.reconnect()
		}
	}()

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, closing readPump")
			return
		default:
			c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("read error", logging.Error(err))
				}
				readErr = err
				return
			}

			c.processFrame(message)
		}
	}
}

// processFrame decodes a single socket.io style frame and dispatches it
func (c *connector) processFrame(message []byte) {
	frame := string(message)
	switch {
	case frame == "2":
		// Server ping, answer with pong
		_ = c.SendRaw([]byte("3"))
		return
	case strings.HasPrefix(frame, "42"):
		var event []json.RawMessage
		if err := json.Unmarshal(message[2:], &event); err != nil {
			c.logger.Warn("failed to decode event frame", logging.Error(err))
			return
		}
		if len(event) == 0 {
			return
		}
		var name string
		if err := json.Unmarshal(event[0], &name); err != nil {
			c.logger.Warn("event frame without a name", logging.Error(err))
			return
		}
		var payload json.RawMessage
		if len(event) > 1 {
			payload = event[1]
		}
		c.dispatch(name, payload)
	default:
		// Handshake frames ("0{...}", "40") and anything else are
		// surfaced under a pseudo event so the protocol layer can
		// inspect them
		c.dispatch("frame", json.RawMessage(message))
	}
}

func (c *connector) dispatch(name string, payload json.RawMessage) {
	c.handlersMu.RLock()
	handler, exists := c.handlers[name]
	c.handlersMu.RUnlock()

	if !exists {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panic recovered",
				logging.String("event", name),
				logging.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()
	handler(payload)
}

// heartbeat sends periodic ping messages to keep the connection alive
func (c *connector) heartbeat() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			if !c.connected {
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// reconnect attempts to reestablish the connection
func (c *connector) reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return c.Connect(ctx)
		},
		retry.Attempts(uint(c.config.MaxRetries)),
		retry.Delay(c.config.ReconnectInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("reconnection attempt failed",
				logging.Int("attempt", int(n+1)),
				logging.Error(err))
		}),
	)

	if err != nil {
		c.logger.Error("reconnection failed", logging.Error(err))
		return
	}

	c.logger.Info("reconnection successful")
}

// On implements WSConnector interface
func (c *connector) On(event string, handler EventHandler) {
	c.handlersMu.Lock()
	c.handlers[event] = handler
	c.handlersMu.Unlock()
}

// Off implements WSConnector interface
func (c *connector) Off(event string) {
	c.handlersMu.Lock()
	delete(c.handlers, event)
	c.handlersMu.Unlock()
}

// OnReconnect implements WSConnector interface
func (c *connector) OnReconnect(fn func()) {
	c.callbackMu.Lock()
	c.onReconnect = fn
	c.callbackMu.Unlock()
}

// OnError implements WSConnector interface
func (c *connector) OnError(fn func(error)) {
	c.callbackMu.Lock()
	c.onError = fn
	c.callbackMu.Unlock()
}

// SendEvent implements WSConnector interface
func (c *connector) SendEvent(event string, payload interface{}) error {
	frame := []interface{}{event}
	if payload != nil {
		frame = append(frame, payload)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal event frame: %w", err)
	}
	return c.SendRaw(append([]byte("42"), data...))
}

// SendRaw implements WSConnector interface
func (c *connector) SendRaw(data []byte) error {
	if !c.connected {
		return fmt.Errorf("websocket not connected")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return err
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// IsConnected implements WSConnector interface
func (c *connector) IsConnected() bool {
	return c.connected
}

// Close implements WSConnector interface
func (c *connector) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.doneMu.Lock()
	wasClosed := c.closed
	if !c.closed {
		close(c.done)
		c.closed = true
	}
	c.doneMu.Unlock()

	if wasClosed {
		return nil
	}

	c.connected = false

	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed connection"))

		// Give the close message a moment to flush
		time.Sleep(100 * time.Millisecond)

		err := c.conn.Close()
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			return err
		}
	}

	return nil
}
