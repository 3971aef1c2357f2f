package websocket

import (
	"context"
	"encoding/json"
	"sync"
)

// MockConnector implements WSConnector for testing the protocol layer
// without a live socket.
type MockConnector struct {
	mu sync.RWMutex

	connected bool
	handlers  map[string]EventHandler

	onReconnect func()
	onError     func(error)

	// Recorded outbound traffic for verifying expectations
	sentEvents []SentEvent
	sentRaw    [][]byte

	connectCalls int
	closeCalls   int

	// Simulated failures
	connectError error
	sendError    error
	closeError   error
}

// SentEvent records one SendEvent call
type SentEvent struct {
	Event   string
	Payload interface{}
}

// NewMockConnector creates a new mock connector for testing
func NewMockConnector() *MockConnector {
	return &MockConnector{
		handlers: make(map[string]EventHandler),
	}
}

// Connect implements WSConnector interface
func (m *MockConnector) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.connectCalls++
	if m.connectError != nil {
		m.mu.Unlock()
		return m.connectError
	}
	m.connected = true
	onReconnect := m.onReconnect
	m.mu.Unlock()

	if onReconnect != nil {
		onReconnect()
	}
	return nil
}

// Close implements WSConnector interface
func (m *MockConnector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeCalls++
	if m.closeError != nil {
		return m.closeError
	}
	m.connected = false
	return nil
}

// On implements WSConnector interface
func (m *MockConnector) On(event string, handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = handler
}

// Off implements WSConnector interface
func (m *MockConnector) Off(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

// OnReconnect implements WSConnector interface
func (m *MockConnector) OnReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = fn
}

// OnError implements WSConnector interface
func (m *MockConnector) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// SendEvent implements WSConnector interface
func (m *MockConnector) SendEvent(event string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return m.sendError
	}
	m.sentEvents = append(m.sentEvents, SentEvent{Event: event, Payload: payload})
	return nil
}

// SendRaw implements WSConnector interface
func (m *MockConnector) SendRaw(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return m.sendError
	}
	m.sentRaw = append(m.sentRaw, data)
	return nil
}

// IsConnected implements WSConnector interface
func (m *MockConnector) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SimulateEvent delivers a payload to the registered handler as if the
// server had pushed a 42["event",payload] frame.
func (m *MockConnector) SimulateEvent(event string, payload json.RawMessage) {
	m.mu.RLock()
	handler, exists := m.handlers[event]
	m.mu.RUnlock()

	if exists {
		handler(payload)
	}
}

// SimulateError invokes the registered error callback
func (m *MockConnector) SimulateError(err error) {
	m.mu.RLock()
	onError := m.onError
	m.mu.RUnlock()

	if onError != nil {
		onError(err)
	}
}

// SimulateReconnect invokes the registered reconnect callback
func (m *MockConnector) SimulateReconnect() {
	m.mu.RLock()
	onReconnect := m.onReconnect
	m.mu.RUnlock()

	if onReconnect != nil {
		onReconnect()
	}
}

// SetConnectError sets an error to be returned by Connect
func (m *MockConnector) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetSendError sets an error to be returned by SendEvent and SendRaw
func (m *MockConnector) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// SetCloseError sets an error to be returned by Close
func (m *MockConnector) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// SentEvents returns a copy of the recorded SendEvent calls
func (m *MockConnector) SentEvents() []SentEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := make([]SentEvent, len(m.sentEvents))
	copy(events, m.sentEvents)
	return events
}

// SentEventCount returns the number of SendEvent calls for an event name
func (m *MockConnector) SentEventCount(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.sentEvents {
		if e.Event == event {
			n++
		}
	}
	return n
}

// GetConnectCalls returns the number of times Connect was called
func (m *MockConnector) GetConnectCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectCalls
}

// GetCloseCalls returns the number of times Close was called
func (m *MockConnector) GetCloseCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeCalls
}
