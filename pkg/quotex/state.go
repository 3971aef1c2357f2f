package quotex

import (
	"sync"
	"time"
)

// ConnState is the shared connection context read by every component:
// the handshake-accepted flag, the global websocket error register and
// the session token. The transport writes it from its callbacks; the
// rest of the client only reads through the typed accessors.
type ConnState struct {
	mu sync.RWMutex

	accepted      bool
	wsError       bool
	wsErrorReason string
	ssid          string
	serverTime    int64
}

// NewConnState creates an empty connection context.
func NewConnState() *ConnState {
	return &ConnState{}
}

// Accepted reports whether the platform acknowledged authorization.
func (s *ConnState) Accepted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accepted
}

// SetAccepted records the authorization acknowledgement.
func (s *ConnState) SetAccepted(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accepted = v
}

// WSError returns the global websocket error flag and its reason.
func (s *ConnState) WSError() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wsError, s.wsErrorReason
}

// SetWSError raises the global websocket error flag.
func (s *ConnState) SetWSError(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsError = true
	s.wsErrorReason = reason
}

// ClearWSError lowers the global websocket error flag.
func (s *ConnState) ClearWSError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsError = false
	s.wsErrorReason = ""
}

// SSID returns the session token handed to the transport at connect
// time.
func (s *ConnState) SSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ssid
}

// SetSSID stores the session token.
func (s *ConnState) SetSSID(ssid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssid = ssid
}

// ServerTime returns the last server-synchronized timestamp, falling
// back to local time when none was received yet.
func (s *ConnState) ServerTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.serverTime == 0 {
		return time.Now().Unix()
	}
	return s.serverTime
}

// SetServerTime records a server timestamp push.
func (s *ConnState) SetServerTime(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverTime = ts
}
