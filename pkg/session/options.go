package session

import (
	"os"
	"time"
)

// Options configures the client.
type Options struct {
	// Account credentials. Left empty, they are resolved from the
	// environment at connect time.
	Email    string
	Password string

	// Lang is the platform language code sent during authorization.
	Lang string

	// UserAgent identifies the client in the handshake and REST calls.
	UserAgent string

	// RootPath is where the session file and trade log live.
	RootPath string

	// AssetDefault and PeriodDefault seed the initial chart settings.
	AssetDefault  string
	PeriodDefault int

	// Demo selects the practice account when true.
	Demo bool

	// Debug enables verbose wire-level logging of the REST traffic.
	Debug bool

	// Endpoints.
	WSURL   string
	HTTPURL string

	// Connection tuning.
	HTTPTimeout         time.Duration
	WSReconnectInterval time.Duration
	WSHeartbeatInterval time.Duration
	MaxReconnectRetries int
}

// NewOptions returns options with reasonable defaults.
func NewOptions() *Options {
	return &Options{
		Lang:                "pt",
		UserAgent:           "Quotex/1.0",
		RootPath:            ".",
		AssetDefault:        "EURUSD",
		PeriodDefault:       60,
		Demo:                true,
		WSURL:               "wss://ws2.qxbroker.com/socket.io/?EIO=3&transport=websocket",
		HTTPURL:             "https://qxbroker.com",
		HTTPTimeout:         15 * time.Second,
		WSReconnectInterval: 5 * time.Second,
		WSHeartbeatInterval: 20 * time.Second,
		MaxReconnectRetries: 3,
	}
}

// ApplyEnv overrides options from environment variables when set.
func (o *Options) ApplyEnv() {
	if v := os.Getenv("QUOTEX_EMAIL"); v != "" {
		o.Email = v
	}
	if v := os.Getenv("QUOTEX_PASSWORD"); v != "" {
		o.Password = v
	}
	if v := os.Getenv("QUOTEX_WS_URL"); v != "" {
		o.WSURL = v
	}
	if v := os.Getenv("QUOTEX_HTTP_URL"); v != "" {
		o.HTTPURL = v
	}
	if v := os.Getenv("QUOTEX_LANG"); v != "" {
		o.Lang = v
	}
	if os.Getenv("QUOTEX_DEBUG") == "1" {
		o.Debug = true
	}
}

// SessionPath returns the session file location under the root path.
func (o *Options) SessionPath() string {
	return o.RootPath + string(os.PathSeparator) + DefaultFileName
}
