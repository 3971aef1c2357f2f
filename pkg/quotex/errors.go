package quotex

import (
	"errors"
	"fmt"
)

// Common error variables returned by the client
var (
	// ErrNotConnected is returned when an operation is attempted before
	// Connect succeeded or after the connection was lost
	ErrNotConnected = errors.New("client not connected")

	// ErrInvalidTimeframe is returned when a timeframe outside the
	// platform's allowed set is requested
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrUnknownIndicator is returned for an unsupported indicator kind
	ErrUnknownIndicator = errors.New("unknown indicator")

	// ErrMissingCallback is returned when a subscription is requested
	// without a callback
	ErrMissingCallback = errors.New("callback must not be nil")

	// ErrBuyTimeout is returned when the platform does not confirm an
	// order within its duration window
	ErrBuyTimeout = errors.New("order confirmation timed out")

	// ErrAssetNotFound is returned when an asset name is not present in
	// the instruments snapshot
	ErrAssetNotFound = errors.New("asset not found")

	// ErrOperationNotFound is returned when a trade id is absent from
	// the trader history
	ErrOperationNotFound = errors.New("operation id not found")

	// ErrStreamStallTimeout is returned when a stream starter sees no
	// data within its watchdog window
	ErrStreamStallTimeout = errors.New("stream start timed out")

	// ErrInvalidAccountMode is returned for an unknown balance mode
	ErrInvalidAccountMode = errors.New("invalid account mode")
)

// MarketError represents an asset-specific error condition
type MarketError struct {
	Asset   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *MarketError) Error() string {
	return fmt.Sprintf("market error for %s: %s", e.Asset, e.Message)
}

// Unwrap returns the underlying error
func (e *MarketError) Unwrap() error {
	return e.Err
}

// NewMarketError creates a new asset-specific error
func NewMarketError(asset, message string, err error) error {
	return &MarketError{
		Asset:   asset,
		Message: message,
		Err:     err,
	}
}
