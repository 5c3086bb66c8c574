package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrNoTickData   = errors.New("no tick data available for symbol")
	ErrNoCandleData = errors.New("insufficient candle data for symbol")
	ErrStaleData    = errors.New("market data is stale")

	// Venue Errors
	ErrVenueUnavailable     = errors.New("trading venue is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the trading venue")
	ErrAuthenticationFailed = errors.New("venue authentication failed")
	ErrTradingDisabled      = errors.New("trading is disabled for the symbol")
	ErrSpreadTooWide        = errors.New("spread exceeds the configured maximum")
	ErrInsufficientMargin   = errors.New("insufficient free margin for order")
	ErrZeroQuantity         = errors.New("computed order quantity rounds to zero")
	ErrRequote              = errors.New("order requoted by the venue")
	ErrOrderRejected        = errors.New("order rejected by the venue")
	ErrNoResponse           = errors.New("no response from the trading venue")
	ErrPositionNotFound     = errors.New("position not found on the venue")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrOrderModifyFailed    = errors.New("failed to modify order")
	ErrOrderCloseFailed     = errors.New("failed to close position")

	// Model Errors
	ErrModelNotReady   = errors.New("classifier model is not loaded")
	ErrInferenceFailed = errors.New("classifier inference failed")

	// Database Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
)
