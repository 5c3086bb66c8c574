package ports

import (
	"context"
	"time"

	"aurumbot/internal/domain"
)

// OrderKind is the venue-level order type used for a submission.
type OrderKind string

const (
	OrderMarket    OrderKind = "MARKET"
	OrderLimit     OrderKind = "LIMIT"
	OrderStopLimit OrderKind = "STOP_LIMIT"
)

// OrderRequest describes an order submission to the venue.
type OrderRequest struct {
	Symbol     string
	Direction  domain.Direction
	Kind       OrderKind
	Volume     float64
	Price      float64   // Limit price; 0 for market orders
	StopPrice  float64   // Trigger price for stop-limit orders
	StopLoss   float64   // Protective stop attached to the order
	TakeProfit float64   // Profit target attached to the order
	Deviation  int       // Max slippage in points for market orders
	ExpiresAt  time.Time // Zero for good-til-cancelled
	Comment    string
	ClientID   string // Caller-assigned intent id, stable across retries
}

// Order submission return codes, decoded from the venue response.
type RetCode int

const (
	RetDone            RetCode = 10009
	RetPlaced          RetCode = 10008
	RetRequote         RetCode = 10004
	RetRejected        RetCode = 10006
	RetInvalidVolume   RetCode = 10014
	RetInvalidPrice    RetCode = 10015
	RetInvalidStops    RetCode = 10016
	RetTradeDisabled   RetCode = 10017
	RetMarketClosed    RetCode = 10018
	RetNoMoney         RetCode = 10019
	RetPriceChanged    RetCode = 10020
	RetPriceOff        RetCode = 10021
	RetTooManyRequests RetCode = 10024
	RetNoChanges       RetCode = 10025
	RetLimitOrders     RetCode = 10033
	RetLimitVolume     RetCode = 10034
)
// Success reports whether the code indicates the order was executed or placed.
func (c RetCode) Success() bool {
	return c == RetDone || c == RetPlaced
}

// Transient reports whether a retry at a fresh price may succeed.
func (c RetCode) Transient() bool {
	switch c {
	case RetRequote, RetPriceChanged, RetPriceOff, RetTooManyRequests:
		return true
	}
	return false
}

// OrderResult is the decoded venue response to a mutating call. A nil
// *OrderResult with a nil error never occurs; adapters return ErrNoResponse
// when the venue goes silent.
type OrderResult struct {
	RetCode RetCode
	Ticket  int64   // Position or order ticket assigned by the venue
	Price   float64 // Actual fill price
	Volume  float64 // Filled volume
	Comment string  // Venue-provided detail for the return code
}

// TradingVenue defines the interface for interacting with the execution venue.
// This abstraction decouples the core bot logic from a specific broker API.
type TradingVenue interface {
	// Ping checks connectivity to the venue.
	Ping(ctx context.Context) error

	// GetTick retrieves the current best bid/ask for a symbol.
	GetTick(ctx context.Context, symbol string) (*domain.Tick, error)

	// GetCandles retrieves the most recent candles for a symbol and timeframe,
	// oldest first, including the currently forming bar.
	GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error)

	// GetSymbolInfo retrieves the trading rules for a symbol.
	GetSymbolInfo(ctx context.Context, symbol string) (*domain.SymbolInfo, error)

	// GetAccountInfo retrieves the current account state.
	GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error)

	// CalcMargin returns the margin required to open the given order.
	CalcMargin(ctx context.Context, req OrderRequest) (float64, error)

	// SubmitOrder sends an order to the venue and returns the decoded result.
	SubmitOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)

	// OpenPositions retrieves the open positions for a symbol.
	OpenPositions(ctx context.Context, symbol string) ([]domain.Position, error)

	// ModifyPosition updates the stop-loss and take-profit of an open position.
	ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit float64) (*OrderResult, error)

	// ClosePosition closes an open position at market.
	ClosePosition(ctx context.Context, ticket int64, deviation int) (*OrderResult, error)

	// StreamTicks starts a tick stream for a symbol. The handler runs on the
	// stream goroutine. Returns channels to observe and stop the stream.
	StreamTicks(ctx context.Context, symbol string, handler func(tick domain.Tick), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)
}
