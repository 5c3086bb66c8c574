// Package executor submits entry orders to the trading venue, applying the
// configured entry protocol and retrying requotes and silent responses at a
// refreshed price.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
	"aurumbot/internal/risk"
)

const (
	// Max slippage for market orders, in points.
	marketDeviation = 10
	// Price offsets for resting orders, in points.
	pendingOffsetPoints  = 10
	stopLimitLimitOffset = 5
	// MarketOnClose switches to an immediate fill inside this window.
	closeWindow = 10 * time.Second
)

// Intent describes a requested entry before venue-level details are resolved.
type Intent struct {
	Symbol    string
	Direction domain.Direction
	Volume    float64
	Protocol  domain.EntryProtocol
	Comment   string
}

// Report is the terminal outcome of an execution attempt sequence.
type Report struct {
	Ticket     int64
	FillPrice  float64
	StopLoss   float64
	TakeProfit float64
	Volume     float64
	Attempts   int
	Resting    bool // True when a pending order was placed rather than filled
}

// Executor drives the entry protocols against the venue.
type Executor struct {
	venue  ports.TradingVenue
	logger ports.Logger
	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an order executor.
func New(venue ports.TradingVenue, logger ports.Logger) *Executor {
	return &Executor{
		venue:  venue,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs the intent's entry protocol with the shared retry loop and
// reports the terminal outcome.
func (e *Executor) Execute(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings) (*Report, error) {
	if intent.Direction != domain.Long && intent.Direction != domain.Short {
		return nil, fmt.Errorf("%w: direction %q", ports.ErrInvalidRequest, intent.Direction)
	}

	switch intent.Protocol {
	case domain.ProtocolInstant:
		return e.instant(ctx, intent, snap, settings)
	case domain.ProtocolPending:
		return e.pending(ctx, intent, snap, settings, time.Time{})
	case domain.ProtocolStopLimit:
		return e.stopLimit(ctx, intent, snap, settings)
	case domain.ProtocolMarketOnClose:
		return e.marketOnClose(ctx, intent, snap, settings)
	default:
		return nil, fmt.Errorf("%w: entry protocol %q", ports.ErrInvalidRequest, intent.Protocol)
	}
}

// instant fills at market after checking the tradability, spread, and margin
// preconditions.
func (e *Executor) instant(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings) (*Report, error) {
	if err := e.checkPreconditions(ctx, intent, snap, settings); err != nil {
		return nil, err
	}

	build := func(tick domain.Tick) ports.OrderRequest {
		entry := entryPrice(intent.Direction, tick)
		sl, tp := risk.StopPrices(intent.Direction, entry, snap.Info, settings)
		return ports.OrderRequest{
			Symbol:     intent.Symbol,
			Direction:  intent.Direction,
			Kind:       ports.OrderMarket,
			Volume:     intent.Volume,
			StopLoss:   sl,
			TakeProfit: tp,
			Deviation:  marketDeviation,
			Comment:    intent.Comment,
		}
	}
	return e.submitWithRetry(ctx, "Instant", build, snap.Tick, settings, false)
}

// pending rests a limit order offset from the current price. A non-zero
// expiry bounds the order's lifetime.
func (e *Executor) pending(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings, expiry time.Time) (*Report, error) {
	offset := pendingOffsetPoints * snap.Info.Point

	build := func(tick domain.Tick) ports.OrderRequest {
		var limit float64
		if intent.Direction == domain.Long {
			limit = tick.Ask - offset
		} else {
			limit = tick.Bid + offset
		}
		sl, tp := risk.StopPrices(intent.Direction, limit, snap.Info, settings)
		return ports.OrderRequest{
			Symbol:     intent.Symbol,
			Direction:  intent.Direction,
			Kind:       ports.OrderLimit,
			Volume:     intent.Volume,
			Price:      limit,
			StopLoss:   sl,
			TakeProfit: tp,
			ExpiresAt:  expiry,
			Comment:    intent.Comment,
		}
	}
	return e.submitWithRetry(ctx, "Pending", build, snap.Tick, settings, true)
}

// stopLimit rests a two-price order: the stop triggers past the current
// price, the limit caps the fill just inside the trigger.
func (e *Executor) stopLimit(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings) (*Report, error) {
	stopOff := pendingOffsetPoints * snap.Info.Point
	limitOff := stopLimitLimitOffset * snap.Info.Point

	build := func(tick domain.Tick) ports.OrderRequest {
		var stop, limit float64
		if intent.Direction == domain.Long {
			stop = tick.Ask + stopOff
			limit = stop - limitOff
		} else {
			stop = tick.Bid - stopOff
			limit = stop + limitOff
		}
		sl, tp := risk.StopPrices(intent.Direction, stop, snap.Info, settings)
		return ports.OrderRequest{
			Symbol:     intent.Symbol,
			Direction:  intent.Direction,
			Kind:       ports.OrderStopLimit,
			Volume:     intent.Volume,
			Price:      limit,
			StopPrice:  stop,
			StopLoss:   sl,
			TakeProfit: tp,
			Comment:    intent.Comment,
		}
	}
	return e.submitWithRetry(ctx, "StopLimit", build, snap.Tick, settings, true)
}

// marketOnClose fills immediately inside the close window of the current
// entry candle, otherwise rests a pending order that expires at the close.
func (e *Executor) marketOnClose(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings) (*Report, error) {
	closeAt := snap.Entry.Last().CloseTime(snap.Entry.Timeframe)
	now := snap.TakenAt
	if now.IsZero() {
		now = time.Now()
	}

	if closeAt.Sub(now) <= closeWindow {
		e.logger.Debug(ctx, "close window reached, entering at market", map[string]interface{}{
			"protocol": "MarketOnClose",
			"close_at": closeAt,
		})
		return e.instant(ctx, intent, snap, settings)
	}
	return e.pending(ctx, intent, snap, settings, closeAt)
}

// checkPreconditions validates tradability, spread, and margin before any
// immediate fill.
func (e *Executor) checkPreconditions(ctx context.Context, intent Intent, snap *domain.MarketSnapshot, settings domain.TradeSettings) error {
	if !snap.Info.TradeAllowed {
		return fmt.Errorf("%w: %s", ports.ErrTradingDisabled, intent.Symbol)
	}
	if spread := snap.SpreadPoints(); spread > settings.MaxSpreadPoints {
		return fmt.Errorf("%w: %.1f > %.1f points", ports.ErrSpreadTooWide, spread, settings.MaxSpreadPoints)
	}

	entry := entryPrice(intent.Direction, snap.Tick)
	required, err := e.venue.CalcMargin(ctx, ports.OrderRequest{
		Symbol:    intent.Symbol,
		Direction: intent.Direction,
		Kind:      ports.OrderMarket,
		Volume:    intent.Volume,
		Price:     entry,
	})
	if err != nil {
		return fmt.Errorf("margin calculation failed: %w", err)
	}
	if snap.Account.FreeMargin < required {
		return fmt.Errorf("%w: need %.2f, have %.2f", ports.ErrInsufficientMargin, required, snap.Account.FreeMargin)
	}
	return nil
}

// submitWithRetry runs the shared retry loop: max_retry + 1 attempts, requote
// and silent outcomes resubmit at a refreshed price, anything else is
// terminal.
func (e *Executor) submitWithRetry(ctx context.Context, protocol string, build func(domain.Tick) ports.OrderRequest, tick domain.Tick, settings domain.TradeSettings, resting bool) (*Report, error) {
	maxAttempts := settings.MaxRetry + 1
	clientID := uuid.NewString()
	noResp := newNoResponseBackoff()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := build(tick)
		req.ClientID = clientID

		result, err := e.venue.SubmitOrder(ctx, req)

		switch {
		case err == nil && result.RetCode.Success():
			e.logger.Info(ctx, "order accepted", map[string]interface{}{
				"protocol":    protocol,
				"attempt":     attempt,
				"ticket":      result.Ticket,
				"fill_price":  result.Price,
				"stop_loss":   req.StopLoss,
				"take_profit": req.TakeProfit,
			})
			return &Report{
				Ticket:     result.Ticket,
				FillPrice:  result.Price,
				StopLoss:   req.StopLoss,
				TakeProfit: req.TakeProfit,
				Volume:     result.Volume,
				Attempts:   attempt,
				Resting:    resting,
			}, nil

		case err == nil && result.RetCode.Transient():
			e.logger.Warn(ctx, "order requoted, retrying at fresh price", map[string]interface{}{
				"protocol": protocol,
				"attempt":  attempt,
				"retcode":  int(result.RetCode),
				"detail":   result.Comment,
			})
			lastErr = fmt.Errorf("%w: retcode %d (%s)", ports.ErrRequote, result.RetCode, result.Comment)
			if attempt == maxAttempts {
				break
			}
			if serr := e.sleep(ctx, requoteDelay); serr != nil {
				return nil, serr
			}
			if t, terr := e.venue.GetTick(ctx, req.Symbol); terr == nil {
				tick = *t
			}

		case errors.Is(err, ports.ErrNoResponse):
			e.logger.Warn(ctx, "no response from venue, retrying", map[string]interface{}{
				"protocol": protocol,
				"attempt":  attempt,
			})
			lastErr = err
			if attempt == maxAttempts {
				break
			}
			if serr := e.sleep(ctx, noResp.Duration()); serr != nil {
				return nil, serr
			}
			if t, terr := e.venue.GetTick(ctx, req.Symbol); terr == nil {
				tick = *t
			}

		case err != nil:
			e.logger.Error(ctx, err, "order submission failed", map[string]interface{}{
				"protocol": protocol,
				"attempt":  attempt,
			})
			return nil, fmt.Errorf("%s submission failed: %w", protocol, err)

		default:
			reason := decodeRetCode(result.RetCode)
			e.logger.Error(ctx, nil, "order rejected", map[string]interface{}{
				"protocol": protocol,
				"attempt":  attempt,
				"retcode":  int(result.RetCode),
				"reason":   reason,
				"detail":   result.Comment,
			})
			return nil, fmt.Errorf("%w: %s (retcode %d)", ports.ErrOrderRejected, reason, result.RetCode)
		}
	}

	e.logger.Error(ctx, lastErr, "retry budget exhausted", map[string]interface{}{
		"protocol": protocol,
		"attempts": maxAttempts,
	})
	return nil, fmt.Errorf("%s failed after %d attempts: %w", protocol, maxAttempts, lastErr)
}

func entryPrice(d domain.Direction, tick domain.Tick) float64 {
	if d == domain.Short {
		return tick.Bid
	}
	return tick.Ask
}
