// Package position manages the lifecycle of open positions: per-cycle exit
// review, protective stop maintenance, closing, and outcome bookkeeping.
package position

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/events"
	"aurumbot/internal/ports"
)

const (
	// closeDeviation is the max slippage in points accepted on a close.
	closeDeviation = 10
	// closeRetryDelay is the pause before retrying a requoted close.
	closeRetryDelay = 500 * time.Millisecond
)

// Config holds the dependencies for the position manager.
type Config struct {
	Venue      ports.TradingVenue
	Repository ports.TradeRepository
	Logger     ports.Logger
	Bus        *events.Bus
	Symbol     string
	// MaxRetry bounds close retries on transient return codes.
	MaxRetry int
}

// Manager reviews open positions against the active strategy each cycle,
// closes those the strategy rejects, applies stop adjustments, and records
// completed trades.
type Manager struct {
	venue  ports.TradingVenue
	repo   ports.TradeRepository
	logger ports.Logger
	bus    *events.Bus
	symbol string
	retry  int

	mu        sync.Mutex
	counters  domain.OutcomeCounters
	lastTrade *domain.Trade

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a position manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Venue == nil {
		return nil, fmt.Errorf("venue is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	retry := cfg.MaxRetry
	if retry < 0 {
		retry = 0
	}
	return &Manager{
		venue:  cfg.Venue,
		repo:   cfg.Repository,
		logger: cfg.Logger,
		bus:    cfg.Bus,
		symbol: cfg.Symbol,
		retry:  retry,
		sleep:  sleepCtx,
	}, nil
}

func (m *Manager) publish(kind events.Kind, msg string, fields map[string]interface{}) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(kind, msg, fields)
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

// Review fetches the open positions for the managed symbol and runs each
// through the strategy's exit evaluation. Positions the strategy rejects are
// closed; stop adjustments are applied to the rest. Returns the number of
// positions still open after the review.
func (m *Manager) Review(ctx context.Context, strat ports.Strategy, snap *domain.MarketSnapshot, settings domain.TradeSettings) (int, error) {
	positions, err := m.venue.OpenPositions(ctx, m.symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to list open positions: %w", err)
	}

	open := 0
	for i := range positions {
		pos := positions[i]
		decision, adjust, err := strat.EvaluateExit(ctx, &pos, snap, settings)
		if err != nil {
			m.logger.Error(ctx, err, "exit evaluation failed, holding position",
				map[string]interface{}{"ticket": pos.Ticket})
			open++
			continue
		}

		if decision.Close {
			if err := m.Close(ctx, &pos, decision.Reason, decision.Detail); err != nil {
				m.logger.Error(ctx, err, "failed to close position",
					map[string]interface{}{"ticket": pos.Ticket, "reason": string(decision.Reason)})
				open++
			}
			continue
		}

		open++
		if adjust.Requested() {
			m.applyStop(ctx, &pos, adjust)
		}
	}
	return open, nil
}

// OpenCount returns the number of open positions for the managed symbol.
func (m *Manager) OpenCount(ctx context.Context) (int, error) {
	positions, err := m.venue.OpenPositions(ctx, m.symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to list open positions: %w", err)
	}
	return len(positions), nil
}

// Close closes a single position at market and records the completed trade.
// Transient return codes are retried at the configured budget.
func (m *Manager) Close(ctx context.Context, pos *domain.Position, reason domain.CloseReason, detail string) error {
	m.logger.Info(ctx, "closing position", map[string]interface{}{
		"ticket": pos.Ticket,
		"reason": string(reason),
		"detail": detail,
		"profit": pos.ProfitUSD,
	})

	res, err := m.closeWithRetry(ctx, pos.Ticket)
	if err != nil {
		m.publish(events.KindError, "close failed", map[string]interface{}{
			"ticket": pos.Ticket,
			"result": string(domain.ResultCloseFailed),
			"reason": string(reason),
			"error":  err.Error(),
		})
		return err
	}

	m.recordTrade(ctx, pos, res, reason)
	return nil
}

// CloseAll closes every open position for the managed symbol, e.g. on a high
// impact news event or shutdown. It keeps going after individual failures and
// returns the first error encountered.
func (m *Manager) CloseAll(ctx context.Context, reason domain.CloseReason, detail string) error {
	positions, err := m.venue.OpenPositions(ctx, m.symbol)
	if err != nil {
		return fmt.Errorf("failed to list open positions: %w", err)
	}
	var firstErr error
	for i := range positions {
		if err := m.Close(ctx, &positions[i], reason, detail); err != nil {
			m.logger.Error(ctx, err, "failed to close position",
				map[string]interface{}{"ticket": positions[i].Ticket})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) closeWithRetry(ctx context.Context, ticket int64) (*ports.OrderResult, error) {
	var lastErr error
	attempts := m.retry + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := m.venue.ClosePosition(ctx, ticket, closeDeviation)
		if err != nil {
			return nil, fmt.Errorf("close rejected by venue: %w", err)
		}
		if res.RetCode.Success() {
			return res, nil
		}
		lastErr = fmt.Errorf("close returned %d (%s)", res.RetCode, res.Comment)
		if !res.RetCode.Transient() {
			return nil, lastErr
		}
		m.logger.Warn(ctx, "close requoted, retrying", map[string]interface{}{
			"ticket":  ticket,
			"attempt": attempt,
			"retcode": int(res.RetCode),
		})
		if err := m.sleep(ctx, closeRetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("close retry budget exhausted: %w", lastErr)
}

// applyStop moves the protective stop when the candidate tightens it. A stop
// is never loosened.
func (m *Manager) applyStop(ctx context.Context, pos *domain.Position, adjust domain.StopAdjustment) {
	if !pos.StopImproves(adjust.NewStop) {
		return
	}
	res, err := m.venue.ModifyPosition(ctx, pos.Ticket, adjust.NewStop, pos.TakeProfit)
	if err != nil {
		m.logger.Error(ctx, err, "failed to modify protective stop",
			map[string]interface{}{"ticket": pos.Ticket, "new_stop": adjust.NewStop})
		return
	}
	if !res.RetCode.Success() && res.RetCode != ports.RetNoChanges {
		m.logger.Warn(ctx, "stop modification not applied", map[string]interface{}{
			"ticket":  pos.Ticket,
			"retcode": int(res.RetCode),
			"comment": res.Comment,
		})
		return
	}
	m.logger.Info(ctx, "protective stop moved", map[string]interface{}{
		"ticket":   pos.Ticket,
		"old_stop": pos.StopLoss,
		"new_stop": adjust.NewStop,
		"detail":   adjust.Detail,
	})
	pos.StopLoss = adjust.NewStop
}

func (m *Manager) recordTrade(ctx context.Context, pos *domain.Position, res *ports.OrderResult, reason domain.CloseReason) {
	trade := domain.Trade{
		Ticket:     pos.Ticket,
		Symbol:     pos.Symbol,
		Direction:  pos.Direction,
		Volume:     pos.Volume,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  res.Price,
		ProfitUSD:  pos.ProfitUSD,
		Reason:     reason,
		Mode:       pos.Mode,
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   time.Now(),
	}
	result := trade.Result()

	m.mu.Lock()
	m.counters.Record(result)
	m.lastTrade = &trade
	m.mu.Unlock()

	m.logger.Info(ctx, "position closed", map[string]interface{}{
		"ticket": trade.Ticket,
		"result": string(result),
		"profit": trade.ProfitUSD,
		"reason": string(reason),
	})
	m.publish(events.KindTradeClosed, "position closed", map[string]interface{}{
		"ticket": trade.Ticket,
		"result": string(result),
		"profit": trade.ProfitUSD,
		"reason": string(reason),
		"mode":   string(trade.Mode),
	})

	if m.repo == nil {
		return
	}
	id, err := m.repo.CreateTrade(ctx, &trade)
	if err != nil {
		// History is best effort; the session counters already updated.
		m.logger.Error(ctx, err, "failed to persist trade", map[string]interface{}{"ticket": trade.Ticket})
		return
	}
	trade.ID = id
}

// Counters returns a snapshot of the session outcome counters.
func (m *Manager) Counters() domain.OutcomeCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters
}

// LastTrade returns the most recently closed trade this session, or nil.
func (m *Manager) LastTrade() *domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastTrade == nil {
		return nil
	}
	t := *m.lastTrade
	return &t
}
