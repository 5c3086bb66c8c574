// Package marketdata assembles per-cycle market snapshots. A background
// refresher keeps the account and symbol view current at a fixed cadence;
// the venue tick stream updates the cached tick between polls.
package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/indicators"
	"aurumbot/internal/ports"
)

const refreshInterval = 1 * time.Second

// Service implements ports.MarketData against the trading venue.
type Service struct {
	venue  ports.TradingVenue
	set    *indicators.Set
	logger ports.Logger
	symbol string

	mu      sync.RWMutex
	tick    domain.Tick
	account domain.AccountInfo
	info    domain.SymbolInfo
	hasData bool

	cancel       context.CancelFunc
	done         chan struct{}
	streamStopCh chan struct{}
	started      bool
}

// New creates a market data service for one symbol.
func New(venue ports.TradingVenue, symbol string, logger ports.Logger) *Service {
	return &Service{
		venue:  venue,
		set:    indicators.NewSet(),
		logger: logger,
		symbol: symbol,
	}
}

// Start primes the cache and begins the refresh loop.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return nil
	}

	if err := s.refreshOnce(ctx); err != nil {
		return fmt.Errorf("initial market data fetch failed: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	// Stream failures are not fatal; the poll loop still refreshes the tick.
	_, stopCh, err := s.venue.StreamTicks(loopCtx, s.symbol, s.onTick, func(err error) {
		s.logger.Warn(loopCtx, "tick stream failed, relying on polling", map[string]interface{}{
			"symbol": s.symbol,
			"error":  err.Error(),
		})
	})
	if err != nil {
		s.logger.Warn(ctx, "tick stream unavailable, relying on polling", map[string]interface{}{
			"symbol": s.symbol,
			"error":  err.Error(),
		})
	} else {
		s.streamStopCh = stopCh
	}

	go s.loop(loopCtx)
	return nil
}

// onTick publishes a streamed tick into the cache.
func (s *Service) onTick(tick domain.Tick) {
	s.mu.Lock()
	s.tick = tick
	s.mu.Unlock()
}

// Stop halts the refresh loop.
func (s *Service) Stop() {
	if !s.started {
		return
	}
	if s.streamStopCh != nil {
		close(s.streamStopCh)
		s.streamStopCh = nil
	}
	s.cancel()
	<-s.done
	s.started = false
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refreshOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn(ctx, "market refresh failed", map[string]interface{}{
					"symbol": s.symbol,
					"error":  err.Error(),
				})
			}
		}
	}
}

// refreshOnce pulls the tick, account, and symbol rules and publishes them
// atomically.
func (s *Service) refreshOnce(ctx context.Context) error {
	tick, err := s.venue.GetTick(ctx, s.symbol)
	if err != nil {
		return err
	}
	account, err := s.venue.GetAccountInfo(ctx)
	if err != nil {
		return err
	}
	info, err := s.venue.GetSymbolInfo(ctx, s.symbol)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tick = *tick
	s.account = *account
	s.info = *info
	s.hasData = true
	s.mu.Unlock()
	return nil
}

// Snapshot builds the current market view for the given timeframes. Candles
// are fetched fresh; tick, account, and symbol rules come from the refresher
// cache.
func (s *Service) Snapshot(ctx context.Context, entry, higher domain.Timeframe, depth int) (*domain.MarketSnapshot, error) {
	s.mu.RLock()
	tick, account, info, ok := s.tick, s.account, s.info, s.hasData
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrStaleData
	}

	if depth < indicators.MinSeriesDepth {
		depth = indicators.MinSeriesDepth
	}

	entrySeries, err := s.series(ctx, entry, depth)
	if err != nil {
		return nil, fmt.Errorf("entry series %s: %w", entry, err)
	}
	higherSeries, err := s.series(ctx, higher, depth)
	if err != nil {
		return nil, fmt.Errorf("higher series %s: %w", higher, err)
	}

	return &domain.MarketSnapshot{
		Symbol:  s.symbol,
		Tick:    tick,
		Entry:   entrySeries,
		Higher:  higherSeries,
		Info:    info,
		Account: account,
		TakenAt: time.Now(),
	}, nil
}

func (s *Service) series(ctx context.Context, tf domain.Timeframe, depth int) (domain.SeriesSnapshot, error) {
	candles, err := s.venue.GetCandles(ctx, s.symbol, tf, depth)
	if err != nil {
		return domain.SeriesSnapshot{}, err
	}

	set, err := s.set.Compute(ctx, candles)
	if err != nil {
		return domain.SeriesSnapshot{}, err
	}

	return domain.SeriesSnapshot{
		Timeframe:  tf,
		Candles:    candles,
		Indicators: set,
		Trend:      s.set.ClassifyTrend(ctx, candles),
	}, nil
}
