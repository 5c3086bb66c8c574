// Package engine owns the operating-mode state machine and the per-mode
// decision cycle that drives strategy evaluation, sizing, and execution.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/events"
	"aurumbot/internal/executor"
	"aurumbot/internal/ports"
	"aurumbot/internal/position"
	"aurumbot/internal/risk"
	"aurumbot/internal/settings"
)

// Cycle periods per operating mode.
const (
	monitoringPeriod     = 5 * time.Second
	trendFollowingPeriod = 60 * time.Second
	scalpingPeriod       = 5 * time.Second
	sniperPeriod         = 3 * time.Second
)

// BotStatus is the externally visible state of the bot.
type BotStatus struct {
	Mode        domain.Mode
	Since       time.Time
	Counters    domain.OutcomeCounters
	LastTrade   *domain.Trade
	LastCycleAt time.Time
	OpenCount   int
}

// Config holds the controller dependencies.
type Config struct {
	Logger     ports.Logger
	Market     ports.MarketData
	Classifier ports.Classifier
	News       ports.NewsCalendar
	Settings   *settings.Store
	Sizer      *risk.Sizer
	Executor   *executor.Executor
	Positions  *position.Manager
	Strategies []ports.Strategy
	Bus        *events.Bus
	Symbol     string
}

// Controller is the operating-mode state machine. One mode is active at a
// time; entering an active mode starts a cycle timer at that mode's period
// and runs the first cycle immediately.
type Controller struct {
	logger     ports.Logger
	market     ports.MarketData
	classifier ports.Classifier
	news       ports.NewsCalendar
	settings   *settings.Store
	sizer      *risk.Sizer
	executor   *executor.Executor
	positions  *position.Manager
	strategies map[domain.Mode]ports.Strategy
	bus        *events.Bus
	symbol     string

	mu      sync.Mutex
	mode    domain.Mode
	since   time.Time
	stopCh  chan struct{}
	loopWG  sync.WaitGroup
	busy    atomic.Bool
	lastRun atomic.Int64 // unix nanos of the last completed cycle

	// lastNews tracks the reported impact level; only the cycle loop touches
	// it, and loops never overlap.
	lastNews domain.NewsImpact
}

// NewController creates the mode controller in the Stopped state.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Market == nil {
		return nil, fmt.Errorf("market data is required")
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	if cfg.Positions == nil {
		return nil, fmt.Errorf("position manager is required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	strategies := make(map[domain.Mode]ports.Strategy, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		strategies[s.Mode()] = s
	}

	return &Controller{
		logger:     cfg.Logger,
		market:     cfg.Market,
		classifier: cfg.Classifier,
		news:       cfg.News,
		settings:   cfg.Settings,
		sizer:      cfg.Sizer,
		executor:   cfg.Executor,
		positions:  cfg.Positions,
		strategies: strategies,
		bus:        cfg.Bus,
		symbol:     cfg.Symbol,
		mode:       domain.ModeStopped,
		since:      time.Now(),
		lastNews:   domain.ImpactNone,
	}, nil
}

// Mode returns the current operating mode.
func (c *Controller) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Status returns the current bot status.
func (c *Controller) Status(ctx context.Context) BotStatus {
	c.mu.Lock()
	mode, since := c.mode, c.since
	c.mu.Unlock()

	status := BotStatus{
		Mode:      mode,
		Since:     since,
		Counters:  c.positions.Counters(),
		LastTrade: c.positions.LastTrade(),
	}
	if ns := c.lastRun.Load(); ns > 0 {
		status.LastCycleAt = time.Unix(0, ns)
	}
	if open, err := c.positions.OpenCount(ctx); err == nil {
		status.OpenCount = open
	}
	return status
}

// Toggle requests the given mode. Requesting the mode already active returns
// the bot to Stopped. Entering TrendFollowing without a loaded classifier is
// refused and the bot reverts to Stopped.
func (c *Controller) Toggle(ctx context.Context, requested domain.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := requested
	if requested == c.mode {
		target = domain.ModeStopped
	}

	// Stop the running timer before any transition.
	c.stopLoopLocked()

	if target == domain.ModeTrendFollowing && (c.classifier == nil || !c.classifier.Ready()) {
		c.setModeLocked(ctx, domain.ModeStopped)
		err := fmt.Errorf("cannot enter %s: %w", target, ports.ErrModelNotReady)
		c.logger.Error(ctx, err, "mode transition refused")
		c.publish(events.KindError, "trend following unavailable, classifier not loaded", nil)
		return err
	}

	c.setModeLocked(ctx, target)
	if target != domain.ModeStopped {
		c.startLoopLocked(target)
	}
	return nil
}

// Stop returns the bot to Stopped and halts the cycle timer.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLoopLocked()
	c.setModeLocked(ctx, domain.ModeStopped)
}

func (c *Controller) setModeLocked(ctx context.Context, mode domain.Mode) {
	if mode == c.mode {
		return
	}
	prev := c.mode
	c.mode = mode
	c.since = time.Now()
	c.logger.Info(ctx, "operating mode changed", map[string]interface{}{
		"from": string(prev),
		"to":   string(mode),
	})
	c.publish(events.KindModeChanged, fmt.Sprintf("mode %s", mode), map[string]interface{}{
		"from": string(prev),
		"to":   string(mode),
	})
}

func (c *Controller) startLoopLocked(mode domain.Mode) {
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	c.loopWG.Add(1)
	go c.runLoop(mode, cyclePeriod(mode), stopCh)
}

func (c *Controller) stopLoopLocked() {
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	c.stopCh = nil
	// The loop goroutine never takes c.mu, so waiting under the lock is safe.
	c.loopWG.Wait()
}

func (c *Controller) runLoop(mode domain.Mode, period time.Duration, stopCh chan struct{}) {
	defer c.loopWG.Done()

	// First cycle runs immediately on mode entry.
	c.tick(mode)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.tick(mode)
		}
	}
}

// tick runs one cycle unless the previous one is still executing, in which
// case the tick is dropped.
func (c *Controller) tick(mode domain.Mode) {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug(context.Background(), "cycle still running, tick dropped",
			map[string]interface{}{"mode": string(mode)})
		return
	}
	defer c.busy.Store(false)

	ctx := context.Background()
	if err := c.runCycle(ctx, mode); err != nil {
		c.logger.Error(ctx, err, "decision cycle failed", map[string]interface{}{"mode": string(mode)})
		c.publish(events.KindError, "cycle failed", map[string]interface{}{
			"mode":  string(mode),
			"error": err.Error(),
		})
	}
	c.lastRun.Store(time.Now().UnixNano())
}

func (c *Controller) publish(kind events.Kind, msg string, fields map[string]interface{}) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(kind, msg, fields)
}

func cyclePeriod(mode domain.Mode) time.Duration {
	switch mode {
	case domain.ModeTrendFollowing:
		return trendFollowingPeriod
	case domain.ModeScalping:
		return scalpingPeriod
	case domain.ModeSniper:
		return sniperPeriod
	default:
		return monitoringPeriod
	}
}
