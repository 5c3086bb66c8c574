package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/events"
	"aurumbot/internal/executor"
	"aurumbot/internal/indicators"
	"aurumbot/internal/ports"
)

// runCycle executes one decision cycle for the given mode. Monitoring only
// refreshes the market view; active modes review open positions and then
// consider a new entry when flat.
func (c *Controller) runCycle(ctx context.Context, mode domain.Mode) error {
	cfg := c.settings.Get()

	strat, ok := c.strategies[mode]
	if !ok {
		return c.observe(ctx)
	}

	snap, err := c.market.Snapshot(ctx, strat.EntryTimeframe(), strat.ConfirmTimeframe(), strat.RequiredDataPoints())
	if err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}
	c.publishCycle(ctx, snap)

	open, err := c.positions.Review(ctx, strat, snap, cfg)
	if err != nil {
		return err
	}
	if open > 0 {
		// One position at a time; entries wait until flat.
		return nil
	}

	sig, err := strat.EvaluateEntry(ctx, snap, cfg)
	if err != nil {
		return fmt.Errorf("entry evaluation failed: %w", err)
	}
	if sig.None() {
		return nil
	}

	c.logger.Info(ctx, "entry signal", map[string]interface{}{
		"mode":       string(mode),
		"direction":  string(sig.Direction),
		"confidence": sig.Confidence,
		"reason":     sig.Reason,
	})
	c.publish(events.KindSignal, sig.Reason, map[string]interface{}{
		"mode":       string(mode),
		"direction":  string(sig.Direction),
		"confidence": sig.Confidence,
	})

	return c.enter(ctx, mode, sig, snap, cfg)
}

// observe refreshes the market view without trading. Used by Monitoring.
func (c *Controller) observe(ctx context.Context) error {
	snap, err := c.market.Snapshot(ctx, domain.TimeframeM5, domain.TimeframeH1, indicators.TrendSeriesDepth)
	if err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}
	c.publishCycle(ctx, snap)
	return nil
}

// enter sizes and submits an order for the signal. Signal overrides replace
// the configured stop and target distances before sizing so the executor
// attaches consistent protective prices.
func (c *Controller) enter(ctx context.Context, mode domain.Mode, sig domain.Signal, snap *domain.MarketSnapshot, cfg domain.TradeSettings) error {
	eff := cfg
	if sig.StopLossPips > 0 {
		eff.StopLossPips = sig.StopLossPips
	}
	if sig.TakeProfitPips > 0 {
		eff.TakeProfitPips = sig.TakeProfitPips
	}

	var volume float64
	var err error
	if sig.RiskBudgetUSD > 0 {
		volume, err = c.sizer.SizeWithBudget(ctx, sig.RiskBudgetUSD, snap.Info, eff)
	} else {
		volume, err = c.sizer.Size(ctx, snap.Account, snap.Info, eff)
	}
	if err != nil {
		if errors.Is(err, ports.ErrZeroQuantity) {
			c.logger.Warn(ctx, "sized to zero volume, skipping entry", map[string]interface{}{
				"mode": string(mode),
			})
			return nil
		}
		return err
	}

	// A dollar profit target converts to a price distance at the sized
	// volume when the signal left the target distance open.
	if sig.TakeProfitPips == 0 && sig.RiskBudgetUSD > 0 && snap.Info.PipValue > 0 && volume > 0 {
		eff.TakeProfitPips = cfg.TargetProfitUSD / (volume * snap.Info.PipValue)
	}

	intent := executor.Intent{
		Symbol:    c.symbol,
		Direction: sig.Direction,
		Volume:    volume,
		Protocol:  cfg.Protocol,
		Comment:   fmt.Sprintf("%s %s", mode, sig.Reason),
	}

	report, err := c.executor.Execute(ctx, intent, snap, eff)
	if err != nil {
		c.publish(events.KindError, "entry failed", map[string]interface{}{
			"mode":   string(mode),
			"result": string(domain.ResultEntryFailed),
			"error":  err.Error(),
		})
		return fmt.Errorf("entry execution failed: %w", err)
	}

	c.logger.Info(ctx, "entry executed", map[string]interface{}{
		"mode":     string(mode),
		"ticket":   report.Ticket,
		"volume":   report.Volume,
		"price":    report.FillPrice,
		"resting":  report.Resting,
		"attempts": report.Attempts,
	})
	c.publish(events.KindOrder, "order placed", map[string]interface{}{
		"mode":    string(mode),
		"result":  string(domain.ResultEntered),
		"ticket":  report.Ticket,
		"volume":  report.Volume,
		"price":   report.FillPrice,
		"resting": report.Resting,
	})
	return nil
}

// publishCycle reports the per-cycle market view for presenters.
func (c *Controller) publishCycle(ctx context.Context, snap *domain.MarketSnapshot) {
	if c.bus == nil {
		return
	}
	fields := map[string]interface{}{
		"bid":    snap.Tick.Bid,
		"ask":    snap.Tick.Ask,
		"spread": snap.SpreadPoints(),
		"trend":  string(snap.Entry.Trend),
		"higher": string(snap.Higher.Trend),
	}
	if len(snap.Entry.Candles) > 0 {
		fields["close"] = snap.Entry.Last().Close
		fields["rsi"] = snap.Entry.Indicators.RSI
		fields["atr"] = snap.Entry.Indicators.ATR
	}
	if c.news != nil {
		if impact, evs, err := c.news.ActiveImpact(ctx, time.Now()); err == nil {
			title := ""
			if len(evs) > 0 {
				title = evs[0].Title
			}
			if impact != domain.ImpactNone {
				fields["news"] = string(impact)
				if title != "" {
					fields["news_event"] = title
				}
			}
			// Announce impact-level transitions once rather than every cycle.
			if impact != c.lastNews {
				c.lastNews = impact
				c.bus.Publish(events.KindNews, "news impact changed", map[string]interface{}{
					"impact": string(impact),
					"event":  title,
				})
			}
		}
	}
	c.bus.Publish(events.KindCycle, "market view", fields)
}
