package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
	"aurumbot/internal/risk"
)

const (
	rsiOversold   = 30
	rsiOverbought = 70
	// Stop ratchets to entry plus this many pips once the gain threshold
	// is reached.
	breakEvenPlusPips  = 0.5
	ratchetTriggerPips = 1.0
	// The profit band tops out at the larger of 4x the minimum target and
	// this floor.
	maxProfitMultiple = 4.0
	maxProfitFloorUSD = 2.0
)

// Scalping trades M1 RSI extremes with M5 trend confirmation, tight profit
// bands, and aggressive stop management.
type Scalping struct {
	news   ports.NewsCalendar
	logger ports.Logger
}

// NewScalping creates the scalping strategy.
func NewScalping(news ports.NewsCalendar, logger ports.Logger) *Scalping {
	return &Scalping{news: news, logger: logger}
}

func (s *Scalping) Mode() domain.Mode { return domain.ModeScalping }

func (s *Scalping) RequiredDataPoints() int { return 50 }

func (s *Scalping) EntryTimeframe() domain.Timeframe { return domain.TimeframeM1 }

func (s *Scalping) ConfirmTimeframe() domain.Timeframe { return domain.TimeframeM5 }

// profitBand returns the minimum and maximum scalping profit targets.
func profitBand(settings domain.TradeSettings) (minUSD, maxUSD float64) {
	minUSD = settings.TargetProfitUSD
	maxUSD = math.Max(minUSD*maxProfitMultiple, maxProfitFloorUSD)
	return minUSD, maxUSD
}

// EvaluateEntry proposes an entry on an M1 RSI extreme when the M5 trend
// does not oppose it. Sideways is permissive. Medium or high impact news
// blocks entries entirely.
func (s *Scalping) EvaluateEntry(ctx context.Context, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.Signal, error) {
	impact, _, err := s.news.ActiveImpact(ctx, snap.TakenAt)
	if err != nil {
		s.logger.Warn(ctx, "news lookup failed, assuming no active events", map[string]interface{}{"error": err.Error()})
		impact = domain.ImpactNone
	}
	if impact.AtLeast(domain.ImpactMedium) {
		s.logger.Info(ctx, "entry blocked by active news window", map[string]interface{}{"impact": impact})
		return domain.Signal{Direction: domain.None}, nil
	}

	// Thin markets fake RSI extremes; require real tick volume on the bar.
	if snap.Entry.Last().Volume < float64(settings.MinTickVolume) {
		return domain.Signal{Direction: domain.None}, nil
	}

	rsi := snap.Entry.Indicators.RSI
	trend := snap.Higher.Trend

	var dir domain.Direction
	switch {
	case rsi < rsiOversold && !trend.Opposes(domain.Long):
		dir = domain.Long
	case rsi > rsiOverbought && !trend.Opposes(domain.Short):
		dir = domain.Short
	default:
		return domain.Signal{Direction: domain.None}, nil
	}

	// Volatility-scaled stop with a 2 pip floor; the risk budget is the
	// fixed loss cutoff rather than a balance percentage.
	slPips := risk.StopPipsFromATR(snap.Entry.Indicators.ATR, snap.Info)

	return domain.Signal{
		Direction:     dir,
		Confidence:    1,
		Reason:        fmt.Sprintf("rsi %.2f with M5 trend %s", rsi, trend),
		StopLossPips:  slPips,
		RiskBudgetUSD: settings.TargetLossUSD,
	}, nil
}

// EvaluateExit applies, in order: high impact news flat, loss cutoff, the
// profit band with engulfing early exits, and the hold limit. Holding
// positions ratchet the stop to break-even-plus once up a full pip.
func (s *Scalping) EvaluateExit(ctx context.Context, pos *domain.Position, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.ExitDecision, domain.StopAdjustment, error) {
	var none domain.StopAdjustment

	impact, _, err := s.news.ActiveImpact(ctx, snap.TakenAt)
	if err == nil && impact == domain.ImpactHigh {
		return domain.ClosePosition(domain.CloseReasonNews, "high impact news window active"), none, nil
	}

	minUSD, maxUSD := profitBand(settings)

	if pos.ProfitUSD <= -settings.TargetLossUSD {
		return domain.ClosePosition(domain.CloseReasonStopOut,
			fmt.Sprintf("loss %.2f reached cutoff %.2f", pos.ProfitUSD, settings.TargetLossUSD)), none, nil
	}

	if pos.ProfitUSD >= minUSD {
		if pos.ProfitUSD >= maxUSD {
			return domain.ClosePosition(domain.CloseReasonProfitTarget,
				fmt.Sprintf("profit %.2f reached band maximum %.2f", pos.ProfitUSD, maxUSD)), none, nil
		}
		strength := engulfingStrength(snap.Entry.Candles)
		if strength >= settings.PatternConfidence {
			if pos.Direction == domain.Long && isBearishEngulfing(snap.Entry.Candles) {
				return domain.ClosePosition(domain.CloseReasonPattern,
					fmt.Sprintf("bearish engulfing (%.2f) with profit %.2f past minimum", strength, pos.ProfitUSD)), none, nil
			}
			if pos.Direction == domain.Short && isBullishEngulfing(snap.Entry.Candles) {
				return domain.ClosePosition(domain.CloseReasonPattern,
					fmt.Sprintf("bullish engulfing (%.2f) with profit %.2f past minimum", strength, pos.ProfitUSD)), none, nil
			}
		}
	}

	if pos.HoldDuration(snap.TakenAt) >= time.Duration(settings.MaxHoldMinutes)*time.Minute {
		return domain.ClosePosition(domain.CloseReasonTimeLimit,
			fmt.Sprintf("held past %d minute limit", settings.MaxHoldMinutes)), none, nil
	}

	// Break-even-plus ratchet: once up a full pip, the stop moves to entry
	// plus half a pip. Only ever tightens.
	closeSide := snap.Tick.Bid
	if pos.Direction == domain.Short {
		closeSide = snap.Tick.Ask
	}
	if pos.PipsGained(closeSide, snap.Info.PipSize) >= ratchetTriggerPips {
		candidate := pos.BreakEvenStop(breakEvenPlusPips, snap.Info.PipSize)
		if pos.StopImproves(candidate) {
			return domain.HoldPosition, domain.StopAdjustment{
				NewStop: candidate,
				Detail:  "break-even-plus ratchet",
			}, nil
		}
	}

	return domain.HoldPosition, none, nil
}
