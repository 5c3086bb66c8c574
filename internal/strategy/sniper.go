package strategy

import (
	"context"
	"fmt"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// Minimum spacing between sniper entries.
const sniperCooldown = 30 * time.Second

// EntryRule is a pluggable sniper entry condition evaluated each cycle.
type EntryRule interface {
	Name() string
	Evaluate(ctx context.Context, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.Signal, error)
}

// Sniper runs a fast M1 cycle gated by an injected entry rule and a
// per-entry cooldown. Without a rule it never proposes an entry; exits are
// still managed for positions opened manually or by a previous rule.
type Sniper struct {
	rule      EntryRule
	logger    ports.Logger
	lastEntry time.Time
}

// NewSniper creates the sniper strategy. A nil rule disables entries.
func NewSniper(rule EntryRule, logger ports.Logger) *Sniper {
	return &Sniper{rule: rule, logger: logger}
}

func (s *Sniper) Mode() domain.Mode { return domain.ModeSniper }

func (s *Sniper) RequiredDataPoints() int { return 50 }

func (s *Sniper) EntryTimeframe() domain.Timeframe { return domain.TimeframeM1 }

func (s *Sniper) ConfirmTimeframe() domain.Timeframe { return domain.TimeframeM5 }

func (s *Sniper) EvaluateEntry(ctx context.Context, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.Signal, error) {
	if s.rule == nil {
		return domain.Signal{Direction: domain.None}, nil
	}
	if !s.lastEntry.IsZero() && snap.TakenAt.Sub(s.lastEntry) < sniperCooldown {
		return domain.Signal{Direction: domain.None}, nil
	}

	sig, err := s.rule.Evaluate(ctx, snap, settings)
	if err != nil {
		return domain.Signal{Direction: domain.None}, fmt.Errorf("entry rule %s: %w", s.rule.Name(), err)
	}
	if !sig.None() {
		s.lastEntry = snap.TakenAt
		if sig.Reason == "" {
			sig.Reason = s.rule.Name()
		}
	}
	return sig, nil
}

// EvaluateExit applies the shared loss, profit, and hold-limit rules.
func (s *Sniper) EvaluateExit(ctx context.Context, pos *domain.Position, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.ExitDecision, domain.StopAdjustment, error) {
	var none domain.StopAdjustment

	if pos.ProfitUSD <= -settings.TargetLossUSD {
		return domain.ClosePosition(domain.CloseReasonStopOut,
			fmt.Sprintf("loss %.2f reached cutoff %.2f", pos.ProfitUSD, settings.TargetLossUSD)), none, nil
	}
	if pos.ProfitUSD >= settings.TargetProfitUSD {
		return domain.ClosePosition(domain.CloseReasonProfitTarget,
			fmt.Sprintf("profit %.2f reached target %.2f", pos.ProfitUSD, settings.TargetProfitUSD)), none, nil
	}
	if pos.HoldDuration(snap.TakenAt) >= time.Duration(settings.MaxHoldMinutes)*time.Minute {
		return domain.ClosePosition(domain.CloseReasonTimeLimit,
			fmt.Sprintf("held past %d minute limit", settings.MaxHoldMinutes)), none, nil
	}
	return domain.HoldPosition, none, nil
}
