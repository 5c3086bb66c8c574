package ports

import (
	"context"

	"aurumbot/internal/domain"
)

// Strategy defines the interface for trading strategies. One strategy is
// active at a time, selected by the operating mode.
type Strategy interface {
	// Mode returns the operating mode this strategy serves.
	Mode() domain.Mode

	// RequiredDataPoints returns the minimum number of candles needed for
	// the strategy calculations.
	RequiredDataPoints() int

	// EntryTimeframe returns the timeframe the strategy evaluates entries on.
	EntryTimeframe() domain.Timeframe

	// ConfirmTimeframe returns the higher timeframe used for trend confirmation.
	ConfirmTimeframe() domain.Timeframe

	// EvaluateEntry decides whether to propose a new position this cycle.
	// A signal with direction None means no entry.
	EvaluateEntry(ctx context.Context, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.Signal, error)

	// EvaluateExit decides whether an open position should be closed, and
	// optionally proposes a protective stop adjustment when holding.
	EvaluateExit(ctx context.Context, pos *domain.Position, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.ExitDecision, domain.StopAdjustment, error)
}
