package ports

import (
	"context"

	"aurumbot/internal/domain"
)

// MarketData provides consistent per-cycle market snapshots. Implementations
// own the refresh cadence; Snapshot never blocks on the venue.
type MarketData interface {
	// Snapshot builds the current market view for the given timeframes.
	Snapshot(ctx context.Context, entry, higher domain.Timeframe, depth int) (*domain.MarketSnapshot, error)

	// Start begins the background refresh loop. Safe to call once.
	Start(ctx context.Context) error

	// Stop halts the refresh loop and releases resources.
	Stop()
}
