package ports

import (
	"context"

	"aurumbot/internal/domain"
)

// TradeRepository defines the interface for storing and retrieving completed
// trades. Session counters stay in memory; the repository is the durable
// history only.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindBySymbol retrieves the most recent trades for a symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Trade, error)
	// CountTodayBySymbol counts the trades closed today for a symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
	// TotalProfitBySymbol sums realized profit across all stored trades.
	TotalProfitBySymbol(ctx context.Context, symbol string) (float64, error)
	// Close releases the underlying store.
	Close() error
}
