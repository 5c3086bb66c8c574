// Package risk computes order volume from the account risk budget and the
// protective stop distance.
package risk

import (
	"context"
	"fmt"
	"math"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// Sizer converts a risk budget into an order volume respecting the venue's
// volume constraints.
type Sizer struct {
	logger ports.Logger
}

// NewSizer creates a new position sizer.
func NewSizer(logger ports.Logger) *Sizer {
	return &Sizer{logger: logger}
}

// Size computes the order volume for a trade. The risk budget is
// balance * riskPercent; the per-lot exposure is stopLossPips * pipValue.
// The result is clamped to the venue's volume bounds and snapped to its
// volume step. A non-positive balance, stop distance or pip value means
// no position can be sized safely, so the result is zero.
func (s *Sizer) Size(ctx context.Context, account domain.AccountInfo, info domain.SymbolInfo, settings domain.TradeSettings) (float64, error) {
	min, max, step := info.VolumeBounds()

	if account.Balance <= 0 || settings.StopLossPips <= 0 || info.PipValue <= 0 {
		s.logger.Warn(ctx, "risk sizing inputs unusable, refusing to size", map[string]interface{}{
			"balance":       account.Balance,
			"stop_loss_pip": settings.StopLossPips,
			"pip_value":     info.PipValue,
		})
		return 0, fmt.Errorf("%w: unusable sizing inputs", ports.ErrZeroQuantity)
	}

	budget := account.Balance * settings.RiskPercent / 100
	perLotRisk := settings.StopLossPips * info.PipValue
	volume := budget / perLotRisk

	s.logger.Debug(ctx, "risk sizing computed", map[string]interface{}{
		"budget":       budget,
		"per_lot_risk": perLotRisk,
		"raw_volume":   volume,
	})

	return s.clamp(volume, min, max, step)
}

// SizeWithBudget computes the order volume for a fixed dollar risk budget
// instead of a percentage of balance. The stop distance comes from the
// settings, which the caller has already overlaid with any signal overrides.
// Unusable inputs size to zero, same as Size.
func (s *Sizer) SizeWithBudget(ctx context.Context, budgetUSD float64, info domain.SymbolInfo, settings domain.TradeSettings) (float64, error) {
	min, max, step := info.VolumeBounds()

	if budgetUSD <= 0 || settings.StopLossPips <= 0 || info.PipValue <= 0 {
		s.logger.Warn(ctx, "budget sizing inputs unusable, refusing to size", map[string]interface{}{
			"budget":        budgetUSD,
			"stop_loss_pip": settings.StopLossPips,
			"pip_value":     info.PipValue,
		})
		return 0, fmt.Errorf("%w: unusable sizing inputs", ports.ErrZeroQuantity)
	}

	volume := budgetUSD / (settings.StopLossPips * info.PipValue)
	return s.clamp(volume, min, max, step)
}

func (s *Sizer) clamp(volume, min, max, step float64) (float64, error) {
	v := domain.RoundVolume(volume, min, max, step)
	if v <= 0 {
		return 0, fmt.Errorf("%w: volume %.4f after rounding", ports.ErrZeroQuantity, volume)
	}
	return v, nil
}

// StopPrices derives the stop-loss and take-profit prices for an entry at
// the given price.
func StopPrices(direction domain.Direction, entry float64, info domain.SymbolInfo, settings domain.TradeSettings) (stopLoss, takeProfit float64) {
	slDist := settings.StopLossPips * info.PipSize
	tpDist := settings.TakeProfitPips * info.PipSize
	if direction == domain.Short {
		return entry + slDist, entry - tpDist
	}
	return entry - slDist, entry + tpDist
}

// StopPipsFromATR derives a volatility-scaled stop distance in pips, with a
// floor of 2 pips so quiet markets never produce a degenerate stop.
func StopPipsFromATR(atr float64, info domain.SymbolInfo) float64 {
	if info.PipSize <= 0 {
		return 2
	}
	return math.Max(math.Round(atr/info.PipSize), 2)
}
