package indicators

import (
	"context"
	"fmt"

	"aurumbot/internal/domain"
)

// OBVConfig holds configuration for the On-Balance Volume indicator
type OBVConfig struct {
	IndicatorConfig
}

// OBV implements the On-Balance Volume indicator
type OBV struct {
	config OBVConfig
}

// NewOBV creates a new On-Balance Volume indicator instance
func NewOBV(config OBVConfig) *OBV {
	return &OBV{config: config}
}

// Name returns the name of the indicator
func (o *OBV) Name() string {
	return "OBV"
}

// RequiredDataPoints returns the minimum number of candles needed for calculation
func (o *OBV) RequiredDataPoints() int {
	if o.config.Period < 2 {
		return 2
	}
	return o.config.Period
}

// Calculate accumulates signed volume over the series
func (o *OBV) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	if len(candles) < 2 {
		return 0, fmt.Errorf("not enough data (%d) to calculate OBV", len(candles))
	}

	obv := 0.0
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += float64(candles[i].Volume)
		case candles[i].Close < candles[i-1].Close:
			obv -= float64(candles[i].Volume)
		}
	}
	return obv, nil
}
