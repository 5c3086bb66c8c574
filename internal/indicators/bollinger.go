package indicators

import (
	"context"
	"fmt"
	"math"

	"aurumbot/internal/domain"
)

// BollingerConfig holds configuration for the Bollinger band width indicator
type BollingerConfig struct {
	IndicatorConfig
	StdDevs float64
}

// BollingerWidth computes the distance between the upper and lower Bollinger
// bands, a volatility proxy used as a classifier feature.
type BollingerWidth struct {
	BaseIndicator
	config BollingerConfig
}

// NewBollingerWidth creates a new Bollinger band width indicator instance
func NewBollingerWidth(config BollingerConfig) *BollingerWidth {
	if config.StdDevs == 0 {
		config.StdDevs = 2
	}
	return &BollingerWidth{
		BaseIndicator: BaseIndicator{Config: config.IndicatorConfig},
		config:        config,
	}
}

// Name returns the name of the indicator
func (b *BollingerWidth) Name() string {
	return "BBWidth"
}

// Calculate computes the band width for the most recent bar
func (b *BollingerWidth) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	period := b.Config.Period
	if len(candles) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate Bollinger width for period %d", len(candles), period)
	}

	window := candles[len(candles)-period:]
	mean := 0.0
	for _, c := range window {
		mean += c.Close
	}
	mean /= float64(period)

	variance := 0.0
	for _, c := range window {
		d := c.Close - mean
		variance += d * d
	}
	variance /= float64(period)

	return 2 * b.config.StdDevs * math.Sqrt(variance), nil
}
