package indicators

import (
	"context"
	"testing"

	"aurumbot/internal/domain"
)

func closesToCandles(closes []float64) []domain.Candle {
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{Close: c}
	}
	return candles
}

func TestMovingAverage_Calculate(t *testing.T) {
	tests := []struct {
		name          string
		config        MovingAverageConfig
		closes        []float64
		expectedValue float64
		expectError   bool
	}{
		{
			name: "SMA with sufficient data",
			config: MovingAverageConfig{
				IndicatorConfig: IndicatorConfig{Period: 3},
				Type:            SimpleMovingAverage,
			},
			closes:        []float64{100, 102, 104, 106},
			expectedValue: 104, // (102+104+106)/3
		},
		{
			name: "SMA insufficient data",
			config: MovingAverageConfig{
				IndicatorConfig: IndicatorConfig{Period: 5},
				Type:            SimpleMovingAverage,
			},
			closes:      []float64{100, 102},
			expectError: true,
		},
		{
			name: "EMA with sufficient data",
			config: MovingAverageConfig{
				IndicatorConfig: IndicatorConfig{Period: 3},
				Type:            ExponentialMovingAverage,
			},
			closes:        []float64{100, 102, 104, 106},
			expectedValue: 104, // seed SMA 102, then (106-102)*0.5+102
		},
		{
			name: "Unsupported type",
			config: MovingAverageConfig{
				IndicatorConfig: IndicatorConfig{Period: 3},
				Type:            MovingAverageType("WMA"),
			},
			closes:      []float64{100, 102, 104},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ma := NewMovingAverage(tt.config)
			value, err := ma.Calculate(context.Background(), closesToCandles(tt.closes))

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if value-tt.expectedValue > 0.0001 || value-tt.expectedValue < -0.0001 {
				t.Errorf("Expected value %f, got %f", tt.expectedValue, value)
			}
		})
	}
}
