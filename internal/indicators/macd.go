package indicators

import (
	"context"
	"fmt"

	"aurumbot/internal/domain"
)

// MACDConfig holds configuration for the MACD indicator
type MACDConfig struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
}

// MACDValue is the full MACD output for the most recent bar.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD implements the Moving Average Convergence Divergence indicator
type MACD struct {
	config MACDConfig
}

// NewMACD creates a new MACD indicator instance
func NewMACD(config MACDConfig) *MACD {
	return &MACD{config: config}
}

// Name returns the name of the indicator
func (m *MACD) Name() string {
	return "MACD"
}

// RequiredDataPoints returns the minimum number of candles needed for calculation
func (m *MACD) RequiredDataPoints() int {
	return m.config.SlowPeriod + m.config.SignalPeriod
}

// Calculate computes the MACD line for the most recent bar
func (m *MACD) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	v, err := m.CalculateAll(ctx, candles)
	if err != nil {
		return 0, err
	}
	return v.Line, nil
}

// CalculateAll computes the MACD line, signal line, and histogram
func (m *MACD) CalculateAll(ctx context.Context, candles []domain.Candle) (MACDValue, error) {
	need := m.RequiredDataPoints()
	if len(candles) < need {
		return MACDValue{}, fmt.Errorf("not enough data (%d) to calculate MACD, need %d", len(candles), need)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	fast := emaSeries(closes, m.config.FastPeriod)
	slow := emaSeries(closes, m.config.SlowPeriod)

	// MACD line exists from the index where the slow EMA starts.
	start := m.config.SlowPeriod - 1
	macdLine := make([]float64, 0, len(closes)-start)
	for i := start; i < len(closes); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signal := emaSeries(macdLine, m.config.SignalPeriod)

	line := macdLine[len(macdLine)-1]
	sig := signal[len(signal)-1]
	return MACDValue{Line: line, Signal: sig, Histogram: line - sig}, nil
}

// emaSeries returns an EMA over values. Positions before the seed period hold
// the running SMA seed so indices line up with the input.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || period <= 0 {
		return out
	}
	if period > len(values) {
		period = len(values)
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
		out[i] = seed / float64(i+1)
	}
	ema := seed / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}
