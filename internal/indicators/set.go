package indicators

import (
	"context"
	"fmt"

	"aurumbot/internal/domain"
)

// Default periods for the snapshot indicator set.
const (
	rsiPeriod     = 14
	emaFastPeriod = 20
	emaSlowPeriod = 50
	bbPeriod      = 20
	atrPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	trendFast     = 20
	trendSlow     = 50
)

// MinSeriesDepth is the smallest candle series that supports the full set.
const MinSeriesDepth = macdSlow + macdSignal + 1

// TrendSeriesDepth is the candle depth that settles the SMA20/50 trend
// classifier. Strategies that act on ClassifyTrend fetch at least this much.
const TrendSeriesDepth = 2 * trendSlow

// Set computes every indicator the market snapshot carries. Reused across
// cycles; all methods are stateless.
type Set struct {
	rsi  *RSI
	emaF *MovingAverage
	emaS *MovingAverage
	smaF *MovingAverage
	smaS *MovingAverage
	bb   *BollingerWidth
	atr  *ATR
	obv  *OBV
	macd *MACD
}

// NewSet builds the standard indicator set.
func NewSet() *Set {
	return &Set{
		rsi: NewRSI(RSIConfig{
			IndicatorConfig: IndicatorConfig{Period: rsiPeriod},
			Overbought:      70,
			Oversold:        30,
		}),
		emaF: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: emaFastPeriod},
			Type:            ExponentialMovingAverage,
		}),
		emaS: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: emaSlowPeriod},
			Type:            ExponentialMovingAverage,
		}),
		smaF: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: trendFast},
			Type:            SimpleMovingAverage,
		}),
		smaS: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: trendSlow},
			Type:            SimpleMovingAverage,
		}),
		bb:  NewBollingerWidth(BollingerConfig{IndicatorConfig: IndicatorConfig{Period: bbPeriod}, StdDevs: 2}),
		atr: NewATR(ATRConfig{IndicatorConfig: IndicatorConfig{Period: atrPeriod}}),
		obv: NewOBV(OBVConfig{}),
		macd: NewMACD(MACDConfig{
			FastPeriod:   macdFast,
			SlowPeriod:   macdSlow,
			SignalPeriod: macdSignal,
		}),
	}
}

// RequiredDataPoints returns the candle depth needed for a full computation.
func (s *Set) RequiredDataPoints() int {
	return MinSeriesDepth
}

// Compute evaluates all indicators for the series.
func (s *Set) Compute(ctx context.Context, candles []domain.Candle) (domain.IndicatorSet, error) {
	if len(candles) < MinSeriesDepth {
		return domain.IndicatorSet{}, fmt.Errorf("not enough candles (%d) for indicator set, need %d", len(candles), MinSeriesDepth)
	}

	var out domain.IndicatorSet
	var err error

	if out.RSI, err = s.rsi.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("rsi: %w", err)
	}
	if out.EMAFast, err = s.emaF.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("ema fast: %w", err)
	}
	if out.EMASlow, err = s.emaS.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("ema slow: %w", err)
	}
	if out.BBWidth, err = s.bb.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("bollinger width: %w", err)
	}
	if out.ATR, err = s.atr.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("atr: %w", err)
	}
	if out.OBV, err = s.obv.Calculate(ctx, candles); err != nil {
		return out, fmt.Errorf("obv: %w", err)
	}
	m, err := s.macd.CalculateAll(ctx, candles)
	if err != nil {
		return out, fmt.Errorf("macd: %w", err)
	}
	out.MACD = m.Line
	out.MACDSignal = m.Signal
	out.MACDHist = m.Histogram

	return out, nil
}

// ClassifyTrend returns the SMA20/SMA50 bias for the series. Insufficient
// data classifies as Sideways.
func (s *Set) ClassifyTrend(ctx context.Context, candles []domain.Candle) domain.TrendBias {
	fast, err := s.smaF.Calculate(ctx, candles)
	if err != nil {
		return domain.TrendSideways
	}
	slow, err := s.smaS.Calculate(ctx, candles)
	if err != nil {
		return domain.TrendSideways
	}
	switch {
	case fast > slow:
		return domain.TrendUp
	case fast < slow:
		return domain.TrendDown
	default:
		return domain.TrendSideways
	}
}
