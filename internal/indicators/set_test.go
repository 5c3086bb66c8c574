package indicators

import (
	"context"
	"math"
	"testing"

	"aurumbot/internal/domain"
)

func TestATR_Calculate(t *testing.T) {
	candles := []domain.Candle{
		{High: 102, Low: 98, Close: 100},
		{High: 103, Low: 99, Close: 101},
		{High: 104, Low: 100, Close: 103},
		{High: 105, Low: 101, Close: 104},
	}

	atr := NewATR(ATRConfig{IndicatorConfig: IndicatorConfig{Period: 3}})
	value, err := atr.Calculate(context.Background(), candles)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// TRs: 4, 4, 4, 4 -> seed avg 4, smoothed (4*2+4)/3 = 4
	if math.Abs(value-4.0) > 0.0001 {
		t.Errorf("Expected ATR 4.0, got %f", value)
	}

	if _, err := atr.Calculate(context.Background(), candles[:2]); err == nil {
		t.Error("Expected error for insufficient data")
	}
}

func TestOBV_Calculate(t *testing.T) {
	candles := []domain.Candle{
		{Close: 100, Volume: 1000},
		{Close: 101, Volume: 500}, // up: +500
		{Close: 100, Volume: 300}, // down: -300
		{Close: 100, Volume: 200}, // flat: 0
		{Close: 102, Volume: 400}, // up: +400
	}

	obv := NewOBV(OBVConfig{})
	value, err := obv.Calculate(context.Background(), candles)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(value-600) > 0.0001 {
		t.Errorf("Expected OBV 600, got %f", value)
	}
}

func TestBollingerWidth_Calculate(t *testing.T) {
	// Constant closes give zero variance and zero width.
	flat := make([]domain.Candle, 20)
	for i := range flat {
		flat[i] = domain.Candle{Close: 100}
	}

	bb := NewBollingerWidth(BollingerConfig{IndicatorConfig: IndicatorConfig{Period: 20}, StdDevs: 2})
	value, err := bb.Calculate(context.Background(), flat)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if value != 0 {
		t.Errorf("Expected zero width for flat series, got %f", value)
	}
}

func TestMACD_CalculateAll(t *testing.T) {
	// A steadily rising series keeps the fast EMA above the slow EMA.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	macd := NewMACD(MACDConfig{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9})
	v, err := macd.CalculateAll(context.Background(), closesToCandles(closes))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Line <= 0 {
		t.Errorf("Expected positive MACD line for rising series, got %f", v.Line)
	}
	if math.Abs(v.Histogram-(v.Line-v.Signal)) > 1e-9 {
		t.Errorf("Histogram %f does not equal line-signal %f", v.Histogram, v.Line-v.Signal)
	}

	if _, err := macd.CalculateAll(context.Background(), closesToCandles(closes[:20])); err == nil {
		t.Error("Expected error for insufficient data")
	}
}

func TestSet_ClassifyTrend(t *testing.T) {
	rising := make([]float64, 60)
	falling := make([]float64, 60)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 200 - float64(i)
	}

	set := NewSet()
	ctx := context.Background()

	if got := set.ClassifyTrend(ctx, closesToCandles(rising)); got != domain.TrendUp {
		t.Errorf("Expected TrendUp for rising series, got %s", got)
	}
	if got := set.ClassifyTrend(ctx, closesToCandles(falling)); got != domain.TrendDown {
		t.Errorf("Expected TrendDown for falling series, got %s", got)
	}
	// Too little data for the slow SMA falls back to Sideways.
	if got := set.ClassifyTrend(ctx, closesToCandles(rising[:30])); got != domain.TrendSideways {
		t.Errorf("Expected TrendSideways for short series, got %s", got)
	}
}

func TestSet_ClassifyTrend_AtTrendSeriesDepth(t *testing.T) {
	// The depth trading strategies fetch must be enough for the slow SMA to
	// settle; a trending series at exactly that depth classifies as trending.
	rising := make([]float64, TrendSeriesDepth)
	for i := range rising {
		rising[i] = 2000 + float64(i)*0.5
	}

	set := NewSet()
	if got := set.ClassifyTrend(context.Background(), closesToCandles(rising)); got != domain.TrendUp {
		t.Errorf("Expected TrendUp at trend series depth, got %s", got)
	}
}

func TestSet_Compute(t *testing.T) {
	closes := make([]float64, MinSeriesDepth)
	for i := range closes {
		closes[i] = 2000 + math.Sin(float64(i)/5)*10
	}
	candles := closesToCandles(closes)
	for i := range candles {
		candles[i].High = candles[i].Close + 1
		candles[i].Low = candles[i].Close - 1
		candles[i].Volume = 100
	}

	set, err := NewSet().Compute(context.Background(), candles)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if set.RSI < 0 || set.RSI > 100 {
		t.Errorf("RSI out of range: %f", set.RSI)
	}
	if set.ATR <= 0 {
		t.Errorf("Expected positive ATR, got %f", set.ATR)
	}

	if _, err := NewSet().Compute(context.Background(), candles[:10]); err == nil {
		t.Error("Expected error for insufficient data")
	}
}
