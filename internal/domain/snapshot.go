package domain

import "time"

// Tick is the current best bid/ask for the instrument.
type Tick struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// SymbolInfo holds venue trading rules for the instrument.
type SymbolInfo struct {
	Symbol       string
	Point        float64 // Smallest quoted price increment
	PipSize      float64 // Pip in price units (10 points for XAUUSD)
	PipValue     float64 // Currency value of one pip per unit of volume
	VolumeMin    float64
	VolumeMax    float64
	VolumeStep   float64
	TradeAllowed bool
}

// VolumeBounds returns the venue quantity constraints.
func (s SymbolInfo) VolumeBounds() (min, max, step float64) {
	return s.VolumeMin, s.VolumeMax, s.VolumeStep
}

// AccountInfo is a point-in-time view of the trading account.
type AccountInfo struct {
	Balance    float64
	Equity     float64
	Margin     float64
	FreeMargin float64
}

// IndicatorSet holds the derived indicator values for the most recent bar
// of a candle series. The core never computes these itself.
type IndicatorSet struct {
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	EMAFast    float64
	EMASlow    float64
	BBWidth    float64
	ATR        float64
	OBV        float64
}

// FeatureVector returns the classifier input in its fixed field order:
// open, high, low, close, rsi, macd, macd_signal, macd_hist, ema_fast,
// ema_slow, bb_width, atr, obv.
func (s IndicatorSet) FeatureVector(last Candle) []float64 {
	return []float64{
		last.Open, last.High, last.Low, last.Close,
		s.RSI, s.MACD, s.MACDSignal, s.MACDHist,
		s.EMAFast, s.EMASlow, s.BBWidth, s.ATR, s.OBV,
	}
}

// SeriesSnapshot is one timeframe's candle series plus its derived indicators.
type SeriesSnapshot struct {
	Timeframe  Timeframe
	Candles    []Candle // Oldest first; last element is the current bar
	Indicators IndicatorSet
	Trend      TrendBias // SMA20/SMA50 bias of this series
}

// Last returns the most recent candle, or a zero candle if the series is empty.
func (s SeriesSnapshot) Last() Candle {
	if len(s.Candles) == 0 {
		return Candle{}
	}
	return s.Candles[len(s.Candles)-1]
}

// MarketSnapshot is the immutable per-cycle view of the market: tick, the
// entry-timeframe series, the higher-timeframe confirmation series, and the
// venue trading rules. One snapshot is produced per decision cycle.
type MarketSnapshot struct {
	Symbol  string
	Tick    Tick
	Entry   SeriesSnapshot // Series at the strategy's entry timeframe
	Higher  SeriesSnapshot // Series at the confirmation timeframe
	Info    SymbolInfo
	Account AccountInfo
	TakenAt time.Time
}

// SpreadPoints returns the current spread expressed in points.
func (m MarketSnapshot) SpreadPoints() float64 {
	if m.Info.Point <= 0 {
		return 0
	}
	return (m.Tick.Ask - m.Tick.Bid) / m.Info.Point
}
