package domain

import "fmt"

// TradeSettings is the operator-tunable configuration shared by every
// strategy. Values are read as an immutable snapshot at the start of each
// decision cycle.
type TradeSettings struct {
	LotSize           float64       `json:"lot_size"`
	RiskPercent       float64       `json:"risk_percent"`
	TargetProfitUSD   float64       `json:"target_profit_usd"`
	TargetLossUSD     float64       `json:"target_loss_usd"`
	TakeProfitPips    float64       `json:"take_profit_pips"`
	StopLossPips      float64       `json:"stop_loss_pips"`
	MaxHoldMinutes    int           `json:"max_hold_minutes"`
	Protocol          EntryProtocol `json:"entry_protocol"`
	MaxRetry          int           `json:"max_retry"`
	MaxSpreadPoints   float64       `json:"max_spread_points"`
	MinTickVolume     int64         `json:"min_tick_volume"`
	PatternConfidence float64       `json:"pattern_confidence"`
}

// DefaultSettings returns the settings used when no stored file exists or a
// stored file fails to load.
func DefaultSettings() TradeSettings {
	return TradeSettings{
		LotSize:           0.1,
		RiskPercent:       1.0,
		TargetProfitUSD:   1.0,
		TargetLossUSD:     30.0,
		TakeProfitPips:    50,
		StopLossPips:      30,
		MaxHoldMinutes:    15,
		Protocol:          ProtocolInstant,
		MaxRetry:          3,
		MaxSpreadPoints:   50,
		MinTickVolume:     100,
		PatternConfidence: 0.7,
	}
}

// Validate reports the first constraint violated by the settings.
func (s TradeSettings) Validate() error {
	switch {
	case s.LotSize <= 0:
		return fmt.Errorf("lot_size must be positive, got %v", s.LotSize)
	case s.RiskPercent <= 0 || s.RiskPercent > 100:
		return fmt.Errorf("risk_percent must be in (0, 100], got %v", s.RiskPercent)
	case s.TargetProfitUSD <= 0:
		return fmt.Errorf("target_profit_usd must be positive, got %v", s.TargetProfitUSD)
	case s.TargetLossUSD <= 0:
		return fmt.Errorf("target_loss_usd must be positive, got %v", s.TargetLossUSD)
	case s.TakeProfitPips <= 0:
		return fmt.Errorf("take_profit_pips must be positive, got %v", s.TakeProfitPips)
	case s.StopLossPips <= 0:
		return fmt.Errorf("stop_loss_pips must be positive, got %v", s.StopLossPips)
	case s.MaxHoldMinutes <= 0:
		return fmt.Errorf("max_hold_minutes must be positive, got %d", s.MaxHoldMinutes)
	case !s.Protocol.Valid():
		return fmt.Errorf("unknown entry_protocol %q", s.Protocol)
	case s.MaxRetry < 0:
		return fmt.Errorf("max_retry must not be negative, got %d", s.MaxRetry)
	case s.MaxSpreadPoints <= 0:
		return fmt.Errorf("max_spread_points must be positive, got %v", s.MaxSpreadPoints)
	case s.MinTickVolume < 0:
		return fmt.Errorf("min_tick_volume must not be negative, got %d", s.MinTickVolume)
	case s.PatternConfidence < 0 || s.PatternConfidence > 1:
		return fmt.Errorf("pattern_confidence must be in [0, 1], got %v", s.PatternConfidence)
	}
	return nil
}
