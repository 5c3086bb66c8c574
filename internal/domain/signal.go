package domain

// Signal is a strategy's entry proposal for the current cycle. Zero override
// fields defer to the configured settings.
type Signal struct {
	Direction  Direction
	Confidence float64 // Classifier or pattern confidence in [0, 1]
	Pattern    string  // Candlestick pattern name when pattern-driven
	Reason     string  // Short human-readable rationale for logging

	// StopLossPips overrides the configured stop distance (e.g. a
	// volatility-scaled scalping stop).
	StopLossPips float64
	// TakeProfitPips overrides the configured profit distance.
	TakeProfitPips float64
	// RiskBudgetUSD overrides the percent-of-balance risk budget with a
	// fixed dollar amount.
	RiskBudgetUSD float64
}

// None reports whether the signal proposes no entry.
func (s Signal) None() bool {
	return s.Direction == None
}

// ExitDecision is a strategy's verdict on an open position.
type ExitDecision struct {
	Close  bool
	Reason CloseReason
	Detail string
}

// HoldPosition is the decision to keep the position open.
var HoldPosition = ExitDecision{}

// ClosePosition returns a decision to close for the given reason.
func ClosePosition(reason CloseReason, detail string) ExitDecision {
	return ExitDecision{Close: true, Reason: reason, Detail: detail}
}

// StopAdjustment asks the position manager to move the stop to a new price.
// Zero value means no adjustment.
type StopAdjustment struct {
	NewStop float64
	Detail  string
}

// Requested reports whether an adjustment was proposed.
func (a StopAdjustment) Requested() bool { return a.NewStop != 0 }
