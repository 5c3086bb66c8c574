package domain

import "strings"

// Direction represents the direction of a trading signal or position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	// None means the strategy produced no actionable signal this cycle.
	None Direction = "NONE"
)

// Opposite returns the opposing direction. None is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return None
	}
}

// Mode represents the operating mode of the bot.
type Mode string

const (
	ModeStopped        Mode = "Stopped"
	ModeMonitoring     Mode = "Monitoring"
	ModeTrendFollowing Mode = "TrendFollowing"
	ModeScalping       Mode = "Scalping"
	ModeSniper         Mode = "Sniper"
)

// IsActive reports whether the mode runs a decision cycle.
func (m Mode) IsActive() bool {
	return m != ModeStopped
}

// ModeFromComment recovers the opening mode from an order comment. Entry
// comments lead with the mode name; anything else maps to Stopped.
func ModeFromComment(comment string) Mode {
	first := comment
	if i := strings.IndexByte(comment, ' '); i >= 0 {
		first = comment[:i]
	}
	switch Mode(first) {
	case ModeMonitoring, ModeTrendFollowing, ModeScalping, ModeSniper:
		return Mode(first)
	}
	return ModeStopped
}

// EntryProtocol selects how an entry order is submitted to the venue.
type EntryProtocol string

const (
	ProtocolInstant       EntryProtocol = "Instant"
	ProtocolPending       EntryProtocol = "Pending"
	ProtocolStopLimit     EntryProtocol = "StopLimit"
	ProtocolMarketOnClose EntryProtocol = "MarketOnClose"
)

// Valid reports whether p is one of the known entry protocols.
func (p EntryProtocol) Valid() bool {
	switch p {
	case ProtocolInstant, ProtocolPending, ProtocolStopLimit, ProtocolMarketOnClose:
		return true
	}
	return false
}

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonStopOut      CloseReason = "LOSS_CUTOFF"
	CloseReasonProfitTarget CloseReason = "PROFIT_TARGET"
	CloseReasonReversal     CloseReason = "REVERSAL_SIGNAL"
	CloseReasonPattern      CloseReason = "REVERSAL_PATTERN"
	CloseReasonTimeLimit    CloseReason = "TIME_LIMIT"
	CloseReasonNews         CloseReason = "NEWS_RISK"
	CloseReasonManual       CloseReason = "MANUAL"
	CloseReasonUnknown      CloseReason = "UNKNOWN"
)

// TradeResult is the operator-visible outcome of the most recent trade action.
type TradeResult string

const (
	ResultNone        TradeResult = "N/A"
	ResultWin         TradeResult = "Win"
	ResultLoss        TradeResult = "Loss"
	ResultEntered     TradeResult = "Entered"
	ResultEntryFailed TradeResult = "EntryFailed"
	ResultCloseFailed TradeResult = "CloseFailed"
)

// NewsImpact is the severity of an economic-news event.
type NewsImpact string

const (
	ImpactNone   NewsImpact = "None"
	ImpactLow    NewsImpact = "Low"
	ImpactMedium NewsImpact = "Medium"
	ImpactHigh   NewsImpact = "High"
)

// AtLeast reports whether this impact level is at least as severe as other.
func (n NewsImpact) AtLeast(other NewsImpact) bool {
	return n.rank() >= other.rank()
}

func (n NewsImpact) rank() int {
	switch n {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// TrendBias is the directional bias of a candle series.
type TrendBias string

const (
	TrendUp       TrendBias = "Up"
	TrendDown     TrendBias = "Down"
	TrendSideways TrendBias = "Sideways"
)

// Agrees reports whether the bias supports entering in the given direction.
// Sideways never agrees; callers decide whether it blocks.
func (t TrendBias) Agrees(d Direction) bool {
	return (t == TrendUp && d == Long) || (t == TrendDown && d == Short)
}

// Opposes reports whether the bias actively contradicts the given direction.
func (t TrendBias) Opposes(d Direction) bool {
	return (t == TrendDown && d == Long) || (t == TrendUp && d == Short)
}
