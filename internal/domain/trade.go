package domain

import "time"

// Trade is the persisted record of a completed position.
type Trade struct {
	ID         int64
	Ticket     int64
	Symbol     string
	Direction  Direction
	Volume     float64
	EntryPrice float64
	ExitPrice  float64
	ProfitUSD  float64
	Reason     CloseReason
	Mode       Mode
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// Result classifies the trade outcome by realized profit.
func (t Trade) Result() TradeResult {
	if t.ProfitUSD > 0 {
		return ResultWin
	}
	return ResultLoss
}

// OutcomeCounters tracks session trade outcomes. Counters are in-memory
// only and reset on restart.
type OutcomeCounters struct {
	Wins   int
	Losses int
}

// Record adds one outcome.
func (c *OutcomeCounters) Record(r TradeResult) {
	switch r {
	case ResultWin:
		c.Wins++
	case ResultLoss:
		c.Losses++
	}
}

// Total returns the number of recorded outcomes.
func (c OutcomeCounters) Total() int { return c.Wins + c.Losses }

// WinRate returns the win percentage, or 0 when nothing is recorded.
func (c OutcomeCounters) WinRate() float64 {
	n := c.Total()
	if n == 0 {
		return 0
	}
	return 100 * float64(c.Wins) / float64(n)
}
