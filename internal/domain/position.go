package domain

import (
	"math"
	"time"
)

// Position is an open trade tracked through its lifecycle. OpenedAt marks
// when the fill was confirmed; SL and TP are the prices currently held by
// the venue and change when the manager modifies them.
type Position struct {
	Ticket     int64
	Symbol     string
	Direction  Direction
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
	Mode       Mode // Strategy mode that opened the position
	ProfitUSD  float64
	Comment    string
}

// HoldDuration returns how long the position has been open.
func (p Position) HoldDuration(now time.Time) time.Duration {
	return now.Sub(p.OpenedAt)
}

// PipsGained returns the favorable excursion in pips at the given close-side
// price (bid for a long, ask for a short). Negative when underwater.
func (p Position) PipsGained(price, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	switch p.Direction {
	case Long:
		return (price - p.EntryPrice) / pipSize
	case Short:
		return (p.EntryPrice - price) / pipSize
	}
	return 0
}

// BreakEvenStop returns the stop price that locks in the given pip offset
// past the entry in the position's favor.
func (p Position) BreakEvenStop(offsetPips, pipSize float64) float64 {
	offset := offsetPips * pipSize
	if p.Direction == Short {
		return p.EntryPrice - offset
	}
	return p.EntryPrice + offset
}

// StopImproves reports whether the candidate stop is strictly tighter than
// the current one in the position's favor. A zero current stop always
// improves.
func (p Position) StopImproves(candidate float64) bool {
	if p.StopLoss == 0 {
		return candidate != 0
	}
	if p.Direction == Short {
		return candidate < p.StopLoss
	}
	return candidate > p.StopLoss
}

// RoundVolume clamps v to [min, max] and snaps it to the nearest step,
// re-clamping after the snap.
func RoundVolume(v, min, max, step float64) float64 {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	if step > 0 {
		v = math.Round(v/step) * step
	}
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}
