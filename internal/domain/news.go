package domain

import "time"

// NewsEvent is one scheduled economic calendar entry.
type NewsEvent struct {
	Title    string
	Currency string
	Impact   NewsImpact
	At       time.Time
}

// EffectWindow is how long after its scheduled time an event is considered
// in effect.
const EffectWindow = 15 * time.Minute

// InEffect reports whether the event influences trading at the given time.
// An event takes effect when it fires, not in anticipation.
func (e NewsEvent) InEffect(now time.Time) bool {
	d := now.Sub(e.At)
	return d >= 0 && d < EffectWindow
}
