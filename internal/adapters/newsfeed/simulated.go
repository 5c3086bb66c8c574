// Package newsfeed provides economic calendar implementations. The simulated
// feed generates a fixed slate of events around the current time; a real
// calendar API can replace it behind the same port.
package newsfeed

import (
	"context"
	"sort"
	"sync"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// Simulated is a deterministic calendar for development and paper trading.
// The slate is anchored once, so event windows open and expire the way a
// real calendar's would; a fresh slate is generated only after the whole
// schedule has run its course.
type Simulated struct {
	logger ports.Logger
	// now is swappable in tests.
	now func() time.Time

	mu     sync.Mutex
	events []domain.NewsEvent
	// expiry is when the last event's effect window closes.
	expiry time.Time
}

// NewSimulated creates the simulated calendar.
func NewSimulated(logger ports.Logger) *Simulated {
	return &Simulated{logger: logger, now: time.Now}
}

// slate returns the simulated schedule anchored to the given time.
func slate(anchor time.Time) []domain.NewsEvent {
	return []domain.NewsEvent{
		{Title: "FOMC Statement", Currency: "USD", Impact: domain.ImpactHigh, At: anchor.Add(5 * time.Minute)},
		{Title: "CPI Release", Currency: "USD", Impact: domain.ImpactHigh, At: anchor.Add(-2 * time.Minute)},
		{Title: "Initial Jobless Claims", Currency: "USD", Impact: domain.ImpactMedium, At: anchor.Add(30 * time.Minute)},
		{Title: "Manufacturing PMI", Currency: "USD", Impact: domain.ImpactLow, At: anchor.Add(-15 * time.Minute)},
		{Title: "Central Bank Governor Speech", Currency: "USD", Impact: domain.ImpactHigh, At: anchor.Add(60 * time.Minute)},
		{Title: "Retail Sales", Currency: "USD", Impact: domain.ImpactMedium, At: anchor.Add(120 * time.Minute)},
	}
}

// schedule returns the current slate, generating a new one when the previous
// slate has fully expired.
func (s *Simulated) schedule(ctx context.Context) []domain.NewsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.events == nil || !now.Before(s.expiry) {
		s.events = slate(now)
		s.expiry = now
		for _, ev := range s.events {
			if end := ev.At.Add(domain.EffectWindow); end.After(s.expiry) {
				s.expiry = end
			}
		}
		s.logger.Info(ctx, "simulated news slate generated", map[string]interface{}{
			"anchor": now.Format(time.RFC3339),
			"events": len(s.events),
		})
	}
	return s.events
}

// ActiveImpact returns the highest impact among events currently in effect,
// plus those events for display.
func (s *Simulated) ActiveImpact(ctx context.Context, now time.Time) (domain.NewsImpact, []domain.NewsEvent, error) {
	highest := domain.ImpactNone
	var active []domain.NewsEvent

	for _, ev := range s.schedule(ctx) {
		if !ev.InEffect(now) {
			continue
		}
		active = append(active, ev)
		if ev.Impact.AtLeast(highest) && ev.Impact != highest {
			highest = ev.Impact
		}
	}
	return highest, active, nil
}

// Upcoming returns events scheduled within the given horizon, soonest first.
func (s *Simulated) Upcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.NewsEvent, error) {
	var out []domain.NewsEvent
	for _, ev := range s.schedule(ctx) {
		if ev.At.After(now) && ev.At.Sub(now) <= horizon {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// Static is a fixed-schedule calendar, useful for tests and replay runs.
type Static struct {
	Events []domain.NewsEvent
}

func (s *Static) ActiveImpact(_ context.Context, now time.Time) (domain.NewsImpact, []domain.NewsEvent, error) {
	highest := domain.ImpactNone
	var active []domain.NewsEvent
	for _, ev := range s.Events {
		if !ev.InEffect(now) {
			continue
		}
		active = append(active, ev)
		if ev.Impact.AtLeast(highest) && ev.Impact != highest {
			highest = ev.Impact
		}
	}
	return highest, active, nil
}

func (s *Static) Upcoming(_ context.Context, now time.Time, horizon time.Duration) ([]domain.NewsEvent, error) {
	var out []domain.NewsEvent
	for _, ev := range s.Events {
		if ev.At.After(now) && ev.At.Sub(now) <= horizon {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}
