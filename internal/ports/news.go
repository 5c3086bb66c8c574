package ports

import (
	"context"
	"time"

	"aurumbot/internal/domain"
)

// NewsCalendar reports scheduled economic events affecting the instrument.
type NewsCalendar interface {
	// ActiveImpact returns the highest impact among events currently in
	// effect, plus those events for display.
	ActiveImpact(ctx context.Context, now time.Time) (domain.NewsImpact, []domain.NewsEvent, error)

	// Upcoming returns events scheduled within the given horizon.
	Upcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]domain.NewsEvent, error)
}
