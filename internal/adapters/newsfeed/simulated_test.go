package newsfeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurumbot/internal/adapters/zaplog"
	"aurumbot/internal/domain"
)

func TestStatic_ActiveImpact(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	feed := &Static{Events: []domain.NewsEvent{
		{Title: "CPI", Impact: domain.ImpactHigh, At: now.Add(-5 * time.Minute)},
		{Title: "PMI", Impact: domain.ImpactLow, At: now.Add(-10 * time.Minute)},
		{Title: "FOMC", Impact: domain.ImpactHigh, At: now.Add(5 * time.Minute)}, // future, not in effect
		{Title: "Old", Impact: domain.ImpactHigh, At: now.Add(-16 * time.Minute)}, // expired
	}}

	impact, active, err := feed.ActiveImpact(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactHigh, impact)
	assert.Len(t, active, 2)
}

func TestStatic_ActiveImpact_NoEvents(t *testing.T) {
	feed := &Static{}
	impact, active, err := feed.ActiveImpact(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactNone, impact)
	assert.Empty(t, active)
}

func TestStatic_Upcoming(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	feed := &Static{Events: []domain.NewsEvent{
		{Title: "Later", At: now.Add(2 * time.Hour)},
		{Title: "Soon", At: now.Add(10 * time.Minute)},
		{Title: "Past", At: now.Add(-10 * time.Minute)},
		{Title: "Beyond", At: now.Add(5 * time.Hour)},
	}}

	events, err := feed.Upcoming(context.Background(), now, 3*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Soon", events[0].Title)
	assert.Equal(t, "Later", events[1].Title)
}

func TestSimulated_WindowsExpire(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	feed := NewSimulated(zaplog.NewNop())
	current := anchor
	feed.now = func() time.Time { return current }

	// The CPI event fired two minutes before the anchor.
	impact, _, err := feed.ActiveImpact(context.Background(), anchor)
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactHigh, impact)

	// Twenty-five minutes in, every early window has closed; the slate does
	// not re-anchor to keep events perpetually live.
	current = anchor.Add(25 * time.Minute)
	impact, active, err := feed.ActiveImpact(context.Background(), current)
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactNone, impact)
	assert.Empty(t, active)

	// The jobless claims release opens a medium window at thirty minutes.
	current = anchor.Add(31 * time.Minute)
	impact, _, err = feed.ActiveImpact(context.Background(), current)
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactMedium, impact)
}

func TestSimulated_SlateRollsOverAfterExpiry(t *testing.T) {
	anchor := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	feed := NewSimulated(zaplog.NewNop())
	current := anchor
	feed.now = func() time.Time { return current }

	_, _, err := feed.ActiveImpact(context.Background(), anchor)
	require.NoError(t, err)

	// Past the last event's window the feed generates a fresh schedule.
	current = anchor.Add(200 * time.Minute)
	impact, _, err := feed.ActiveImpact(context.Background(), current)
	require.NoError(t, err)
	assert.Equal(t, domain.ImpactHigh, impact)
}
