package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aurumbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func sampleTrade(closedAt time.Time, profit float64) *domain.Trade {
	return &domain.Trade{
		Ticket:     100234,
		Symbol:     "XAUUSD",
		Direction:  domain.Long,
		Volume:     0.10,
		EntryPrice: 2000.30,
		ExitPrice:  2003.10,
		ProfitUSD:  profit,
		Reason:     domain.CloseReasonProfitTarget,
		Mode:       domain.ModeScalping,
		OpenedAt:   closedAt.Add(-5 * time.Minute),
		ClosedAt:   closedAt,
	}
}

func TestRepository_CreateAndFindTrade(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	trade := sampleTrade(time.Now().UTC(), 2.80)
	id, err := repo.CreateTrade(ctx, trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	found, err := repo.FindBySymbol(ctx, "XAUUSD", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	got := found[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, trade.Ticket, got.Ticket)
	assert.Equal(t, domain.Long, got.Direction)
	assert.Equal(t, domain.CloseReasonProfitTarget, got.Reason)
	assert.Equal(t, domain.ModeScalping, got.Mode)
	assert.InDelta(t, 2.80, got.ProfitUSD, 1e-9)
	assert.WithinDuration(t, trade.ClosedAt, got.ClosedAt, time.Second)
}

func TestRepository_FindBySymbol_OrderAndLimit(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		tr := sampleTrade(base.Add(time.Duration(i)*time.Minute), float64(i))
		tr.Ticket = int64(200000 + i)
		_, err := repo.CreateTrade(ctx, tr)
		require.NoError(t, err)
	}

	found, err := repo.FindBySymbol(ctx, "XAUUSD", 3)
	require.NoError(t, err)
	require.Len(t, found, 3)

	// Most recent first.
	assert.Equal(t, int64(200004), found[0].Ticket)
	assert.Equal(t, int64(200003), found[1].Ticket)
	assert.Equal(t, int64(200002), found[2].Ticket)
}

func TestRepository_FindBySymbol_NoMatches(t *testing.T) {
	repo := setupTestDB(t)

	found, err := repo.FindBySymbol(context.Background(), "EURUSD", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRepository_CountTodayBySymbol(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.CreateTrade(ctx, sampleTrade(now, 1.0))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, sampleTrade(now.Add(-time.Minute), -3.0))
	require.NoError(t, err)
	// Closed two days ago, must not count.
	_, err = repo.CreateTrade(ctx, sampleTrade(now.Add(-48*time.Hour), 5.0))
	require.NoError(t, err)

	count, err := repo.CountTodayBySymbol(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountTodayBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRepository_TotalProfitBySymbol(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	total, err := repo.TotalProfitBySymbol(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.Zero(t, total)

	now := time.Now().UTC()
	_, err = repo.CreateTrade(ctx, sampleTrade(now, 2.50))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, sampleTrade(now.Add(-time.Hour), -1.25))
	require.NoError(t, err)

	total, err = repo.TotalProfitBySymbol(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, total, 1e-9)
}
