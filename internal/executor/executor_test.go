package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurumbot/internal/adapters/zaplog"
	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

// fakeVenue scripts SubmitOrder outcomes and records requests.
type fakeVenue struct {
	ports.TradingVenue

	results  []submitOutcome
	requests []ports.OrderRequest
	margin   float64
	tick     domain.Tick
}

type submitOutcome struct {
	result *ports.OrderResult
	err    error
}

func (f *fakeVenue) SubmitOrder(_ context.Context, req ports.OrderRequest) (*ports.OrderResult, error) {
	f.requests = append(f.requests, req)
	if len(f.results) == 0 {
		return &ports.OrderResult{RetCode: ports.RetDone, Ticket: 1}, nil
	}
	out := f.results[0]
	f.results = f.results[1:]
	return out.result, out.err
}

func (f *fakeVenue) CalcMargin(context.Context, ports.OrderRequest) (float64, error) {
	return f.margin, nil
}

func (f *fakeVenue) GetTick(context.Context, string) (*domain.Tick, error) {
	return &f.tick, nil
}

func newTestExecutor(v *fakeVenue) *Executor {
	e := New(v, zaplog.NewNop())
	e.sleep = func(context.Context, time.Duration) error { return nil }
	return e
}

func testSnapshot() *domain.MarketSnapshot {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &domain.MarketSnapshot{
		Symbol: "XAUUSD",
		Tick:   domain.Tick{Bid: 2000.00, Ask: 2000.30, Time: now},
		Entry: domain.SeriesSnapshot{
			Timeframe: domain.TimeframeM5,
			Candles: []domain.Candle{
				{OpenTime: now.Add(-4 * time.Minute), Close: 2000.10},
			},
		},
		Info: domain.SymbolInfo{
			Symbol: "XAUUSD", Point: 0.01, PipSize: 0.1, PipValue: 10,
			VolumeMin: 0.01, VolumeMax: 100, VolumeStep: 0.01,
			TradeAllowed: true,
		},
		Account: domain.AccountInfo{Balance: 3000, FreeMargin: 2500},
		TakenAt: now,
	}
}

func testIntent(protocol domain.EntryProtocol) Intent {
	return Intent{Symbol: "XAUUSD", Direction: domain.Long, Volume: 0.1, Protocol: protocol}
}

func testSettings() domain.TradeSettings {
	s := domain.DefaultSettings()
	s.MaxRetry = 3
	return s
}

func TestExecute_InstantSuccess(t *testing.T) {
	venue := &fakeVenue{
		margin: 200,
		results: []submitOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetDone, Ticket: 42, Price: 2000.30, Volume: 0.1}},
		},
	}
	exec := newTestExecutor(venue)

	report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
	require.NoError(t, err)
	assert.Equal(t, int64(42), report.Ticket)
	assert.Equal(t, 1, report.Attempts)
	assert.False(t, report.Resting)

	req := venue.requests[0]
	assert.Equal(t, ports.OrderMarket, req.Kind)
	// Long stops bracket the ask: SL 30 pips below, TP 50 pips above.
	assert.InDelta(t, 1997.30, req.StopLoss, 1e-9)
	assert.InDelta(t, 2005.30, req.TakeProfit, 1e-9)
}

func TestExecute_RequoteThenSuccess(t *testing.T) {
	venue := &fakeVenue{
		margin: 200,
		tick:   domain.Tick{Bid: 2000.10, Ask: 2000.40},
		results: []submitOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetRequote, Comment: "requote"}},
			{result: &ports.OrderResult{RetCode: ports.RetRequote, Comment: "requote"}},
			{result: &ports.OrderResult{RetCode: ports.RetDone, Ticket: 7, Price: 2000.40, Volume: 0.1}},
		},
	}
	exec := newTestExecutor(venue)

	report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempts)
	assert.Len(t, venue.requests, 3)

	// Retries repriced from the refreshed tick.
	assert.InDelta(t, 1997.40, venue.requests[2].StopLoss, 1e-9)
	// All attempts share one client id.
	assert.Equal(t, venue.requests[0].ClientID, venue.requests[2].ClientID)
}

func TestExecute_RetryBudgetExhausted(t *testing.T) {
	requote := submitOutcome{result: &ports.OrderResult{RetCode: ports.RetRequote}}
	venue := &fakeVenue{
		margin:  200,
		results: []submitOutcome{requote, requote, requote, requote, requote},
	}
	exec := newTestExecutor(venue)

	_, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRequote)
	// MaxRetry=3 bounds the loop at exactly 4 submissions.
	assert.Len(t, venue.requests, 4)
}

func TestExecute_TerminalRejectStopsImmediately(t *testing.T) {
	venue := &fakeVenue{
		margin: 200,
		results: []submitOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetNoMoney}},
		},
	}
	exec := newTestExecutor(venue)

	_, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrOrderRejected)
	assert.Len(t, venue.requests, 1)
}

func TestExecute_NoResponseRetries(t *testing.T) {
	venue := &fakeVenue{
		margin: 200,
		results: []submitOutcome{
			{err: ports.ErrNoResponse},
			{result: &ports.OrderResult{RetCode: ports.RetDone, Ticket: 9, Price: 2000.30}},
		},
	}
	exec := newTestExecutor(venue)

	report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
}

func TestExecute_Preconditions(t *testing.T) {
	t.Run("spread too wide", func(t *testing.T) {
		snap := testSnapshot()
		snap.Tick.Ask = snap.Tick.Bid + 0.60 // 60 points > 50 max
		exec := newTestExecutor(&fakeVenue{margin: 200})

		_, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), snap, testSettings())
		assert.ErrorIs(t, err, ports.ErrSpreadTooWide)
	})

	t.Run("insufficient margin", func(t *testing.T) {
		venue := &fakeVenue{margin: 5000}
		exec := newTestExecutor(venue)

		_, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), testSnapshot(), testSettings())
		assert.ErrorIs(t, err, ports.ErrInsufficientMargin)
		assert.Empty(t, venue.requests)
	})

	t.Run("trading disabled", func(t *testing.T) {
		snap := testSnapshot()
		snap.Info.TradeAllowed = false
		exec := newTestExecutor(&fakeVenue{margin: 200})

		_, err := exec.Execute(context.Background(), testIntent(domain.ProtocolInstant), snap, testSettings())
		assert.ErrorIs(t, err, ports.ErrTradingDisabled)
	})
}

func TestExecute_PendingOffsets(t *testing.T) {
	venue := &fakeVenue{
		results: []submitOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetPlaced, Ticket: 11}},
		},
	}
	exec := newTestExecutor(venue)

	report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolPending), testSnapshot(), testSettings())
	require.NoError(t, err)
	assert.True(t, report.Resting)

	req := venue.requests[0]
	assert.Equal(t, ports.OrderLimit, req.Kind)
	// Long limit rests 10 points below the ask.
	assert.InDelta(t, 2000.20, req.Price, 1e-9)
	assert.True(t, req.ExpiresAt.IsZero())
}

func TestExecute_StopLimitOffsets(t *testing.T) {
	venue := &fakeVenue{
		results: []submitOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetPlaced, Ticket: 12}},
		},
	}
	exec := newTestExecutor(venue)

	intent := testIntent(domain.ProtocolStopLimit)
	intent.Direction = domain.Short
	_, err := exec.Execute(context.Background(), intent, testSnapshot(), testSettings())
	require.NoError(t, err)

	req := venue.requests[0]
	assert.Equal(t, ports.OrderStopLimit, req.Kind)
	// Short stop triggers 10 points below the bid, limit 5 points back inside.
	assert.InDelta(t, 1999.90, req.StopPrice, 1e-9)
	assert.InDelta(t, 1999.95, req.Price, 1e-9)
}

func TestExecute_MarketOnClose(t *testing.T) {
	t.Run("inside close window fills at market", func(t *testing.T) {
		venue := &fakeVenue{margin: 200}
		exec := newTestExecutor(venue)

		snap := testSnapshot()
		// Candle opened at 09:56, closes 10:01; snapshot at 10:00:55.
		snap.Entry.Candles[0].OpenTime = snap.TakenAt.Add(-4 * time.Minute)
		snap.TakenAt = snap.Entry.Candles[0].OpenTime.Add(5*time.Minute - 5*time.Second)

		report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolMarketOnClose), snap, testSettings())
		require.NoError(t, err)
		assert.False(t, report.Resting)
		assert.Equal(t, ports.OrderMarket, venue.requests[0].Kind)
	})

	t.Run("outside close window rests until close", func(t *testing.T) {
		venue := &fakeVenue{margin: 200}
		exec := newTestExecutor(venue)

		snap := testSnapshot()
		snap.TakenAt = snap.Entry.Candles[0].OpenTime.Add(1 * time.Minute)

		report, err := exec.Execute(context.Background(), testIntent(domain.ProtocolMarketOnClose), snap, testSettings())
		require.NoError(t, err)
		assert.True(t, report.Resting)

		req := venue.requests[0]
		assert.Equal(t, ports.OrderLimit, req.Kind)
		assert.Equal(t, snap.Entry.Candles[0].CloseTime(domain.TimeframeM5), req.ExpiresAt)
	})
}
