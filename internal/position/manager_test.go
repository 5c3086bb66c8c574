package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurumbot/internal/adapters/zaplog"
	"aurumbot/internal/domain"
	"aurumbot/internal/events"
	"aurumbot/internal/ports"
)

// fakeVenue scripts position listings and close/modify outcomes.
type fakeVenue struct {
	ports.TradingVenue

	positions    []domain.Position
	closeResults []closeOutcome
	closed       []int64
	modified     []modifyCall
	modifyResult *ports.OrderResult
	modifyErr    error
}

type closeOutcome struct {
	result *ports.OrderResult
	err    error
}

type modifyCall struct {
	ticket   int64
	stopLoss float64
}

func (f *fakeVenue) OpenPositions(context.Context, string) ([]domain.Position, error) {
	return f.positions, nil
}

func (f *fakeVenue) ClosePosition(_ context.Context, ticket int64, _ int) (*ports.OrderResult, error) {
	f.closed = append(f.closed, ticket)
	if len(f.closeResults) == 0 {
		return &ports.OrderResult{RetCode: ports.RetDone, Price: 2003.10}, nil
	}
	out := f.closeResults[0]
	f.closeResults = f.closeResults[1:]
	return out.result, out.err
}

func (f *fakeVenue) ModifyPosition(_ context.Context, ticket int64, stopLoss, _ float64) (*ports.OrderResult, error) {
	f.modified = append(f.modified, modifyCall{ticket: ticket, stopLoss: stopLoss})
	if f.modifyErr != nil {
		return nil, f.modifyErr
	}
	if f.modifyResult != nil {
		return f.modifyResult, nil
	}
	return &ports.OrderResult{RetCode: ports.RetDone}, nil
}

// fakeRepo records created trades.
type fakeRepo struct {
	ports.TradeRepository

	trades []domain.Trade
	err    error
}

func (f *fakeRepo) CreateTrade(_ context.Context, trade *domain.Trade) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.trades = append(f.trades, *trade)
	return int64(len(f.trades)), nil
}

// scriptedStrategy returns canned exit decisions keyed by ticket.
type scriptedStrategy struct {
	ports.Strategy

	decisions map[int64]domain.ExitDecision
	adjusts   map[int64]domain.StopAdjustment
	err       error
}

func (s *scriptedStrategy) EvaluateExit(_ context.Context, pos *domain.Position, _ *domain.MarketSnapshot, _ domain.TradeSettings) (domain.ExitDecision, domain.StopAdjustment, error) {
	if s.err != nil {
		return domain.HoldPosition, domain.StopAdjustment{}, s.err
	}
	return s.decisions[pos.Ticket], s.adjusts[pos.Ticket], nil
}

func newTestManager(t *testing.T, venue *fakeVenue, repo *fakeRepo) *Manager {
	t.Helper()
	var r ports.TradeRepository
	if repo != nil {
		r = repo
	}
	m, err := NewManager(Config{
		Venue:      venue,
		Repository: r,
		Logger:     zaplog.NewNop(),
		Symbol:     "XAUUSD",
		MaxRetry:   2,
	})
	require.NoError(t, err)
	m.sleep = func(context.Context, time.Duration) error { return nil }
	return m
}

func openPosition(ticket int64, profit float64) domain.Position {
	return domain.Position{
		Ticket:     ticket,
		Symbol:     "XAUUSD",
		Direction:  domain.Long,
		Volume:     0.10,
		EntryPrice: 2000.30,
		StopLoss:   1997.30,
		TakeProfit: 2005.30,
		OpenedAt:   time.Now().Add(-3 * time.Minute),
		Mode:       domain.ModeScalping,
		ProfitUSD:  profit,
	}
}

func TestReview_ClosesRejectedKeepsHeld(t *testing.T) {
	venue := &fakeVenue{positions: []domain.Position{openPosition(1, 2.5), openPosition(2, -0.4)}}
	repo := &fakeRepo{}
	m := newTestManager(t, venue, repo)

	strat := &scriptedStrategy{
		decisions: map[int64]domain.ExitDecision{
			1: domain.ClosePosition(domain.CloseReasonProfitTarget, "target reached"),
		},
	}

	open, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, open)
	assert.Equal(t, []int64{1}, venue.closed)

	require.Len(t, repo.trades, 1)
	trade := repo.trades[0]
	assert.Equal(t, int64(1), trade.Ticket)
	assert.Equal(t, domain.CloseReasonProfitTarget, trade.Reason)
	assert.InDelta(t, 2.5, trade.ProfitUSD, 1e-9)
	assert.InDelta(t, 2003.10, trade.ExitPrice, 1e-9)

	counters := m.Counters()
	assert.Equal(t, 1, counters.Wins)
	assert.Equal(t, 0, counters.Losses)

	last := m.LastTrade()
	require.NotNil(t, last)
	assert.Equal(t, int64(1), last.Ticket)
}

func TestReview_LossCountsAsLoss(t *testing.T) {
	venue := &fakeVenue{positions: []domain.Position{openPosition(7, -31.2)}}
	m := newTestManager(t, venue, &fakeRepo{})

	strat := &scriptedStrategy{
		decisions: map[int64]domain.ExitDecision{
			7: domain.ClosePosition(domain.CloseReasonStopOut, "loss cutoff"),
		},
	}

	open, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 0, open)

	counters := m.Counters()
	assert.Equal(t, 0, counters.Wins)
	assert.Equal(t, 1, counters.Losses)
	assert.InDelta(t, 0.0, counters.WinRate(), 1e-9)
}

func TestReview_EvaluationErrorHoldsPosition(t *testing.T) {
	venue := &fakeVenue{positions: []domain.Position{openPosition(3, 1.0)}}
	m := newTestManager(t, venue, &fakeRepo{})

	strat := &scriptedStrategy{err: errors.New("stale indicators")}

	open, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, open)
	assert.Empty(t, venue.closed)
}

func TestReview_AppliesTighterStopOnly(t *testing.T) {
	pos := openPosition(4, 1.2)
	venue := &fakeVenue{positions: []domain.Position{pos}}
	m := newTestManager(t, venue, nil)

	strat := &scriptedStrategy{
		adjusts: map[int64]domain.StopAdjustment{
			4: {NewStop: 2000.35, Detail: "break even plus"},
		},
	}

	open, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, open)
	require.Len(t, venue.modified, 1)
	assert.Equal(t, int64(4), venue.modified[0].ticket)
	assert.InDelta(t, 2000.35, venue.modified[0].stopLoss, 1e-9)
}

func TestReview_NeverLoosensStop(t *testing.T) {
	pos := openPosition(5, 1.2)
	pos.StopLoss = 2000.35
	venue := &fakeVenue{positions: []domain.Position{pos}}
	m := newTestManager(t, venue, nil)

	strat := &scriptedStrategy{
		adjusts: map[int64]domain.StopAdjustment{
			5: {NewStop: 1999.00, Detail: "would loosen"},
		},
	}

	_, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Empty(t, venue.modified)
}

func TestClose_RetriesTransientRetcode(t *testing.T) {
	venue := &fakeVenue{
		closeResults: []closeOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetRequote, Comment: "Requote"}},
			{result: &ports.OrderResult{RetCode: ports.RetDone, Price: 2001.00}},
		},
	}
	m := newTestManager(t, venue, &fakeRepo{})

	pos := openPosition(9, 0.8)
	err := m.Close(context.Background(), &pos, domain.CloseReasonManual, "operator stop")
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 9}, venue.closed)
}

func TestClose_BudgetExhausted(t *testing.T) {
	requote := closeOutcome{result: &ports.OrderResult{RetCode: ports.RetRequote, Comment: "Requote"}}
	venue := &fakeVenue{closeResults: []closeOutcome{requote, requote, requote, requote}}
	m := newTestManager(t, venue, &fakeRepo{})

	pos := openPosition(9, 0.8)
	err := m.Close(context.Background(), &pos, domain.CloseReasonManual, "operator stop")
	require.Error(t, err)
	// MaxRetry 2 means three attempts.
	assert.Equal(t, []int64{9, 9, 9}, venue.closed)
	assert.Equal(t, 0, m.Counters().Total())
}

func TestClose_TerminalRetcodeNoRetry(t *testing.T) {
	venue := &fakeVenue{
		closeResults: []closeOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetRejected, Comment: "Rejected"}},
		},
	}
	m := newTestManager(t, venue, &fakeRepo{})

	pos := openPosition(10, 0.8)
	err := m.Close(context.Background(), &pos, domain.CloseReasonManual, "operator stop")
	require.Error(t, err)
	assert.Equal(t, []int64{10}, venue.closed)
}

func TestCloseAll_ContinuesAfterFailure(t *testing.T) {
	venue := &fakeVenue{
		positions: []domain.Position{openPosition(11, 1.0), openPosition(12, -2.0)},
		closeResults: []closeOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetRejected, Comment: "Rejected"}},
			{result: &ports.OrderResult{RetCode: ports.RetDone, Price: 1999.00}},
		},
	}
	repo := &fakeRepo{}
	m := newTestManager(t, venue, repo)

	err := m.CloseAll(context.Background(), domain.CloseReasonNews, "high impact event")
	require.Error(t, err)
	assert.Equal(t, []int64{11, 12}, venue.closed)
	require.Len(t, repo.trades, 1)
	assert.Equal(t, int64(12), repo.trades[0].Ticket)
	assert.Equal(t, domain.CloseReasonNews, repo.trades[0].Reason)
}

func TestClose_PublishesOutcomeEvents(t *testing.T) {
	venue := &fakeVenue{}
	m := newTestManager(t, venue, &fakeRepo{})
	bus := events.NewBus()
	m.bus = bus
	sub := bus.Subscribe(8)

	pos := openPosition(14, 3.2)
	require.NoError(t, m.Close(context.Background(), &pos, domain.CloseReasonProfitTarget, "target"))

	select {
	case ev := <-sub:
		assert.Equal(t, events.KindTradeClosed, ev.Kind)
		assert.Equal(t, int64(14), ev.Fields["ticket"])
		assert.Equal(t, string(domain.ResultWin), ev.Fields["result"])
	default:
		t.Fatal("expected a trade closed event")
	}
}

func TestClose_FailurePublishesErrorEvent(t *testing.T) {
	venue := &fakeVenue{
		closeResults: []closeOutcome{
			{result: &ports.OrderResult{RetCode: ports.RetRejected, Comment: "Rejected"}},
		},
	}
	m := newTestManager(t, venue, &fakeRepo{})
	bus := events.NewBus()
	m.bus = bus
	sub := bus.Subscribe(8)

	pos := openPosition(15, 0.8)
	require.Error(t, m.Close(context.Background(), &pos, domain.CloseReasonManual, "operator stop"))

	select {
	case ev := <-sub:
		assert.Equal(t, events.KindError, ev.Kind)
		assert.Equal(t, string(domain.ResultCloseFailed), ev.Fields["result"])
	default:
		t.Fatal("expected an error event")
	}
}

func TestRecordTrade_RepositoryFailureKeepsCounters(t *testing.T) {
	venue := &fakeVenue{positions: []domain.Position{openPosition(13, 4.0)}}
	repo := &fakeRepo{err: errors.New("disk full")}
	m := newTestManager(t, venue, repo)

	strat := &scriptedStrategy{
		decisions: map[int64]domain.ExitDecision{
			13: domain.ClosePosition(domain.CloseReasonProfitTarget, "target"),
		},
	}

	_, err := m.Review(context.Background(), strat, &domain.MarketSnapshot{}, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Counters().Wins)
}
