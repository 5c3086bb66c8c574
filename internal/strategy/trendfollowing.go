package strategy

import (
	"context"
	"fmt"
	"time"

	"aurumbot/internal/domain"
	"aurumbot/internal/indicators"
	"aurumbot/internal/ports"
)

// Entry and exit thresholds for the classifier-driven strategy.
const (
	entryConfidence    = 0.70
	reversalConfidence = 0.65
	// Entries require the spread under this fraction of the configured max.
	liquiditySpreadFactor = 0.75
	// Unprofitable positions are abandoned after this many hold periods.
	staleHoldFactor = 4
)

// TrendFollowing trades in the direction predicted by the classifier,
// confirmed by the hourly trend.
type TrendFollowing struct {
	classifier ports.Classifier
	logger     ports.Logger
}

// NewTrendFollowing creates the classifier-driven strategy.
func NewTrendFollowing(classifier ports.Classifier, logger ports.Logger) *TrendFollowing {
	return &TrendFollowing{classifier: classifier, logger: logger}
}

func (s *TrendFollowing) Mode() domain.Mode { return domain.ModeTrendFollowing }

// RequiredDataPoints asks for enough history to settle the SMA50 the hourly
// trend agreement check relies on.
func (s *TrendFollowing) RequiredDataPoints() int { return indicators.TrendSeriesDepth }

func (s *TrendFollowing) EntryTimeframe() domain.Timeframe { return domain.TimeframeM5 }

func (s *TrendFollowing) ConfirmTimeframe() domain.Timeframe { return domain.TimeframeH1 }

// predict runs the classifier over the entry series' latest feature vector.
func (s *TrendFollowing) predict(ctx context.Context, snap *domain.MarketSnapshot) (domain.Direction, float64, error) {
	if !s.classifier.Ready() {
		return domain.None, 0, ports.ErrModelNotReady
	}

	features := snap.Entry.Indicators.FeatureVector(snap.Entry.Last())
	pred, err := s.classifier.Predict(ctx, features)
	if err != nil {
		return domain.None, 0, fmt.Errorf("prediction failed: %w", err)
	}

	dir := domain.Long
	if pred.DownProbability > pred.UpProbability {
		dir = domain.Short
	}
	return dir, pred.Confidence(), nil
}

// EvaluateEntry proposes an entry when the classifier is confident, the
// hourly trend agrees, and liquidity is good. A Sideways hourly trend blocks.
func (s *TrendFollowing) EvaluateEntry(ctx context.Context, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.Signal, error) {
	dir, conf, err := s.predict(ctx, snap)
	if err != nil {
		return domain.Signal{Direction: domain.None}, err
	}

	liquidityOK := snap.SpreadPoints() <= settings.MaxSpreadPoints*liquiditySpreadFactor

	s.logger.Debug(ctx, "classifier signal", map[string]interface{}{
		"direction":    dir,
		"confidence":   conf,
		"hourly_trend": snap.Higher.Trend,
		"liquidity_ok": liquidityOK,
	})

	if conf < entryConfidence || !snap.Higher.Trend.Agrees(dir) || !liquidityOK {
		return domain.Signal{Direction: domain.None}, nil
	}

	return domain.Signal{
		Direction:  dir,
		Confidence: conf,
		Reason:     fmt.Sprintf("classifier %s conf %.2f, hourly trend %s", dir, conf, snap.Higher.Trend),
	}, nil
}

// EvaluateExit closes on the loss cutoff, the profit target, a confident
// opposite prediction while profitable, or a stale unprofitable hold.
func (s *TrendFollowing) EvaluateExit(ctx context.Context, pos *domain.Position, snap *domain.MarketSnapshot, settings domain.TradeSettings) (domain.ExitDecision, domain.StopAdjustment, error) {
	var none domain.StopAdjustment

	if pos.ProfitUSD <= -settings.TargetLossUSD {
		return domain.ClosePosition(domain.CloseReasonStopOut,
			fmt.Sprintf("loss %.2f reached cutoff %.2f", pos.ProfitUSD, settings.TargetLossUSD)), none, nil
	}
	if pos.ProfitUSD >= settings.TargetProfitUSD {
		return domain.ClosePosition(domain.CloseReasonProfitTarget,
			fmt.Sprintf("profit %.2f reached target %.2f", pos.ProfitUSD, settings.TargetProfitUSD)), none, nil
	}

	dir, conf, err := s.predict(ctx, snap)
	if err != nil {
		// A missing model never strands an open position; fall through to
		// the time-based exit.
		s.logger.Warn(ctx, "exit prediction unavailable", map[string]interface{}{"error": err.Error()})
	} else if dir == pos.Direction.Opposite() && conf >= reversalConfidence && pos.ProfitUSD > 0 {
		return domain.ClosePosition(domain.CloseReasonReversal,
			fmt.Sprintf("opposite signal conf %.2f with profit %.2f", conf, pos.ProfitUSD)), none, nil
	}

	maxHold := time.Duration(settings.MaxHoldMinutes) * time.Minute
	if pos.HoldDuration(snap.TakenAt) >= staleHoldFactor*maxHold && pos.ProfitUSD < 0 {
		return domain.ClosePosition(domain.CloseReasonTimeLimit,
			fmt.Sprintf("held %s without profit", pos.HoldDuration(snap.TakenAt).Round(time.Second))), none, nil
	}

	return domain.HoldPosition, none, nil
}
