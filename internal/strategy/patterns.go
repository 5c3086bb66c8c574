package strategy

import "aurumbot/internal/domain"

// Body-to-ATR ratio below which a candle counts as small-bodied for the
// single-candle reversal patterns.
const smallBodyATRRatio = 0.3

// isBullishEngulfing reports whether the last candle is a bullish bar whose
// body engulfs the previous bearish bar's body.
func isBullishEngulfing(candles []domain.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	cur := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	return cur.IsBullish() &&
		prev.IsBearish() &&
		cur.Close >= prev.Open &&
		cur.Open <= prev.Close
}

// isBearishEngulfing reports whether the last candle is a bearish bar whose
// body engulfs the previous bullish bar's body.
func isBearishEngulfing(candles []domain.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	cur := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	return cur.IsBearish() &&
		prev.IsBullish() &&
		cur.Close <= prev.Open &&
		cur.Open >= prev.Close
}

// engulfingStrength scores the most recent engulfing pair by how far the
// engulfing body exceeds the engulfed one, capped at 1. Zero when the last
// two bars do not form an engulfing pattern in either direction.
func engulfingStrength(candles []domain.Candle) float64 {
	if !isBullishEngulfing(candles) && !isBearishEngulfing(candles) {
		return 0
	}
	cur := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	if cur.Body() <= 0 {
		return 0
	}
	if prev.Body() <= 0 {
		return 1
	}
	s := cur.Body() / (2 * prev.Body())
	if s > 1 {
		return 1
	}
	return s
}

// isBullishReversalCandle detects a hammer or inverted hammer on the last
// bar: a small body with one dominant wick.
func isBullishReversalCandle(candles []domain.Candle, atr float64) bool {
	if len(candles) < 1 || atr <= 0 {
		return false
	}
	c := candles[len(candles)-1]
	body := c.Body()
	if body >= atr*smallBodyATRRatio {
		return false
	}

	hammer := c.LowerWick() > 2*body && c.UpperWick() < body
	inverted := c.UpperWick() > 2*body && c.LowerWick() < body
	return hammer || inverted
}

// isBearishReversalCandle detects a shooting star or hanging man on the
// last bar.
func isBearishReversalCandle(candles []domain.Candle, atr float64) bool {
	if len(candles) < 1 || atr <= 0 {
		return false
	}
	c := candles[len(candles)-1]
	body := c.Body()
	if body >= atr*smallBodyATRRatio {
		return false
	}

	shootingStar := c.UpperWick() > 2*body && c.LowerWick() < body
	hangingMan := c.LowerWick() > 2*body && c.UpperWick() < body
	return shootingStar || hangingMan
}
