package contest

import (
	"errors"
	"fmt"
	"math"
)

// Spread arithmetic runs on half points (point values doubled into integers),
// so a push is plain integer equality. An earlier float comparison with a
// tolerance produced wrong pushes on half-point spreads; do not reintroduce it.

// Margin bonus tiers in half points: 11, 20 and 29 point margins.
const (
	bonusMarginHalfLow  = 22
	bonusMarginHalfMid  = 40
	bonusMarginHalfHigh = 58

	BonusLow  = 1
	BonusMid  = 3
	BonusHigh = 5
)

var ErrScoresMissing = errors.New("final scores are missing")

// Outcome is the frozen grading result of a completed contest.
type Outcome struct {
	CoveringSide Side
	MarginHalf   int // cover margin in half points, 0 on a push
	BonusPoints  int
}

// ComputeOutcome grades a final score against the home-perspective spread.
// Pure; callers persist the result exactly once.
func ComputeOutcome(homeScore, awayScore, spreadHalf int) Outcome {
	adjustedHome := homeScore*2 + spreadHalf
	adjustedAway := awayScore * 2

	if adjustedHome == adjustedAway {
		return Outcome{CoveringSide: SidePush}
	}

	side := SideHome
	margin := adjustedHome - adjustedAway
	if margin < 0 {
		side = SideAway
		margin = -margin
	}

	return Outcome{
		CoveringSide: side,
		MarginHalf:   margin,
		BonusPoints:  bonusForMargin(margin),
	}
}

func bonusForMargin(marginHalf int) int {
	switch {
	case marginHalf >= bonusMarginHalfHigh:
		return BonusHigh
	case marginHalf >= bonusMarginHalfMid:
		return BonusMid
	case marginHalf >= bonusMarginHalfLow:
		return BonusLow
	default:
		return 0
	}
}

// Margin returns the cover margin in points.
func (o Outcome) Margin() float64 {
	return float64(o.MarginHalf) / 2
}

// SpreadHalfFromPoints converts a point spread (e.g. -6.5) into half points,
// rejecting anything that is not a whole or half number.
func SpreadHalfFromPoints(points float64) (int, error) {
	doubled := points * 2
	rounded := math.Round(doubled)
	if math.Abs(doubled-rounded) > 1e-9 {
		return 0, fmt.Errorf("spread %v is not a half-point multiple", points)
	}
	return int(rounded), nil
}

// SpreadPoints converts stored half points back to the point spread.
func SpreadPoints(spreadHalf int) float64 {
	return float64(spreadHalf) / 2
}
