package pick

import (
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
)

type Result string

const (
	ResultPending Result = "PENDING"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultPush    Result = "PUSH"
)

// PushPoints is the flat award for a push, independent of side and lock.
const PushPoints = 10

// Pick is one identified-channel submission. Selection fields are immutable
// after creation; Result and Points are written only by contest resolution,
// Active only by precedence arbitration.
type Pick struct {
	ID          string
	UserID      string
	DisplayName string
	ContestID   string
	Season      int
	Week        int
	Side        contest.Side
	IsLock      bool
	Visible     bool
	Active      bool
	Result      Result
	Points      int
	CreatedAt   time.Time
}

func (p Pick) Resolved() bool {
	return p.Result != "" && p.Result != ResultPending
}

// Grade computes the stored result and award for one submission from a frozen
// outcome. Pure; the single place the point formula lives.
//
// A lock doubles the margin bonus, never the base: win = base + bonus + bonus.
func Grade(outcome contest.Outcome, side contest.Side, isLock bool, basePoints int) (Result, int) {
	if outcome.CoveringSide == contest.SidePush {
		return ResultPush, PushPoints
	}
	if side != outcome.CoveringSide {
		return ResultLoss, 0
	}

	points := basePoints + outcome.BonusPoints
	if isLock {
		points += outcome.BonusPoints
	}
	return ResultWin, points
}
