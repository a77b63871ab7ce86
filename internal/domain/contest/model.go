package contest

import (
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Side identifies which entry of a contest covered the spread.
type Side string

const (
	SideHome Side = "HOME"
	SideAway Side = "AWAY"
	SidePush Side = "PUSH"
)

// Contest is one scheduled matchup carrying the spread picks are graded
// against. Scores and clock mutate while play is live; covering side and
// bonus are written exactly once, when the contest completes, and stay
// frozen afterwards.
type Contest struct {
	ID         string
	Season     int
	Week       int
	HomeTeam   string
	AwayTeam   string
	HomeScore  *int
	AwayScore  *int
	SpreadHalf int // home-perspective handicap in half points (spread x2)
	BasePoints int // straight-win award before bonuses
	Status     Status
	KickoffAt  time.Time
	Clock      string

	CoveringSide    Side // empty until the outcome is frozen
	BonusPoints     int
	OutcomeFrozenAt *time.Time
}

func (c Contest) OutcomeFrozen() bool {
	return c.CoveringSide != "" && c.OutcomeFrozenAt != nil
}

func (c Contest) HasFinalScores() bool {
	return c.HomeScore != nil && c.AwayScore != nil
}

func NormalizeStatus(value string) Status {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case "":
		return StatusScheduled
	case "LIVE", "IN_PLAY":
		return StatusInProgress
	case "FINAL", "FINISHED", "FT":
		return StatusCompleted
	default:
		return Status(status)
	}
}

func IsValidStatus(status Status) bool {
	switch status {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func NormalizeSide(value string) Side {
	return Side(strings.ToUpper(strings.TrimSpace(value)))
}

// IsPickableSide reports whether a side can be chosen on a submission.
// Push is an outcome, never a choice.
func IsPickableSide(side Side) bool {
	return side == SideHome || side == SideAway
}
