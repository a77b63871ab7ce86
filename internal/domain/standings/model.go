package standings

import (
	"time"

	"github.com/gridpool/pickem-league/internal/domain/settlement"
)

// Entry is one derived leaderboard row. Standings are never authoritative:
// every entry is regenerable from the submission ledger, and any divergence
// between Entry.TotalPoints and the underlying rows is a defect.
type Entry struct {
	IdentityID  string
	DisplayName string
	Guest       bool

	Submissions int
	Wins        int
	Losses      int
	Pushes      int
	LockWins    int
	LockLosses  int
	TotalPoints int

	Rank       int
	Settlement settlement.Status
}

// WinPct is wins over decided picks (pushes excluded). Used only by the
// best-finish tie-breaks.
func (e Entry) WinPct() float64 {
	decided := e.Wins + e.Losses
	if decided == 0 {
		return 0
	}
	return float64(e.Wins) / float64(decided)
}

func (e Entry) LockWinPct() float64 {
	decided := e.LockWins + e.LockLosses
	if decided == 0 {
		return 0
	}
	return float64(e.LockWins) / float64(decided)
}

// Board is a ranked standings snapshot for a season, optionally narrowed to
// one week or to the final-N-weeks best-finish view.
type Board struct {
	Season            int
	Week              *int
	LastWeeks         int
	Entries           []Entry
	SettlementApplied bool
	GeneratedAt       time.Time
}
