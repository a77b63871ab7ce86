package precedence

import "time"

// Channel names one of the two submission channels competing for the same
// (identity, period).
type Channel string

const (
	ChannelIdentified Channel = "IDENTIFIED"
	ChannelGuest      Channel = "GUEST"
)

func IsValidChannel(ch Channel) bool {
	return ch == ChannelIdentified || ch == ChannelGuest
}

// Override is a sticky administrative precedence decision. It beats the
// rule-based arbitration until cleared.
type Override struct {
	UserID    string
	Season    int
	Week      int
	Channel   Channel
	Reason    string
	Actor     string
	CreatedAt time.Time
	ClearedAt *time.Time
}

func (o Override) Active() bool {
	return o.ClearedAt == nil
}

// Decision is the arbitration verdict for one (identity, period): which
// channel counts and which guest sets it covers. Applying a decision flips
// active flags on both channels atomically so racing writes still converge
// to exactly one active set.
type Decision struct {
	UserID        string
	Season        int
	Week          int
	ActiveChannel Channel
	// GuestSetIDs are the claimant's sets in the period; all are deactivated
	// when the identified channel wins, and exactly the first eligible one is
	// activated when the guest channel wins.
	ActivateGuestSetID    string
	DeactivateGuestSetIDs []string
	DecidedAt             time.Time
}
