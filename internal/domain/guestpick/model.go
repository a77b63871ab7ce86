package guestpick

import (
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type ValidationState string

const (
	ValidationPending ValidationState = "PENDING"
	ValidationValid   ValidationState = "VALID"
	ValidationInvalid ValidationState = "INVALID"
)

// GuestPick is one anonymous-channel submission. Rows sharing a SetID form
// one guest submission set for a (season, week). A set can be claimed by an
// account later; superseded sets are deactivated, never deleted.
type GuestPick struct {
	ID              string
	SetID           string
	DisplayName     string
	ClaimedByUserID *string
	ContestID       string
	Season          int
	Week            int
	Side            contest.Side
	IsLock          bool
	Visible         bool
	Active          bool
	Validation      ValidationState
	Result          pick.Result
	Points          int
	CreatedAt       time.Time
	ClaimedAt       *time.Time
}

func (g GuestPick) Resolved() bool {
	return g.Result != "" && g.Result != pick.ResultPending
}

func (g GuestPick) Claimed() bool {
	return g.ClaimedByUserID != nil && *g.ClaimedByUserID != ""
}
