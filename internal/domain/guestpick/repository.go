package guestpick

import (
	"context"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type Repository interface {
	ListByContest(ctx context.Context, contestID string) ([]GuestPick, error)
	ListBySeason(ctx context.Context, season int) ([]GuestPick, error)
	ListBySet(ctx context.Context, setID string) ([]GuestPick, error)
	ListClaimedByUserWeek(ctx context.Context, userID string, season, week int) ([]GuestPick, error)

	Create(ctx context.Context, items []GuestPick) error

	// Claim attaches a claimant to every row of the set.
	Claim(ctx context.Context, setID, userID string, claimedAt time.Time) error

	SetVisibilityBySet(ctx context.Context, setID string, visible bool) error
	SetValidationBySet(ctx context.Context, setID string, state ValidationState) error

	UpdateResults(ctx context.Context, updates []pick.ResultUpdate) error
}
