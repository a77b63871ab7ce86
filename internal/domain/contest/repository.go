package contest

import (
	"context"
	"time"
)

// ScoreUpdate carries the fields the live feed is allowed to touch. A nil
// score means the tick did not carry that side and the stored value stays.
// Result and outcome fields are written through FreezeOutcome only, so feed
// writes and grading writes never overlap.
type ScoreUpdate struct {
	HomeScore *int
	AwayScore *int
	Status    Status
	Clock     string
}

type Repository interface {
	GetByID(ctx context.Context, contestID string) (Contest, bool, error)
	ListBySeason(ctx context.Context, season int) ([]Contest, error)
	ListBySeasonWeek(ctx context.Context, season, week int) ([]Contest, error)
	Create(ctx context.Context, item Contest) error

	ApplyScoreUpdate(ctx context.Context, contestID string, update ScoreUpdate) error

	// FreezeOutcome persists a computed outcome only when none is stored yet
	// and reports whether this call did the write.
	FreezeOutcome(ctx context.Context, contestID string, outcome Outcome, frozenAt time.Time) (bool, error)

	// OverwriteOutcome replaces a frozen outcome. Reserved for explicit,
	// logged recomputation.
	OverwriteOutcome(ctx context.Context, contestID string, outcome Outcome, frozenAt time.Time) error
}
