package precedence

import (
	"context"
	"time"
)

type Repository interface {
	GetOverride(ctx context.Context, userID string, season, week int) (Override, bool, error)
	UpsertOverride(ctx context.Context, item Override) error
	ClearOverride(ctx context.Context, userID string, season, week int, clearedAt time.Time) error

	// ApplyDecision flips the active flags of both channels for one
	// (identity, period) in a single transaction. Last committed decision
	// wins; partial application is not a valid terminal state.
	ApplyDecision(ctx context.Context, decision Decision) error
}
