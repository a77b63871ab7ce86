package pick

import "context"

// ResultUpdate touches result and points only; nothing else on the row.
type ResultUpdate struct {
	ID     string
	Result Result
	Points int
}

type Repository interface {
	ListByContest(ctx context.Context, contestID string) ([]Pick, error)
	ListBySeason(ctx context.Context, season int) ([]Pick, error)
	ListByUserWeek(ctx context.Context, userID string, season, week int) ([]Pick, error)

	Create(ctx context.Context, items []Pick) error
	DeleteByUserWeek(ctx context.Context, userID string, season, week int) error

	UpdateResults(ctx context.Context, updates []ResultUpdate) error
}
