package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
)

type ContestRepository struct {
	mu    sync.RWMutex
	items map[string]contest.Contest
}

func NewContestRepository(contests []contest.Contest) *ContestRepository {
	items := make(map[string]contest.Contest, len(contests))
	for _, item := range contests {
		items[item.ID] = item
	}
	return &ContestRepository{items: items}
}

func (r *ContestRepository) GetByID(_ context.Context, contestID string) (contest.Contest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[contestID]
	return item, ok, nil
}

func (r *ContestRepository) ListBySeason(_ context.Context, season int) ([]contest.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Contest, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sortContests(out)
	return out, nil
}

func (r *ContestRepository) ListBySeasonWeek(_ context.Context, season, week int) ([]contest.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]contest.Contest, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season && item.Week == week {
			out = append(out, item)
		}
	}
	sortContests(out)
	return out, nil
}

func (r *ContestRepository) Create(_ context.Context, item contest.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *ContestRepository) ApplyScoreUpdate(_ context.Context, contestID string, update contest.ScoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contestID]
	if !ok {
		return errNotFound("contest", contestID)
	}
	if update.HomeScore != nil {
		item.HomeScore = update.HomeScore
	}
	if update.AwayScore != nil {
		item.AwayScore = update.AwayScore
	}
	item.Status = update.Status
	item.Clock = update.Clock
	r.items[contestID] = item
	return nil
}

func (r *ContestRepository) FreezeOutcome(_ context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contestID]
	if !ok {
		return false, errNotFound("contest", contestID)
	}
	if item.OutcomeFrozen() {
		return false, nil
	}
	item.CoveringSide = outcome.CoveringSide
	item.BonusPoints = outcome.BonusPoints
	frozen := frozenAt
	item.OutcomeFrozenAt = &frozen
	r.items[contestID] = item
	return true, nil
}

func (r *ContestRepository) OverwriteOutcome(_ context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contestID]
	if !ok {
		return errNotFound("contest", contestID)
	}
	item.CoveringSide = outcome.CoveringSide
	item.BonusPoints = outcome.BonusPoints
	frozen := frozenAt
	item.OutcomeFrozenAt = &frozen
	r.items[contestID] = item
	return nil
}

func sortContests(items []contest.Contest) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Week != items[j].Week {
			return items[i].Week < items[j].Week
		}
		if !items[i].KickoffAt.Equal(items[j].KickoffAt) {
			return items[i].KickoffAt.Before(items[j].KickoffAt)
		}
		return items[i].ID < items[j].ID
	})
}
