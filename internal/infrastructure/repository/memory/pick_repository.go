package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	items map[string]pick.Pick
}

func NewPickRepository(picks []pick.Pick) *PickRepository {
	items := make(map[string]pick.Pick, len(picks))
	for _, item := range picks {
		items[item.ID] = item
	}
	return &PickRepository{items: items}
}

func (r *PickRepository) ListByContest(_ context.Context, contestID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item pick.Pick) bool { return item.ContestID == contestID }), nil
}

func (r *PickRepository) ListBySeason(_ context.Context, season int) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item pick.Pick) bool { return item.Season == season }), nil
}

func (r *PickRepository) ListByUserWeek(_ context.Context, userID string, season, week int) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item pick.Pick) bool {
		return item.UserID == userID && item.Season == season && item.Week == week
	}), nil
}

func (r *PickRepository) Create(_ context.Context, items []pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *PickRepository) DeleteByUserWeek(_ context.Context, userID string, season, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.UserID == userID && item.Season == season && item.Week == week {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *PickRepository) UpdateResults(_ context.Context, updates []pick.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		item, ok := r.items[update.ID]
		if !ok {
			return errNotFound("pick", update.ID)
		}
		item.Result = update.Result
		item.Points = update.Points
		r.items[update.ID] = item
	}
	return nil
}

// setActive flips the active flag on a user's slate. Reserved for the
// precedence repository.
func (r *PickRepository) setActive(userID string, season, week int, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.UserID == userID && item.Season == season && item.Week == week {
			item.Active = active
			r.items[id] = item
		}
	}
}

func (r *PickRepository) collect(match func(pick.Pick) bool) []pick.Pick {
	out := make([]pick.Pick, 0)
	for _, item := range r.items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].ID < out[j].ID
	})
	return out
}
