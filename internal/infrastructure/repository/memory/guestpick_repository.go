package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type GuestPickRepository struct {
	mu    sync.RWMutex
	items map[string]guestpick.GuestPick
}

func NewGuestPickRepository(picks []guestpick.GuestPick) *GuestPickRepository {
	items := make(map[string]guestpick.GuestPick, len(picks))
	for _, item := range picks {
		items[item.ID] = item
	}
	return &GuestPickRepository{items: items}
}

func (r *GuestPickRepository) ListByContest(_ context.Context, contestID string) ([]guestpick.GuestPick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item guestpick.GuestPick) bool { return item.ContestID == contestID }), nil
}

func (r *GuestPickRepository) ListBySeason(_ context.Context, season int) ([]guestpick.GuestPick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item guestpick.GuestPick) bool { return item.Season == season }), nil
}

func (r *GuestPickRepository) ListBySet(_ context.Context, setID string) ([]guestpick.GuestPick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item guestpick.GuestPick) bool { return item.SetID == setID }), nil
}

func (r *GuestPickRepository) ListClaimedByUserWeek(_ context.Context, userID string, season, week int) ([]guestpick.GuestPick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(item guestpick.GuestPick) bool {
		return item.Claimed() && *item.ClaimedByUserID == userID &&
			item.Season == season && item.Week == week
	}), nil
}

func (r *GuestPickRepository) Create(_ context.Context, items []guestpick.GuestPick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *GuestPickRepository) Claim(_ context.Context, setID, userID string, claimedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.SetID != setID || item.Claimed() {
			continue
		}
		claimant := userID
		at := claimedAt
		item.ClaimedByUserID = &claimant
		item.ClaimedAt = &at
		r.items[id] = item
	}
	return nil
}

func (r *GuestPickRepository) SetVisibilityBySet(_ context.Context, setID string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.SetID == setID {
			item.Visible = visible
			r.items[id] = item
		}
	}
	return nil
}

func (r *GuestPickRepository) SetValidationBySet(_ context.Context, setID string, state guestpick.ValidationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.SetID == setID {
			item.Validation = state
			r.items[id] = item
		}
	}
	return nil
}

func (r *GuestPickRepository) UpdateResults(_ context.Context, updates []pick.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		item, ok := r.items[update.ID]
		if !ok {
			return errNotFound("guest pick", update.ID)
		}
		item.Result = update.Result
		item.Points = update.Points
		r.items[update.ID] = item
	}
	return nil
}

// setSetActive flips the active flag on every row of a set. Reserved for the
// precedence repository.
func (r *GuestPickRepository) setSetActive(setID string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.SetID == setID {
			item.Active = active
			r.items[id] = item
		}
	}
}

func (r *GuestPickRepository) collect(match func(guestpick.GuestPick) bool) []guestpick.GuestPick {
	out := make([]guestpick.GuestPick, 0)
	for _, item := range r.items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SetID != out[j].SetID {
			return out[i].SetID < out[j].SetID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
