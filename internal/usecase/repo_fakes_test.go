package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/domain/settlement"
)

// In-memory fakes shared by the usecase tests. They mirror the repository
// contracts closely enough to exercise idempotence and convergence paths.

type fakeContestRepo struct {
	mu         sync.Mutex
	items      map[string]contest.Contest
	scoreCalls int
}

func newFakeContestRepo(items ...contest.Contest) *fakeContestRepo {
	repo := &fakeContestRepo{items: make(map[string]contest.Contest, len(items))}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *fakeContestRepo) GetByID(_ context.Context, contestID string) (contest.Contest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[contestID]
	return item, ok, nil
}

func (r *fakeContestRepo) ListBySeason(_ context.Context, season int) ([]contest.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contest.Contest, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sortContests(out)
	return out, nil
}

func (r *fakeContestRepo) ListBySeasonWeek(_ context.Context, season, week int) ([]contest.Contest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contest.Contest, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season && item.Week == week {
			out = append(out, item)
		}
	}
	sortContests(out)
	return out, nil
}

func (r *fakeContestRepo) Create(_ context.Context, item contest.Contest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeContestRepo) ApplyScoreUpdate(_ context.Context, contestID string, update contest.ScoreUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scoreCalls++
	item, ok := r.items[contestID]
	if !ok {
		return fmt.Errorf("contest not found: %s", contestID)
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

func (r *fakeContestRepo) FreezeOutcome(_ context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[contestID]
	if !ok {
		return false, fmt.Errorf("contest not found: %s", contestID)
	}
	if item.OutcomeFrozen() {
		return false, nil
	}
	item.CoveringSide = outcome.CoveringSide
	item.BonusPoints = outcome.BonusPoints
	item.OutcomeFrozenAt = &frozenAt
	r.items[contestID] = item
	return true, nil
}

func (r *fakeContestRepo) OverwriteOutcome(_ context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[contestID]
	if !ok {
		return fmt.Errorf("contest not found: %s", contestID)
	}
	item.CoveringSide = outcome.CoveringSide
	item.BonusPoints = outcome.BonusPoints
	item.OutcomeFrozenAt = &frozenAt
	r.items[contestID] = item
	return nil
}

func sortContests(items []contest.Contest) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

type fakePickRepo struct {
	mu          sync.Mutex
	items       map[string]pick.Pick
	updateCalls int
	updatedRows int
	failUpdates error
}

func newFakePickRepo(items ...pick.Pick) *fakePickRepo {
	repo := &fakePickRepo{items: make(map[string]pick.Pick, len(items))}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *fakePickRepo) ListByContest(_ context.Context, contestID string) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0, len(r.items))
	for _, item := range r.items {
		if item.ContestID == contestID {
			out = append(out, item)
		}
	}
	sortPicks(out)
	return out, nil
}

func (r *fakePickRepo) ListBySeason(_ context.Context, season int) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sortPicks(out)
	return out, nil
}

func (r *fakePickRepo) ListByUserWeek(_ context.Context, userID string, season, week int) ([]pick.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pick.Pick, 0, len(r.items))
	for _, item := range r.items {
		if item.UserID == userID && item.Season == season && item.Week == week {
			out = append(out, item)
		}
	}
	sortPicks(out)
	return out, nil
}

func (r *fakePickRepo) Create(_ context.Context, items []pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *fakePickRepo) DeleteByUserWeek(_ context.Context, userID string, season, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.UserID == userID && item.Season == season && item.Week == week {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *fakePickRepo) UpdateResults(_ context.Context, updates []pick.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates != nil {
		return r.failUpdates
	}
	r.updateCalls++
	for _, update := range updates {
		item, ok := r.items[update.ID]
		if !ok {
			return fmt.Errorf("pick not found: %s", update.ID)
		}
		item.Result = update.Result
		item.Points = update.Points
		r.items[update.ID] = item
		r.updatedRows++
	}
	return nil
}

func (r *fakePickRepo) setActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := r.items[id]
	item.Active = active
	r.items[id] = item
}

func (r *fakePickRepo) get(id string) pick.Pick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func sortPicks(items []pick.Pick) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

type fakeGuestPickRepo struct {
	mu          sync.Mutex
	items       map[string]guestpick.GuestPick
	updateCalls int
	updatedRows int
}

func newFakeGuestPickRepo(items ...guestpick.GuestPick) *fakeGuestPickRepo {
	repo := &fakeGuestPickRepo{items: make(map[string]guestpick.GuestPick, len(items))}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *fakeGuestPickRepo) ListByContest(_ context.Context, contestID string) ([]guestpick.GuestPick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]guestpick.GuestPick, 0, len(r.items))
	for _, item := range r.items {
		if item.ContestID == contestID {
			out = append(out, item)
		}
	}
	sortGuestPicks(out)
	return out, nil
}

func (r *fakeGuestPickRepo) ListBySeason(_ context.Context, season int) ([]guestpick.GuestPick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]guestpick.GuestPick, 0, len(r.items))
	for _, item := range r.items {
		if item.Season == season {
			out = append(out, item)
		}
	}
	sortGuestPicks(out)
	return out, nil
}

func (r *fakeGuestPickRepo) ListBySet(_ context.Context, setID string) ([]guestpick.GuestPick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]guestpick.GuestPick, 0, len(r.items))
	for _, item := range r.items {
		if item.SetID == setID {
			out = append(out, item)
		}
	}
	sortGuestPicks(out)
	return out, nil
}

func (r *fakeGuestPickRepo) ListClaimedByUserWeek(_ context.Context, userID string, season, week int) ([]guestpick.GuestPick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]guestpick.GuestPick, 0, len(r.items))
	for _, item := range r.items {
		if item.Claimed() && *item.ClaimedByUserID == userID && item.Season == season && item.Week == week {
			out = append(out, item)
		}
	}
	sortGuestPicks(out)
	return out, nil
}

func (r *fakeGuestPickRepo) Create(_ context.Context, items []guestpick.GuestPick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *fakeGuestPickRepo) Claim(_ context.Context, setID, userID string, claimedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.SetID == setID {
			userID := userID
			claimedAt := claimedAt
			item.ClaimedByUserID = &userID
			item.ClaimedAt = &claimedAt
			r.items[id] = item
		}
	}
	return nil
}

func (r *fakeGuestPickRepo) SetVisibilityBySet(_ context.Context, setID string, visible bool) error {
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

func (r *fakeGuestPickRepo) SetValidationBySet(_ context.Context, setID string, state guestpick.ValidationState) error {
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

func (r *fakeGuestPickRepo) UpdateResults(_ context.Context, updates []pick.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	for _, update := range updates {
		item, ok := r.items[update.ID]
		if !ok {
			return fmt.Errorf("guest pick not found: %s", update.ID)
		}
		item.Result = update.Result
		item.Points = update.Points
		r.items[update.ID] = item
		r.updatedRows++
	}
	return nil
}

func (r *fakeGuestPickRepo) get(id string) guestpick.GuestPick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

func sortGuestPicks(items []guestpick.GuestPick) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

type precedenceKey struct {
	userID string
	season int
	week   int
}

// fakePrecedenceRepo applies decisions against the pick and guest pick fakes,
// mirroring the single-transaction flip the real repository performs.
type fakePrecedenceRepo struct {
	mu        sync.Mutex
	overrides map[precedenceKey]precedence.Override
	picks     *fakePickRepo
	guests    *fakeGuestPickRepo
	decisions []precedence.Decision
}

func newFakePrecedenceRepo(picks *fakePickRepo, guests *fakeGuestPickRepo) *fakePrecedenceRepo {
	return &fakePrecedenceRepo{
		overrides: make(map[precedenceKey]precedence.Override),
		picks:     picks,
		guests:    guests,
	}
}

func (r *fakePrecedenceRepo) GetOverride(_ context.Context, userID string, season, week int) (precedence.Override, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.overrides[precedenceKey{userID, season, week}]
	return item, ok, nil
}

func (r *fakePrecedenceRepo) UpsertOverride(_ context.Context, item precedence.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[precedenceKey{item.UserID, item.Season, item.Week}] = item
	return nil
}

func (r *fakePrecedenceRepo) ClearOverride(_ context.Context, userID string, season, week int, clearedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := precedenceKey{userID, season, week}
	item, ok := r.overrides[key]
	if !ok {
		return nil
	}
	item.ClearedAt = &clearedAt
	r.overrides[key] = item
	return nil
}

func (r *fakePrecedenceRepo) ApplyDecision(_ context.Context, decision precedence.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, decision)

	identifiedActive := decision.ActiveChannel == precedence.ChannelIdentified

	r.picks.mu.Lock()
	for id, item := range r.picks.items {
		if item.UserID == decision.UserID && item.Season == decision.Season && item.Week == decision.Week {
			item.Active = identifiedActive
			r.picks.items[id] = item
		}
	}
	r.picks.mu.Unlock()

	r.guests.mu.Lock()
	for id, item := range r.guests.items {
		if item.SetID == decision.ActivateGuestSetID {
			item.Active = true
			r.guests.items[id] = item
			continue
		}
		for _, setID := range decision.DeactivateGuestSetIDs {
			if item.SetID == setID {
				item.Active = false
				r.guests.items[id] = item
				break
			}
		}
	}
	r.guests.mu.Unlock()
	return nil
}

type fakeSettlementProvider struct {
	statuses map[string]settlement.Status
	err      error
	calls    int
}

func (p *fakeSettlementProvider) StatusesBySeason(_ context.Context, _ int) (map[string]settlement.Status, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.statuses, nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
