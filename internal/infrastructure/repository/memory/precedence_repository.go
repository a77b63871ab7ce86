package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/precedence"
)

type PrecedenceRepository struct {
	mu        sync.RWMutex
	overrides map[string]precedence.Override

	picks      *PickRepository
	guestPicks *GuestPickRepository
}

func NewPrecedenceRepository(picks *PickRepository, guestPicks *GuestPickRepository) *PrecedenceRepository {
	return &PrecedenceRepository{
		overrides:  make(map[string]precedence.Override),
		picks:      picks,
		guestPicks: guestPicks,
	}
}

func (r *PrecedenceRepository) GetOverride(_ context.Context, userID string, season, week int) (precedence.Override, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.overrides[overrideKey(userID, season, week)]
	return item, ok, nil
}

func (r *PrecedenceRepository) UpsertOverride(_ context.Context, item precedence.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.ClearedAt = nil
	r.overrides[overrideKey(item.UserID, item.Season, item.Week)] = item
	return nil
}

func (r *PrecedenceRepository) ClearOverride(_ context.Context, userID string, season, week int, clearedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := overrideKey(userID, season, week)
	item, ok := r.overrides[key]
	if !ok || item.ClearedAt != nil {
		return nil
	}
	at := clearedAt
	item.ClearedAt = &at
	r.overrides[key] = item
	return nil
}

// ApplyDecision serializes decisions behind this repository's write lock so
// racing arbitrations apply wholesale, one after another.
func (r *PrecedenceRepository) ApplyDecision(_ context.Context, decision precedence.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if decision.UserID != "" {
		r.picks.setActive(decision.UserID, decision.Season, decision.Week,
			decision.ActiveChannel == precedence.ChannelIdentified)
	}
	for _, setID := range decision.DeactivateGuestSetIDs {
		r.guestPicks.setSetActive(setID, false)
	}
	if decision.ActivateGuestSetID != "" {
		r.guestPicks.setSetActive(decision.ActivateGuestSetID, true)
	}
	return nil
}

func overrideKey(userID string, season, week int) string {
	return fmt.Sprintf("%s:%d:%d", userID, season, week)
}
