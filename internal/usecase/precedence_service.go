package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// standingsInvalidator drops cached leaderboards after writes that change
// which submissions count.
type standingsInvalidator interface {
	InvalidateSeason(season int)
}

// PrecedenceService decides which submission channel counts for one
// (identity, period) and keeps both channels' active flags converged on that
// verdict. All flag writes flow through precedence.Repository.ApplyDecision.
type PrecedenceService struct {
	pickRepo       pick.Repository
	guestRepo      guestpick.Repository
	precedenceRepo precedence.Repository
	standings      standingsInvalidator
	logger         *logging.Logger
	now            func() time.Time
}

func NewPrecedenceService(
	pickRepo pick.Repository,
	guestRepo guestpick.Repository,
	precedenceRepo precedence.Repository,
	standings standingsInvalidator,
	logger *logging.Logger,
) *PrecedenceService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PrecedenceService{
		pickRepo:       pickRepo,
		guestRepo:      guestRepo,
		precedenceRepo: precedenceRepo,
		standings:      standings,
		logger:         logger,
		now:            time.Now,
	}
}

type OverrideInput struct {
	UserID  string
	Season  int
	Week    int
	Channel precedence.Channel
	Reason  string
	Actor   string
}

type guestSet struct {
	setID     string
	visible   bool
	valid     bool
	createdAt time.Time
}

// Arbitrate recomputes the active channel for one (identity, period) and
// applies the verdict atomically. Precedence order: active admin override,
// then identified submissions, then the oldest eligible claimed guest set.
// It is safe to call after any write that could change the verdict; repeated
// calls settle on the same state.
func (s *PrecedenceService) Arbitrate(ctx context.Context, userID string, season, week int) (precedence.Decision, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrecedenceService.Arbitrate")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return precedence.Decision{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	override, hasOverride, err := s.precedenceRepo.GetOverride(ctx, userID, season, week)
	if err != nil {
		return precedence.Decision{}, fmt.Errorf("get precedence override: %w", err)
	}
	identified, err := s.pickRepo.ListByUserWeek(ctx, userID, season, week)
	if err != nil {
		return precedence.Decision{}, fmt.Errorf("list picks by user week: %w", err)
	}
	claimed, err := s.guestRepo.ListClaimedByUserWeek(ctx, userID, season, week)
	if err != nil {
		return precedence.Decision{}, fmt.Errorf("list claimed guest picks: %w", err)
	}

	sets := groupGuestSets(claimed)
	eligible := make([]guestSet, 0, len(sets))
	for _, set := range sets {
		if set.visible && set.valid {
			eligible = append(eligible, set)
		}
	}

	decision := precedence.Decision{
		UserID:    userID,
		Season:    season,
		Week:      week,
		DecidedAt: s.now().UTC(),
	}

	switch {
	case hasOverride && override.Active():
		switch override.Channel {
		case precedence.ChannelIdentified:
			decision.ActiveChannel = precedence.ChannelIdentified
			decision.DeactivateGuestSetIDs = setIDs(sets)
		case precedence.ChannelGuest:
			if len(eligible) == 0 {
				return precedence.Decision{}, fmt.Errorf("%w: override forces guest channel but user %s has no eligible guest set for season=%d week=%d", ErrConflict, userID, season, week)
			}
			decision.ActiveChannel = precedence.ChannelGuest
			decision.ActivateGuestSetID = eligible[0].setID
			decision.DeactivateGuestSetIDs = setIDsExcept(sets, eligible[0].setID)
		}
	case len(identified) > 0:
		decision.ActiveChannel = precedence.ChannelIdentified
		decision.DeactivateGuestSetIDs = setIDs(sets)
	case len(eligible) > 0:
		decision.ActiveChannel = precedence.ChannelGuest
		decision.ActivateGuestSetID = eligible[0].setID
		decision.DeactivateGuestSetIDs = setIDsExcept(sets, eligible[0].setID)
	default:
		// Nothing eligible on either channel; leave everything inactive.
		decision.ActiveChannel = precedence.ChannelIdentified
		decision.DeactivateGuestSetIDs = setIDs(sets)
	}

	if err := s.precedenceRepo.ApplyDecision(ctx, decision); err != nil {
		return precedence.Decision{}, fmt.Errorf("apply precedence decision user=%s season=%d week=%d: %w", userID, season, week, err)
	}
	s.invalidateStandings(season)

	s.logger.InfoContext(ctx, "precedence arbitrated",
		"user_id", userID,
		"season", season,
		"week", week,
		"active_channel", string(decision.ActiveChannel),
		"activated_set", decision.ActivateGuestSetID,
		"deactivated_sets", len(decision.DeactivateGuestSetIDs),
	)
	return decision, nil
}

// OverridePrecedence records a sticky admin verdict and re-arbitrates under
// it. The override survives later submissions until cleared.
func (s *PrecedenceService) OverridePrecedence(ctx context.Context, input OverrideInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrecedenceService.OverridePrecedence")
	defer span.End()

	if strings.TrimSpace(input.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !precedence.IsValidChannel(input.Channel) {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, input.Channel)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return fmt.Errorf("%w: override reason is required", ErrInvalidInput)
	}

	item := precedence.Override{
		UserID:    input.UserID,
		Season:    input.Season,
		Week:      input.Week,
		Channel:   input.Channel,
		Reason:    strings.TrimSpace(input.Reason),
		Actor:     input.Actor,
		CreatedAt: s.now().UTC(),
	}
	if err := s.precedenceRepo.UpsertOverride(ctx, item); err != nil {
		return fmt.Errorf("upsert precedence override: %w", err)
	}

	s.logger.WarnContext(ctx, "precedence override set",
		"user_id", input.UserID,
		"season", input.Season,
		"week", input.Week,
		"channel", string(input.Channel),
		"reason", item.Reason,
		"actor", input.Actor,
	)

	if _, err := s.Arbitrate(ctx, input.UserID, input.Season, input.Week); err != nil {
		return err
	}
	return nil
}

// ClearOverride removes a sticky verdict and lets rule-based arbitration
// decide again.
func (s *PrecedenceService) ClearOverride(ctx context.Context, userID string, season, week int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrecedenceService.ClearOverride")
	defer span.End()

	if err := s.precedenceRepo.ClearOverride(ctx, userID, season, week, s.now().UTC()); err != nil {
		return fmt.Errorf("clear precedence override: %w", err)
	}

	s.logger.InfoContext(ctx, "precedence override cleared",
		"user_id", userID,
		"season", season,
		"week", week,
	)

	if _, err := s.Arbitrate(ctx, userID, season, week); err != nil {
		return err
	}
	return nil
}

// ClaimGuestSet attaches a guest submission set to an account and folds it
// into that account's arbitration. Claiming an already-claimed set is a
// conflict unless the claimant matches, which is a no-op re-claim.
func (s *PrecedenceService) ClaimGuestSet(ctx context.Context, setID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrecedenceService.ClaimGuestSet")
	defer span.End()

	if strings.TrimSpace(setID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: set id and user id are required", ErrInvalidInput)
	}

	rows, err := s.guestRepo.ListBySet(ctx, setID)
	if err != nil {
		return fmt.Errorf("list guest set: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: guest set %s", ErrNotFound, setID)
	}

	season, week := rows[0].Season, rows[0].Week
	if rows[0].Claimed() {
		if *rows[0].ClaimedByUserID != userID {
			return fmt.Errorf("%w: guest set %s is already claimed", ErrConflict, setID)
		}
		_, err := s.Arbitrate(ctx, userID, season, week)
		return err
	}

	state := validateGuestSet(rows)
	if err := s.guestRepo.SetValidationBySet(ctx, setID, state); err != nil {
		return fmt.Errorf("set guest set validation: %w", err)
	}
	if err := s.guestRepo.Claim(ctx, setID, userID, s.now().UTC()); err != nil {
		return fmt.Errorf("claim guest set: %w", err)
	}

	s.logger.InfoContext(ctx, "guest set claimed",
		"set_id", setID,
		"user_id", userID,
		"season", season,
		"week", week,
		"validation", string(state),
	)

	if _, err := s.Arbitrate(ctx, userID, season, week); err != nil {
		return err
	}
	return nil
}

// SetGuestSetVisibility hides or reveals a guest set. A hidden set is
// deactivated unconditionally, claimed or not; revealing it hands the call
// back to arbitration.
func (s *PrecedenceService) SetGuestSetVisibility(ctx context.Context, setID string, visible bool) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrecedenceService.SetGuestSetVisibility")
	defer span.End()

	rows, err := s.guestRepo.ListBySet(ctx, setID)
	if err != nil {
		return fmt.Errorf("list guest set: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: guest set %s", ErrNotFound, setID)
	}

	if err := s.guestRepo.SetVisibilityBySet(ctx, setID, visible); err != nil {
		return fmt.Errorf("set guest set visibility: %w", err)
	}

	season, week := rows[0].Season, rows[0].Week
	if rows[0].Claimed() {
		if _, err := s.Arbitrate(ctx, *rows[0].ClaimedByUserID, season, week); err != nil {
			return err
		}
		return nil
	}

	// Unclaimed sets have no account to arbitrate under; the set is its own
	// identity and follows visibility directly.
	decision := precedence.Decision{
		Season:        season,
		Week:          week,
		ActiveChannel: precedence.ChannelGuest,
		DecidedAt:     s.now().UTC(),
	}
	if visible && validateGuestSet(rows) != guestpick.ValidationInvalid {
		decision.ActivateGuestSetID = setID
	} else {
		decision.DeactivateGuestSetIDs = []string{setID}
	}
	if err := s.precedenceRepo.ApplyDecision(ctx, decision); err != nil {
		return fmt.Errorf("apply visibility decision set=%s: %w", setID, err)
	}
	s.invalidateStandings(season)

	s.logger.InfoContext(ctx, "guest set visibility changed",
		"set_id", setID,
		"visible", visible,
	)
	return nil
}

func (s *PrecedenceService) invalidateStandings(season int) {
	if s.standings != nil {
		s.standings.InvalidateSeason(season)
	}
}

// validateGuestSet checks structural rules: at most one lock and at most one
// pick per contest.
func validateGuestSet(rows []guestpick.GuestPick) guestpick.ValidationState {
	locks := 0
	contests := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.IsLock {
			locks++
		}
		if _, dup := contests[row.ContestID]; dup {
			return guestpick.ValidationInvalid
		}
		contests[row.ContestID] = struct{}{}
	}
	if locks > 1 {
		return guestpick.ValidationInvalid
	}
	return guestpick.ValidationValid
}

// groupGuestSets collapses rows into per-set summaries ordered by earliest
// submission time, then set id, so "first eligible set" is deterministic.
func groupGuestSets(rows []guestpick.GuestPick) []guestSet {
	bySet := make(map[string]*guestSet)
	for _, row := range rows {
		set, ok := bySet[row.SetID]
		if !ok {
			set = &guestSet{
				setID:     row.SetID,
				visible:   row.Visible,
				valid:     row.Validation != guestpick.ValidationInvalid,
				createdAt: row.CreatedAt,
			}
			bySet[row.SetID] = set
			continue
		}
		if !row.Visible {
			set.visible = false
		}
		if row.Validation == guestpick.ValidationInvalid {
			set.valid = false
		}
		if row.CreatedAt.Before(set.createdAt) {
			set.createdAt = row.CreatedAt
		}
	}

	out := make([]guestSet, 0, len(bySet))
	for _, set := range bySet {
		out = append(out, *set)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.Before(out[j].createdAt)
		}
		return out[i].setID < out[j].setID
	})
	return out
}

func setIDs(sets []guestSet) []string {
	out := make([]string, 0, len(sets))
	for _, set := range sets {
		out = append(out, set.setID)
	}
	return out
}

func setIDsExcept(sets []guestSet, keep string) []string {
	out := make([]string, 0, len(sets))
	for _, set := range sets {
		if set.setID == keep {
			continue
		}
		out = append(out, set.setID)
	}
	return out
}
