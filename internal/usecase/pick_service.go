package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/user"
	"github.com/gridpool/pickem-league/internal/platform/id"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// PickService handles identified-channel submissions. Every write ends with
// an arbitration pass so the channel flags stay consistent with what exists.
type PickService struct {
	contestRepo contest.Repository
	pickRepo    pick.Repository
	precedence  *PrecedenceService
	idGen       id.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewPickService(
	contestRepo contest.Repository,
	pickRepo pick.Repository,
	precedence *PrecedenceService,
	idGen id.Generator,
	logger *logging.Logger,
) *PickService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PickService{
		contestRepo: contestRepo,
		pickRepo:    pickRepo,
		precedence:  precedence,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

type SubmitPickInput struct {
	ContestID string
	Side      contest.Side
	IsLock    bool
}

type SubmitWeekPicksInput struct {
	Season int
	Week   int
	Picks  []SubmitPickInput
}

// SubmitWeekPicks records an account's picks for one week. The whole slate is
// validated and written together; a slate for a week that already has picks
// is rejected rather than merged.
func (s *PickService) SubmitWeekPicks(ctx context.Context, principal user.Principal, input SubmitWeekPicksInput) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitWeekPicks")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	if len(input.Picks) == 0 {
		return nil, fmt.Errorf("%w: at least one pick is required", ErrInvalidInput)
	}

	locks := 0
	seenContests := make(map[string]struct{}, len(input.Picks))
	for _, item := range input.Picks {
		if !contest.IsPickableSide(item.Side) {
			return nil, fmt.Errorf("%w: side %q is not pickable", ErrInvalidInput, item.Side)
		}
		if _, dup := seenContests[item.ContestID]; dup {
			return nil, fmt.Errorf("%w: duplicate pick for contest %s", ErrInvalidInput, item.ContestID)
		}
		seenContests[item.ContestID] = struct{}{}
		if item.IsLock {
			locks++
		}
	}
	if locks > 1 {
		return nil, fmt.Errorf("%w: at most one lock per week", ErrInvalidInput)
	}

	existing, err := s.pickRepo.ListByUserWeek(ctx, principal.UserID, input.Season, input.Week)
	if err != nil {
		return nil, fmt.Errorf("list existing picks: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: picks already submitted for season=%d week=%d", ErrConflict, input.Season, input.Week)
	}

	for _, item := range input.Picks {
		target, exists, err := s.contestRepo.GetByID(ctx, item.ContestID)
		if err != nil {
			return nil, fmt.Errorf("get contest %s: %w", item.ContestID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, item.ContestID)
		}
		if target.Season != input.Season || target.Week != input.Week {
			return nil, fmt.Errorf("%w: contest %s belongs to season=%d week=%d", ErrInvalidInput, item.ContestID, target.Season, target.Week)
		}
		if target.Status != contest.StatusScheduled {
			return nil, fmt.Errorf("%w: contest %s has started", ErrConflict, item.ContestID)
		}
	}

	createdAt := s.now().UTC()
	rows := make([]pick.Pick, 0, len(input.Picks))
	for _, item := range input.Picks {
		pickID, err := s.idGen.NewID("pk")
		if err != nil {
			return nil, fmt.Errorf("generate pick id: %w", err)
		}
		rows = append(rows, pick.Pick{
			ID:          pickID,
			UserID:      principal.UserID,
			DisplayName: principal.DisplayName,
			ContestID:   item.ContestID,
			Season:      input.Season,
			Week:        input.Week,
			Side:        item.Side,
			IsLock:      item.IsLock,
			Visible:     true,
			Result:      pick.ResultPending,
			CreatedAt:   createdAt,
		})
	}

	if err := s.pickRepo.Create(ctx, rows); err != nil {
		return nil, fmt.Errorf("create picks: %w", err)
	}

	s.logger.InfoContext(ctx, "week picks submitted",
		"user_id", principal.UserID,
		"season", input.Season,
		"week", input.Week,
		"picks", len(rows),
		"has_lock", locks == 1,
	)

	if s.precedence != nil {
		if _, err := s.precedence.Arbitrate(ctx, principal.UserID, input.Season, input.Week); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// RetractWeekPicks deletes an account's identified slate for a week. Graded
// rows are immutable, so retraction is refused once any pick on the slate has
// a result.
func (s *PickService) RetractWeekPicks(ctx context.Context, principal user.Principal, season, week int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.RetractWeekPicks")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	rows, err := s.pickRepo.ListByUserWeek(ctx, principal.UserID, season, week)
	if err != nil {
		return fmt.Errorf("list picks by user week: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: no picks for season=%d week=%d", ErrNotFound, season, week)
	}
	for _, row := range rows {
		if row.Result != "" && row.Result != pick.ResultPending {
			return fmt.Errorf("%w: pick %s is already graded", ErrConflict, row.ID)
		}
	}

	if err := s.pickRepo.DeleteByUserWeek(ctx, principal.UserID, season, week); err != nil {
		return fmt.Errorf("delete picks by user week: %w", err)
	}

	s.logger.InfoContext(ctx, "week picks retracted",
		"user_id", principal.UserID,
		"season", season,
		"week", week,
		"picks", len(rows),
	)

	if s.precedence != nil {
		if _, err := s.precedence.Arbitrate(ctx, principal.UserID, season, week); err != nil {
			return err
		}
	}
	return nil
}

// WeekPicks returns the caller's identified slate for a week.
func (s *PickService) WeekPicks(ctx context.Context, principal user.Principal, season, week int) ([]pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.WeekPicks")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	rows, err := s.pickRepo.ListByUserWeek(ctx, principal.UserID, season, week)
	if err != nil {
		return nil, fmt.Errorf("list picks by user week: %w", err)
	}
	return rows, nil
}
