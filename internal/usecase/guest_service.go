package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/platform/id"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// GuestService handles anonymous-channel submissions. An unclaimed set is its
// own scoring identity until someone claims it.
type GuestService struct {
	contestRepo    contest.Repository
	guestRepo      guestpick.Repository
	precedenceRepo precedence.Repository
	standings      standingsInvalidator
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewGuestService(
	contestRepo contest.Repository,
	guestRepo guestpick.Repository,
	precedenceRepo precedence.Repository,
	standings standingsInvalidator,
	idGen id.Generator,
	logger *logging.Logger,
) *GuestService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GuestService{
		contestRepo:    contestRepo,
		guestRepo:      guestRepo,
		precedenceRepo: precedenceRepo,
		standings:      standings,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

type SubmitGuestPicksInput struct {
	DisplayName string
	Season      int
	Week        int
	Picks       []SubmitPickInput
}

// SubmitGuestPicks writes one anonymous slate as a new set and activates it.
// The returned set id is the handle for later claiming.
func (s *GuestService) SubmitGuestPicks(ctx context.Context, input SubmitGuestPicksInput) (string, []guestpick.GuestPick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GuestService.SubmitGuestPicks")
	defer span.End()

	if strings.TrimSpace(input.DisplayName) == "" {
		return "", nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	if len(input.Picks) == 0 {
		return "", nil, fmt.Errorf("%w: at least one pick is required", ErrInvalidInput)
	}

	locks := 0
	seenContests := make(map[string]struct{}, len(input.Picks))
	for _, item := range input.Picks {
		if !contest.IsPickableSide(item.Side) {
			return "", nil, fmt.Errorf("%w: side %q is not pickable", ErrInvalidInput, item.Side)
		}
		if _, dup := seenContests[item.ContestID]; dup {
			return "", nil, fmt.Errorf("%w: duplicate pick for contest %s", ErrInvalidInput, item.ContestID)
		}
		seenContests[item.ContestID] = struct{}{}
		if item.IsLock {
			locks++
		}
	}
	if locks > 1 {
		return "", nil, fmt.Errorf("%w: at most one lock per week", ErrInvalidInput)
	}

	for _, item := range input.Picks {
		target, exists, err := s.contestRepo.GetByID(ctx, item.ContestID)
		if err != nil {
			return "", nil, fmt.Errorf("get contest %s: %w", item.ContestID, err)
		}
		if !exists {
			return "", nil, fmt.Errorf("%w: contest %s", ErrNotFound, item.ContestID)
		}
		if target.Season != input.Season || target.Week != input.Week {
			return "", nil, fmt.Errorf("%w: contest %s belongs to season=%d week=%d", ErrInvalidInput, item.ContestID, target.Season, target.Week)
		}
		if target.Status != contest.StatusScheduled {
			return "", nil, fmt.Errorf("%w: contest %s has started", ErrConflict, item.ContestID)
		}
	}

	setID, err := s.idGen.NewID("gs")
	if err != nil {
		return "", nil, fmt.Errorf("generate set id: %w", err)
	}

	createdAt := s.now().UTC()
	rows := make([]guestpick.GuestPick, 0, len(input.Picks))
	for _, item := range input.Picks {
		rowID, err := s.idGen.NewID("gp")
		if err != nil {
			return "", nil, fmt.Errorf("generate guest pick id: %w", err)
		}
		rows = append(rows, guestpick.GuestPick{
			ID:          rowID,
			SetID:       setID,
			DisplayName: strings.TrimSpace(input.DisplayName),
			ContestID:   item.ContestID,
			Season:      input.Season,
			Week:        input.Week,
			Side:        item.Side,
			IsLock:      item.IsLock,
			Visible:     true,
			Validation:  guestpick.ValidationValid,
			Result:      pick.ResultPending,
			CreatedAt:   createdAt,
		})
	}

	if err := s.guestRepo.Create(ctx, rows); err != nil {
		return "", nil, fmt.Errorf("create guest picks: %w", err)
	}

	// A fresh unclaimed set has no competing channel; activate it directly.
	decision := precedence.Decision{
		Season:             input.Season,
		Week:               input.Week,
		ActiveChannel:      precedence.ChannelGuest,
		ActivateGuestSetID: setID,
		DecidedAt:          createdAt,
	}
	if err := s.precedenceRepo.ApplyDecision(ctx, decision); err != nil {
		return "", nil, fmt.Errorf("activate guest set %s: %w", setID, err)
	}
	if s.standings != nil {
		s.standings.InvalidateSeason(input.Season)
	}

	s.logger.InfoContext(ctx, "guest picks submitted",
		"set_id", setID,
		"season", input.Season,
		"week", input.Week,
		"picks", len(rows),
	)
	return setID, rows, nil
}
