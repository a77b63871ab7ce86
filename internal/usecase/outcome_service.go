package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// OutcomeService freezes the covering side and margin bonus of completed
// contests. The computation itself is pure (contest.ComputeOutcome); this
// service owns the write-once persistence around it.
type OutcomeService struct {
	contestRepo contest.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewOutcomeService(contestRepo contest.Repository, logger *logging.Logger) *OutcomeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &OutcomeService{
		contestRepo: contestRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// ComputeOutcome returns the frozen outcome of a contest, computing and
// persisting it first if no outcome is stored yet. Re-invocation on a frozen
// contest returns the stored value and writes nothing.
func (s *OutcomeService) ComputeOutcome(ctx context.Context, contestID string) (contest.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OutcomeService.ComputeOutcome")
	defer span.End()

	item, exists, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return contest.Outcome{}, fmt.Errorf("get contest: %w", err)
	}
	if !exists {
		return contest.Outcome{}, fmt.Errorf("%w: contest=%s", ErrNotFound, contestID)
	}

	if item.OutcomeFrozen() {
		return contest.Outcome{
			CoveringSide: item.CoveringSide,
			MarginHalf:   storedMarginHalf(item),
			BonusPoints:  item.BonusPoints,
		}, nil
	}

	if item.Status != contest.StatusCompleted {
		return contest.Outcome{}, fmt.Errorf("%w: contest=%s status=%s", ErrIncomplete, contestID, item.Status)
	}
	if !item.HasFinalScores() {
		return contest.Outcome{}, fmt.Errorf("%w: contest=%s has no final scores", ErrIncomplete, contestID)
	}

	outcome := contest.ComputeOutcome(*item.HomeScore, *item.AwayScore, item.SpreadHalf)

	wrote, err := s.contestRepo.FreezeOutcome(ctx, contestID, outcome, s.now().UTC())
	if err != nil {
		return contest.Outcome{}, fmt.Errorf("freeze outcome contest=%s: %w", contestID, err)
	}
	if !wrote {
		// A concurrent caller froze first; the stored value is authoritative.
		stored, _, getErr := s.contestRepo.GetByID(ctx, contestID)
		if getErr != nil {
			return contest.Outcome{}, fmt.Errorf("reload frozen contest=%s: %w", contestID, getErr)
		}
		return contest.Outcome{
			CoveringSide: stored.CoveringSide,
			MarginHalf:   storedMarginHalf(stored),
			BonusPoints:  stored.BonusPoints,
		}, nil
	}

	s.logger.InfoContext(ctx, "contest outcome frozen",
		"contest_id", contestID,
		"covering_side", outcome.CoveringSide,
		"margin", outcome.Margin(),
		"bonus", outcome.BonusPoints,
	)
	return outcome, nil
}

// RecomputeOutcome overwrites a frozen outcome. Every invocation is logged
// with its justification; this is the only path that may change a stored
// covering side.
func (s *OutcomeService) RecomputeOutcome(ctx context.Context, contestID, reason string) (contest.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OutcomeService.RecomputeOutcome")
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return contest.Outcome{}, fmt.Errorf("%w: recompute reason is required", ErrInvalidInput)
	}

	item, exists, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return contest.Outcome{}, fmt.Errorf("get contest: %w", err)
	}
	if !exists {
		return contest.Outcome{}, fmt.Errorf("%w: contest=%s", ErrNotFound, contestID)
	}
	if item.Status != contest.StatusCompleted || !item.HasFinalScores() {
		return contest.Outcome{}, fmt.Errorf("%w: contest=%s cannot be recomputed", ErrIncomplete, contestID)
	}

	outcome := contest.ComputeOutcome(*item.HomeScore, *item.AwayScore, item.SpreadHalf)
	if err := s.contestRepo.OverwriteOutcome(ctx, contestID, outcome, s.now().UTC()); err != nil {
		return contest.Outcome{}, fmt.Errorf("overwrite outcome contest=%s: %w", contestID, err)
	}

	s.logger.WarnContext(ctx, "contest outcome recomputed",
		"contest_id", contestID,
		"reason", reason,
		"previous_side", item.CoveringSide,
		"previous_bonus", item.BonusPoints,
		"covering_side", outcome.CoveringSide,
		"bonus", outcome.BonusPoints,
	)
	return outcome, nil
}

// storedMarginHalf rebuilds the margin from stored scores; the margin itself
// is not persisted because it is derivable from the frozen inputs.
func storedMarginHalf(item contest.Contest) int {
	if !item.HasFinalScores() || item.CoveringSide == contest.SidePush {
		return 0
	}
	margin := (*item.HomeScore)*2 + item.SpreadHalf - (*item.AwayScore)*2
	if margin < 0 {
		margin = -margin
	}
	return margin
}
