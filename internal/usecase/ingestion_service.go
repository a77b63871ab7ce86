package usecase

import (
	"context"
	"fmt"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// IngestionService accepts live feed updates and detects the one transition
// that matters: a contest becoming completed. Score and clock ticks write
// through untouched; only the completed transition triggers scoring, so a
// feed replaying ticks can never cause re-entrant recomputation.
type IngestionService struct {
	contestRepo contest.Repository
	outcomes    *OutcomeService
	resolver    *ResolverService
	standings   standingsInvalidator
	logger      *logging.Logger
}

func NewIngestionService(
	contestRepo contest.Repository,
	outcomes *OutcomeService,
	resolver *ResolverService,
	standings standingsInvalidator,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestionService{
		contestRepo: contestRepo,
		outcomes:    outcomes,
		resolver:    resolver,
		standings:   standings,
		logger:      logger,
	}
}

type ScoreUpdateInput struct {
	ContestID string
	HomeScore *int
	AwayScore *int
	Status    string
	Clock     string
}

type ScoreUpdateResult struct {
	ContestID    string       `json:"contest_id"`
	Status       string       `json:"status"`
	Transitioned bool         `json:"transitioned"`
	Resolution   ResolveStats `json:"resolution"`
}

// ApplyScoreUpdate writes one feed tick. The previous status is read before
// the write; scoring fires only when that read saw a non-completed status and
// the update carries the completed one. A completing tick must leave the
// contest with both final scores, either from the tick itself or already
// stored, or it is rejected before anything is written.
func (s *IngestionService) ApplyScoreUpdate(ctx context.Context, input ScoreUpdateInput) (ScoreUpdateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.ApplyScoreUpdate")
	defer span.End()

	status := contest.NormalizeStatus(input.Status)
	if !contest.IsValidStatus(status) {
		return ScoreUpdateResult{}, fmt.Errorf("%w: unknown contest status %q", ErrInvalidInput, input.Status)
	}

	item, exists, err := s.contestRepo.GetByID(ctx, input.ContestID)
	if err != nil {
		return ScoreUpdateResult{}, fmt.Errorf("get contest: %w", err)
	}
	if !exists {
		return ScoreUpdateResult{}, fmt.Errorf("%w: contest %s", ErrNotFound, input.ContestID)
	}

	previousStatus := item.Status
	completing := previousStatus != contest.StatusCompleted && status == contest.StatusCompleted
	if completing && (coalesceScore(input.HomeScore, item.HomeScore) == nil || coalesceScore(input.AwayScore, item.AwayScore) == nil) {
		// Rejecting before the write keeps the transition unconsumed, so a
		// later tick that does carry the scores can still trigger scoring.
		return ScoreUpdateResult{}, fmt.Errorf("%w: completed update for contest %s lacks final scores", ErrIncomplete, input.ContestID)
	}

	update := contest.ScoreUpdate{
		HomeScore: input.HomeScore,
		AwayScore: input.AwayScore,
		Status:    status,
		Clock:     input.Clock,
	}
	if err := s.contestRepo.ApplyScoreUpdate(ctx, input.ContestID, update); err != nil {
		return ScoreUpdateResult{}, fmt.Errorf("apply score update contest=%s: %w", input.ContestID, err)
	}

	result := ScoreUpdateResult{
		ContestID: input.ContestID,
		Status:    string(status),
	}

	if !completing {
		return result, nil
	}
	result.Transitioned = true

	if _, err := s.outcomes.ComputeOutcome(ctx, input.ContestID); err != nil {
		return result, fmt.Errorf("compute outcome on completion contest=%s: %w", input.ContestID, err)
	}
	stats, err := s.resolver.ResolveContest(ctx, input.ContestID)
	if err != nil {
		return result, fmt.Errorf("resolve on completion contest=%s: %w", input.ContestID, err)
	}
	result.Resolution = stats

	if s.standings != nil {
		s.standings.InvalidateSeason(item.Season)
	}

	s.logger.InfoContext(ctx, "contest completed and resolved",
		"contest_id", input.ContestID,
		"season", item.Season,
		"week", item.Week,
		"updated_rows", stats.Updated,
	)
	return result, nil
}

// coalesceScore prefers the tick's value and falls back to the stored one,
// since a feed tick may omit fields it does not change.
func coalesceScore(update, stored *int) *int {
	if update != nil {
		return update
	}
	return stored
}
