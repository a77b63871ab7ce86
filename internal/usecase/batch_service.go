package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

const (
	batchStatusResolved = "resolved"
	batchStatusFailed   = "failed"
	batchStatusSkipped  = "skipped"
)

// BatchService drives outcome computation and resolution across a whole
// period. Contests are processed strictly one at a time, end-to-end, on a
// single-slot worker pool; a failing contest is reported and the run moves
// on.
type BatchService struct {
	contestRepo contest.Repository
	outcomes    *OutcomeService
	resolver    *ResolverService
	standings   standingsInvalidator
	logger      *logging.Logger

	// submit is swapped in tests to exercise pool failure paths.
	submit func(pool *ants.Pool, task func()) error
}

type PeriodSummary struct {
	Season        int                 `json:"season"`
	Week          int                 `json:"week"`
	ContestCount  int                 `json:"contest_count"`
	ResolvedCount int                 `json:"resolved_count"`
	FailedCount   int                 `json:"failed_count"`
	SkippedCount  int                 `json:"skipped_count"`
	UpdatedRows   int                 `json:"updated_rows"`
	Tasks         []ContestTaskResult `json:"tasks"`
}

type ContestTaskResult struct {
	ContestID  string `json:"contest_id"`
	Status     string `json:"status"`
	Examined   int    `json:"examined"`
	Updated    int    `json:"updated"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

func NewBatchService(
	contestRepo contest.Repository,
	outcomes *OutcomeService,
	resolver *ResolverService,
	standings standingsInvalidator,
	logger *logging.Logger,
) *BatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchService{
		contestRepo: contestRepo,
		outcomes:    outcomes,
		resolver:    resolver,
		standings:   standings,
		logger:      logger,
		submit: func(pool *ants.Pool, task func()) error {
			return pool.Submit(task)
		},
	}
}

// ResolvePeriod recomputes and applies outcomes for every completed contest
// of one (season, week). Contests that have not completed are skipped, not
// failed. Per-contest errors are collected into the summary so a bad contest
// never aborts the rest of the run.
func (s *BatchService) ResolvePeriod(ctx context.Context, season, week int) (PeriodSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchService.ResolvePeriod")
	defer span.End()

	contests, err := s.contestRepo.ListBySeasonWeek(ctx, season, week)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("list contests season=%d week=%d: %w", season, week, err)
	}

	summary := PeriodSummary{
		Season:       season,
		Week:         week,
		ContestCount: len(contests),
		Tasks:        make([]ContestTaskResult, 0, len(contests)),
	}
	if len(contests) == 0 {
		return summary, nil
	}

	// Pool size 1 serializes the run: one contest finishes end-to-end before
	// the next starts, so live feed writers are never contending with more
	// than one resolution.
	pool, err := ants.NewPool(1)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan ContestTaskResult, len(contests))

	var submitErr error
	var workers sync.WaitGroup
	for _, item := range contests {
		item := item
		workers.Add(1)
		if err := s.submit(pool, func() {
			defer workers.Done()
			results <- s.runContestTask(ctx, item)
		}); err != nil {
			workers.Done()
			submitErr = fmt.Errorf("submit contest to worker pool: %w", err)
			break
		}
	}

	// Tasks already on the pool keep running after a failed submit; wait
	// them out before returning so the deferred Release never races
	// in-flight work.
	workers.Wait()
	close(results)

	if submitErr != nil {
		return PeriodSummary{}, submitErr
	}

	for row := range results {
		summary.Tasks = append(summary.Tasks, row)
		switch row.Status {
		case batchStatusResolved:
			summary.ResolvedCount++
		case batchStatusSkipped:
			summary.SkippedCount++
		default:
			summary.FailedCount++
		}
		summary.UpdatedRows += row.Updated
	}

	sort.SliceStable(summary.Tasks, func(i, j int) bool {
		return summary.Tasks[i].ContestID < summary.Tasks[j].ContestID
	})

	if s.standings != nil && summary.UpdatedRows > 0 {
		s.standings.InvalidateSeason(season)
	}

	s.logger.InfoContext(ctx, "period resolved",
		"season", season,
		"week", week,
		"contests", summary.ContestCount,
		"resolved", summary.ResolvedCount,
		"failed", summary.FailedCount,
		"skipped", summary.SkippedCount,
		"updated_rows", summary.UpdatedRows,
	)
	return summary, nil
}

// ResolveContest runs the grading pipeline for one contest on demand, the
// same path a period run takes per contest.
func (s *BatchService) ResolveContest(ctx context.Context, contestID string) (ContestTaskResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchService.ResolveContest")
	defer span.End()

	item, found, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return ContestTaskResult{}, fmt.Errorf("get contest %s: %w", contestID, err)
	}
	if !found {
		return ContestTaskResult{}, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
	}
	if item.Status != contest.StatusCompleted {
		return ContestTaskResult{}, fmt.Errorf("%w: contest %s status is %s", ErrIncomplete, contestID, item.Status)
	}

	row := s.runContestTask(ctx, item)
	if s.standings != nil && row.Updated > 0 {
		s.standings.InvalidateSeason(item.Season)
	}
	return row, nil
}

// RecomputeContest overwrites a contest's frozen outcome and regrades every
// submission against it. This is the correction path for a bad spread or a
// miskeyed final score; the log line is the audit trail, so the caller
// supplies a reason and an actor.
func (s *BatchService) RecomputeContest(ctx context.Context, contestID, reason, actor string) (ContestTaskResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BatchService.RecomputeContest")
	defer span.End()

	item, found, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return ContestTaskResult{}, fmt.Errorf("get contest %s: %w", contestID, err)
	}
	if !found {
		return ContestTaskResult{}, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
	}

	start := time.Now()
	if _, err := s.outcomes.RecomputeOutcome(ctx, contestID, reason); err != nil {
		return ContestTaskResult{}, err
	}

	stats, err := s.resolver.ResolveContest(ctx, contestID)
	if err != nil {
		return ContestTaskResult{}, fmt.Errorf("resolve after recompute contest=%s: %w", contestID, err)
	}
	row := ContestTaskResult{
		ContestID:  contestID,
		Status:     batchStatusResolved,
		Examined:   stats.Examined,
		Updated:    stats.Updated,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if s.standings != nil && row.Updated > 0 {
		s.standings.InvalidateSeason(item.Season)
	}

	s.logger.InfoContext(ctx, "contest outcome recomputed and regraded",
		"contest_id", contestID,
		"season", item.Season,
		"week", item.Week,
		"reason", reason,
		"actor", actor,
		"updated_rows", row.Updated,
	)
	return row, nil
}

func (s *BatchService) runContestTask(ctx context.Context, item contest.Contest) ContestTaskResult {
	start := time.Now()
	row := ContestTaskResult{ContestID: item.ID}

	if item.Status != contest.StatusCompleted {
		row.Status = batchStatusSkipped
		row.Message = fmt.Sprintf("contest status is %s", item.Status)
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	}

	if _, err := s.outcomes.ComputeOutcome(ctx, item.ID); err != nil {
		row.Status = batchStatusFailed
		row.Message = err.Error()
		row.DurationMs = time.Since(start).Milliseconds()
		s.logger.ErrorContext(ctx, "contest outcome computation failed in batch",
			"contest_id", item.ID,
			"error", err,
		)
		return row
	}

	stats, err := s.resolver.ResolveContest(ctx, item.ID)
	row.Examined = stats.Examined
	row.Updated = stats.Updated
	row.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		row.Status = batchStatusFailed
		row.Message = err.Error()
		s.logger.ErrorContext(ctx, "contest resolution failed in batch",
			"contest_id", item.ID,
			"error", err,
		)
		return row
	}

	row.Status = batchStatusResolved
	return row
}
