package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

const (
	defaultResolveChunkSize  = 50
	defaultResolveChunkPause = 25 * time.Millisecond
)

// ResolverService applies a frozen contest outcome to every submission on
// that contest, both channels. It writes result and points only; active
// flags belong to arbitration and are never touched here.
type ResolverService struct {
	contestRepo contest.Repository
	pickRepo    pick.Repository
	guestRepo   guestpick.Repository
	chunkSize   int
	chunkPause  time.Duration
	logger      *logging.Logger
}

// ResolveStats summarizes one contest resolution. Skipped rows already held
// the correct result, so re-resolving a settled contest reports updates=0.
type ResolveStats struct {
	ContestID     string `json:"contest_id"`
	Examined      int    `json:"examined"`
	Updated       int    `json:"updated"`
	Skipped       int    `json:"skipped"`
	GuestRows     int    `json:"guest_rows"`
	ChunksWritten int    `json:"chunks_written"`
}

func NewResolverService(
	contestRepo contest.Repository,
	pickRepo pick.Repository,
	guestRepo guestpick.Repository,
	chunkSize int,
	chunkPause time.Duration,
	logger *logging.Logger,
) *ResolverService {
	if chunkSize <= 0 {
		chunkSize = defaultResolveChunkSize
	}
	if chunkPause < 0 {
		chunkPause = defaultResolveChunkPause
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ResolverService{
		contestRepo: contestRepo,
		pickRepo:    pickRepo,
		guestRepo:   guestRepo,
		chunkSize:   chunkSize,
		chunkPause:  chunkPause,
		logger:      logger,
	}
}

// ResolveContest grades every submission on one contest against its frozen
// outcome. Rows whose stored result and points already match are skipped, so
// the operation is idempotent and interruptible: a partial run redone later
// converges to the same state.
func (s *ResolverService) ResolveContest(ctx context.Context, contestID string) (ResolveStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolverService.ResolveContest")
	defer span.End()

	stats := ResolveStats{ContestID: contestID}

	item, exists, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		return stats, fmt.Errorf("get contest: %w", err)
	}
	if !exists {
		return stats, fmt.Errorf("%w: contest=%s", ErrNotFound, contestID)
	}
	if !item.OutcomeFrozen() {
		return stats, fmt.Errorf("%w: contest=%s outcome is not frozen", ErrIncomplete, contestID)
	}

	outcome := contest.Outcome{
		CoveringSide: item.CoveringSide,
		BonusPoints:  item.BonusPoints,
	}

	picks, err := s.pickRepo.ListByContest(ctx, contestID)
	if err != nil {
		return stats, fmt.Errorf("list picks by contest: %w", err)
	}
	guests, err := s.guestRepo.ListByContest(ctx, contestID)
	if err != nil {
		return stats, fmt.Errorf("list guest picks by contest: %w", err)
	}
	stats.Examined = len(picks) + len(guests)
	stats.GuestRows = len(guests)

	pickUpdates := make([]pick.ResultUpdate, 0, len(picks))
	for _, row := range picks {
		result, points := pick.Grade(outcome, row.Side, row.IsLock, item.BasePoints)
		if row.Result == result && row.Points == points {
			stats.Skipped++
			continue
		}
		pickUpdates = append(pickUpdates, pick.ResultUpdate{ID: row.ID, Result: result, Points: points})
	}

	guestUpdates := make([]pick.ResultUpdate, 0, len(guests))
	for _, row := range guests {
		result, points := pick.Grade(outcome, row.Side, row.IsLock, item.BasePoints)
		if row.Result == result && row.Points == points {
			stats.Skipped++
			continue
		}
		guestUpdates = append(guestUpdates, pick.ResultUpdate{ID: row.ID, Result: result, Points: points})
	}

	chunks, err := s.applyInChunks(ctx, pickUpdates, s.pickRepo.UpdateResults)
	if err != nil {
		return stats, fmt.Errorf("update pick results contest=%s: %w", contestID, err)
	}
	stats.ChunksWritten += chunks
	stats.Updated += len(pickUpdates)

	chunks, err = s.applyInChunks(ctx, guestUpdates, s.guestRepo.UpdateResults)
	if err != nil {
		return stats, fmt.Errorf("update guest pick results contest=%s: %w", contestID, err)
	}
	stats.ChunksWritten += chunks
	stats.Updated += len(guestUpdates)

	if stats.Updated > 0 {
		s.logger.InfoContext(ctx, "contest resolved",
			"contest_id", contestID,
			"examined", stats.Examined,
			"updated", stats.Updated,
			"skipped", stats.Skipped,
		)
	}
	return stats, nil
}

// applyInChunks writes updates in fixed-size batches with a short pause
// between them so long resolutions do not starve live feed writers.
func (s *ResolverService) applyInChunks(
	ctx context.Context,
	updates []pick.ResultUpdate,
	apply func(context.Context, []pick.ResultUpdate) error,
) (int, error) {
	chunks := 0
	for start := 0; start < len(updates); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(updates) {
			end = len(updates)
		}

		if err := apply(ctx, updates[start:end]); err != nil {
			return chunks, err
		}
		chunks++

		if end < len(updates) && s.chunkPause > 0 {
			select {
			case <-ctx.Done():
				return chunks, ctx.Err()
			case <-time.After(s.chunkPause):
			}
		}
	}
	return chunks, nil
}
