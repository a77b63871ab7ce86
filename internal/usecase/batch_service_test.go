package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

func completedContest(id string, home, away, spreadHalf int) contest.Contest {
	return contest.Contest{
		ID:         id,
		Season:     2025,
		Week:       9,
		HomeTeam:   "KC",
		AwayTeam:   "LV",
		HomeScore:  intPtr(home),
		AwayScore:  intPtr(away),
		SpreadHalf: spreadHalf,
		BasePoints: 20,
		Status:     contest.StatusCompleted,
		KickoffAt:  time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC),
	}
}

func newBatchFixture(contests *fakeContestRepo, picks *fakePickRepo, guests *fakeGuestPickRepo) *BatchService {
	outcomes := NewOutcomeService(contests, logging.NewNop())
	resolver := NewResolverService(contests, picks, guests, 10, 0, logging.NewNop())
	return NewBatchService(contests, outcomes, resolver, nil, logging.NewNop())
}

func TestBatchService_ResolvePeriod(t *testing.T) {
	t.Parallel()

	inProgress := completedContest("c3", 0, 0, -6)
	inProgress.Status = contest.StatusInProgress
	contests := newFakeContestRepo(
		completedContest("c1", 27, 13, -13),
		completedContest("c2", 17, 20, -7),
		inProgress,
	)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
		pick.Pick{ID: "p2", UserID: "u1", ContestID: "c2", Season: 2025, Week: 9, Side: contest.SideAway, Result: pick.ResultPending},
	)
	svc := newBatchFixture(contests, picks, newFakeGuestPickRepo())

	summary, err := svc.ResolvePeriod(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("ResolvePeriod error: %v", err)
	}
	if summary.ContestCount != 3 {
		t.Fatalf("expected 3 contests, got=%d", summary.ContestCount)
	}
	if summary.ResolvedCount != 2 {
		t.Fatalf("expected 2 resolved, got=%d", summary.ResolvedCount)
	}
	if summary.SkippedCount != 1 {
		t.Fatalf("expected 1 skipped, got=%d", summary.SkippedCount)
	}
	if summary.FailedCount != 0 {
		t.Fatalf("expected 0 failed, got=%d", summary.FailedCount)
	}
	if summary.UpdatedRows != 2 {
		t.Fatalf("expected 2 updated rows, got=%d", summary.UpdatedRows)
	}

	if row := picks.get("p1"); row.Result != pick.ResultWin || row.Points != 20 {
		t.Fatalf("p1: expected win/20, got=%s/%d", row.Result, row.Points)
	}
	if row := picks.get("p2"); row.Result != pick.ResultWin || row.Points != 20 {
		t.Fatalf("p2: expected win/20, got=%s/%d", row.Result, row.Points)
	}
}

func TestBatchService_ResolvePeriod_FailureIsolation(t *testing.T) {
	t.Parallel()

	broken := completedContest("c1", 27, 13, -13)
	broken.HomeScore = nil // completed without scores cannot be graded
	contests := newFakeContestRepo(
		broken,
		completedContest("c2", 17, 20, -7),
	)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c2", Season: 2025, Week: 9, Side: contest.SideAway, Result: pick.ResultPending},
	)
	svc := newBatchFixture(contests, picks, newFakeGuestPickRepo())

	summary, err := svc.ResolvePeriod(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("ResolvePeriod error: %v", err)
	}
	if summary.FailedCount != 1 {
		t.Fatalf("expected 1 failed, got=%d", summary.FailedCount)
	}
	if summary.ResolvedCount != 1 {
		t.Fatalf("expected the healthy contest to resolve, got=%d", summary.ResolvedCount)
	}

	for _, task := range summary.Tasks {
		if task.ContestID == "c1" && task.Message == "" {
			t.Fatalf("expected failure message for c1")
		}
	}
	if row := picks.get("p1"); row.Result != pick.ResultWin {
		t.Fatalf("expected c2 pick graded despite c1 failure, got=%s", row.Result)
	}
}

func TestBatchService_ResolvePeriod_RerunUpdatesNothing(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(completedContest("c1", 27, 13, -13))
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newBatchFixture(contests, picks, newFakeGuestPickRepo())

	if _, err := svc.ResolvePeriod(context.Background(), 2025, 9); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	summary, err := svc.ResolvePeriod(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if summary.UpdatedRows != 0 {
		t.Fatalf("expected rerun to update 0 rows, got=%d", summary.UpdatedRows)
	}
	if summary.ResolvedCount != 1 {
		t.Fatalf("expected contest still reported resolved, got=%d", summary.ResolvedCount)
	}
}

func TestBatchService_ResolvePeriod_SubmitFailureDrainsInFlightWork(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(
		completedContest("c1", 27, 13, -13),
		completedContest("c2", 17, 20, -7),
	)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newBatchFixture(contests, picks, newFakeGuestPickRepo())

	// First submission lands on the pool but finishes slowly; the second is
	// refused. The run must still wait for the first task before returning.
	submits := 0
	svc.submit = func(pool *ants.Pool, task func()) error {
		submits++
		if submits == 1 {
			return pool.Submit(func() {
				time.Sleep(50 * time.Millisecond)
				task()
			})
		}
		return errors.New("pool exhausted")
	}

	_, err := svc.ResolvePeriod(context.Background(), 2025, 9)
	if err == nil {
		t.Fatalf("expected submit failure to surface")
	}
	if row := picks.get("p1"); row.Result != pick.ResultWin {
		t.Fatalf("expected in-flight contest graded before return, got=%s", row.Result)
	}
}

func TestBatchService_RecomputeContest(t *testing.T) {
	t.Parallel()

	// Frozen with the away side covering, as a miskeyed spread would have
	// produced; the stored scores say home covers.
	frozenAt := time.Date(2025, 11, 2, 22, 0, 0, 0, time.UTC)
	item := completedContest("c1", 27, 13, -13)
	item.CoveringSide = contest.SideAway
	item.OutcomeFrozenAt = &frozenAt

	contests := newFakeContestRepo(item)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultLoss, Points: 0},
	)
	svc := newBatchFixture(contests, picks, newFakeGuestPickRepo())

	row, err := svc.RecomputeContest(context.Background(), "c1", "spread keyed as +6.5 instead of -6.5", "ops@example.com")
	if err != nil {
		t.Fatalf("RecomputeContest error: %v", err)
	}
	if row.Status != batchStatusResolved || row.Updated != 1 {
		t.Fatalf("expected one regraded row, got=%+v", row)
	}

	stored, _, _ := contests.GetByID(context.Background(), "c1")
	if stored.CoveringSide != contest.SideHome {
		t.Fatalf("expected outcome overwritten to home, got=%s", stored.CoveringSide)
	}
	if pickRow := picks.get("p1"); pickRow.Result != pick.ResultWin || pickRow.Points != 20 {
		t.Fatalf("expected pick regraded to win/20, got=%s/%d", pickRow.Result, pickRow.Points)
	}
}

func TestBatchService_RecomputeContest_RequiresReason(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(completedContest("c1", 27, 13, -13))
	svc := newBatchFixture(contests, newFakePickRepo(), newFakeGuestPickRepo())

	_, err := svc.RecomputeContest(context.Background(), "c1", "  ", "ops@example.com")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank reason, got=%v", err)
	}
}

func TestBatchService_RecomputeContest_UnknownContest(t *testing.T) {
	t.Parallel()

	svc := newBatchFixture(newFakeContestRepo(), newFakePickRepo(), newFakeGuestPickRepo())

	_, err := svc.RecomputeContest(context.Background(), "missing", "fat-fingered final", "ops@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestBatchService_ResolvePeriod_EmptyWeek(t *testing.T) {
	t.Parallel()

	svc := newBatchFixture(newFakeContestRepo(), newFakePickRepo(), newFakeGuestPickRepo())

	summary, err := svc.ResolvePeriod(context.Background(), 2025, 9)
	if err != nil {
		t.Fatalf("ResolvePeriod error: %v", err)
	}
	if summary.ContestCount != 0 || len(summary.Tasks) != 0 {
		t.Fatalf("expected empty summary, got=%+v", summary)
	}
}
