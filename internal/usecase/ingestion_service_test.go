package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

func newIngestionFixture(contests *fakeContestRepo, picks *fakePickRepo, guests *fakeGuestPickRepo) *IngestionService {
	outcomes := NewOutcomeService(contests, logging.NewNop())
	resolver := NewResolverService(contests, picks, guests, 10, 0, logging.NewNop())
	return NewIngestionService(contests, outcomes, resolver, nil, logging.NewNop())
}

func TestIngestionService_ScoreTickDoesNotResolve(t *testing.T) {
	t.Parallel()

	inProgress := scheduledContest("c1", 9)
	inProgress.Status = contest.StatusInProgress
	contests := newFakeContestRepo(inProgress)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newIngestionFixture(contests, picks, newFakeGuestPickRepo())

	result, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		HomeScore: intPtr(14),
		AwayScore: intPtr(7),
		Status:    "IN_PROGRESS",
		Clock:     "Q2 08:24",
	})
	if err != nil {
		t.Fatalf("ApplyScoreUpdate error: %v", err)
	}
	if result.Transitioned {
		t.Fatalf("expected no transition on a score tick")
	}
	if row := picks.get("p1"); row.Result != pick.ResultPending {
		t.Fatalf("expected pick untouched by tick, got=%s", row.Result)
	}

	item, _, _ := contests.GetByID(context.Background(), "c1")
	if item.HomeScore == nil || *item.HomeScore != 14 || item.Clock != "Q2 08:24" {
		t.Fatalf("expected score and clock written, got=%+v", item)
	}
	if item.OutcomeFrozen() {
		t.Fatalf("expected outcome unfrozen during play")
	}
}

func TestIngestionService_CompletionTriggersResolutionOnce(t *testing.T) {
	t.Parallel()

	inProgress := scheduledContest("c1", 9)
	inProgress.Status = contest.StatusInProgress
	contests := newFakeContestRepo(inProgress)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newIngestionFixture(contests, picks, newFakeGuestPickRepo())

	result, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		HomeScore: intPtr(28),
		AwayScore: intPtr(10),
		Status:    "COMPLETED",
		Clock:     "FINAL",
	})
	if err != nil {
		t.Fatalf("ApplyScoreUpdate error: %v", err)
	}
	if !result.Transitioned {
		t.Fatalf("expected completed transition to fire")
	}
	if result.Resolution.Updated != 1 {
		t.Fatalf("expected 1 row resolved, got=%d", result.Resolution.Updated)
	}

	// 28-10 with home -3.5: home covers by 14.5, low bonus tier.
	if row := picks.get("p1"); row.Result != pick.ResultWin || row.Points != 21 {
		t.Fatalf("expected win/21, got=%s/%d", row.Result, row.Points)
	}

	// A replayed final tick is a plain write, not a second resolution.
	pickRepoCallsBefore := picks.updateCalls
	result, err = svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		HomeScore: intPtr(28),
		AwayScore: intPtr(10),
		Status:    "COMPLETED",
		Clock:     "FINAL",
	})
	if err != nil {
		t.Fatalf("replayed tick error: %v", err)
	}
	if result.Transitioned {
		t.Fatalf("expected no transition on replayed final tick")
	}
	if picks.updateCalls != pickRepoCallsBefore {
		t.Fatalf("expected no further result writes on replay")
	}
}

func TestIngestionService_ScorelessCompletionRejected(t *testing.T) {
	t.Parallel()

	inProgress := scheduledContest("c1", 9)
	inProgress.Status = contest.StatusInProgress
	contests := newFakeContestRepo(inProgress)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newIngestionFixture(contests, picks, newFakeGuestPickRepo())

	// A final tick with no scores anywhere must not be written: a write here
	// would flip the status and burn the only completed transition.
	_, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		Status:    "COMPLETED",
		Clock:     "FINAL",
	})
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got=%v", err)
	}
	if contests.scoreCalls != 0 {
		t.Fatalf("expected rejected tick to skip the write, got %d calls", contests.scoreCalls)
	}
	item, _, _ := contests.GetByID(context.Background(), "c1")
	if item.Status != contest.StatusInProgress {
		t.Fatalf("expected status untouched, got=%s", item.Status)
	}

	// The transition is still available to a later tick that carries scores.
	result, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		HomeScore: intPtr(28),
		AwayScore: intPtr(10),
		Status:    "COMPLETED",
		Clock:     "FINAL",
	})
	if err != nil {
		t.Fatalf("scored final tick error: %v", err)
	}
	if !result.Transitioned || result.Resolution.Updated != 1 {
		t.Fatalf("expected scored final tick to transition and resolve, got=%+v", result)
	}
}

func TestIngestionService_ScorelessCompletionUsesStoredScores(t *testing.T) {
	t.Parallel()

	inProgress := scheduledContest("c1", 9)
	inProgress.Status = contest.StatusInProgress
	inProgress.HomeScore = intPtr(28)
	inProgress.AwayScore = intPtr(10)
	contests := newFakeContestRepo(inProgress)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome, Result: pick.ResultPending},
	)
	svc := newIngestionFixture(contests, picks, newFakeGuestPickRepo())

	result, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		Status:    "COMPLETED",
		Clock:     "FINAL",
	})
	if err != nil {
		t.Fatalf("ApplyScoreUpdate error: %v", err)
	}
	if !result.Transitioned {
		t.Fatalf("expected completed transition with stored scores")
	}

	item, _, _ := contests.GetByID(context.Background(), "c1")
	if item.HomeScore == nil || *item.HomeScore != 28 || item.AwayScore == nil || *item.AwayScore != 10 {
		t.Fatalf("expected stored scores preserved, got=%+v", item)
	}
	if row := picks.get("p1"); row.Result != pick.ResultWin {
		t.Fatalf("expected win graded from stored scores, got=%s", row.Result)
	}
}

func TestIngestionService_UnknownContest(t *testing.T) {
	t.Parallel()

	svc := newIngestionFixture(newFakeContestRepo(), newFakePickRepo(), newFakeGuestPickRepo())

	_, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "missing",
		Status:    "IN_PROGRESS",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestIngestionService_InvalidStatus(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(scheduledContest("c1", 9))
	svc := newIngestionFixture(contests, newFakePickRepo(), newFakeGuestPickRepo())

	_, err := svc.ApplyScoreUpdate(context.Background(), ScoreUpdateInput{
		ContestID: "c1",
		Status:    "HALFTIME_SHOW",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
}
