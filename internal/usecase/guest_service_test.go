package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

func newGuestFixture(contests *fakeContestRepo, picks *fakePickRepo, guests *fakeGuestPickRepo) *GuestService {
	precedenceRepo := newFakePrecedenceRepo(picks, guests)
	return NewGuestService(contests, guests, precedenceRepo, nil, nil, logging.NewNop())
}

func TestGuestService_SubmitGuestPicks(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(scheduledContest("c1", 9), scheduledContest("c2", 9))
	guests := newFakeGuestPickRepo()
	svc := newGuestFixture(contests, newFakePickRepo(), guests)

	setID, rows, err := svc.SubmitGuestPicks(context.Background(), SubmitGuestPicksInput{
		DisplayName: "Mystery",
		Season:      2025,
		Week:        9,
		Picks: []SubmitPickInput{
			{ContestID: "c1", Side: contest.SideHome, IsLock: true},
			{ContestID: "c2", Side: contest.SideAway},
		},
	})
	if err != nil {
		t.Fatalf("SubmitGuestPicks error: %v", err)
	}
	if setID == "" {
		t.Fatalf("expected a set id")
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got=%d", len(rows))
	}
	for _, row := range rows {
		stored := guests.get(row.ID)
		if stored.SetID != setID {
			t.Fatalf("expected rows grouped under set %s, got=%s", setID, stored.SetID)
		}
		if !stored.Active {
			t.Fatalf("expected fresh set active")
		}
	}
}

func TestGuestService_SubmitGuestPicks_Validation(t *testing.T) {
	t.Parallel()

	contests := newFakeContestRepo(scheduledContest("c1", 9), scheduledContest("c2", 9))
	svc := newGuestFixture(contests, newFakePickRepo(), newFakeGuestPickRepo())

	_, _, err := svc.SubmitGuestPicks(context.Background(), SubmitGuestPicksInput{
		Season: 2025,
		Week:   9,
		Picks:  []SubmitPickInput{{ContestID: "c1", Side: contest.SideHome}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing display name, got=%v", err)
	}

	_, _, err = svc.SubmitGuestPicks(context.Background(), SubmitGuestPicksInput{
		DisplayName: "Mystery",
		Season:      2025,
		Week:        9,
		Picks: []SubmitPickInput{
			{ContestID: "c1", Side: contest.SideHome, IsLock: true},
			{ContestID: "c2", Side: contest.SideAway, IsLock: true},
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for two locks, got=%v", err)
	}
}
