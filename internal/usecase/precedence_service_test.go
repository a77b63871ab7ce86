package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

func guestRow(id, setID, userID string, createdAt time.Time) guestpick.GuestPick {
	row := guestpick.GuestPick{
		ID:         id,
		SetID:      setID,
		ContestID:  "c-" + id,
		Season:     2025,
		Week:       9,
		Side:       contest.SideHome,
		Visible:    true,
		Active:     true,
		Validation: guestpick.ValidationValid,
		CreatedAt:  createdAt,
	}
	if userID != "" {
		claimedAt := createdAt.Add(time.Hour)
		row.ClaimedByUserID = &userID
		row.ClaimedAt = &claimedAt
	}
	return row
}

func newPrecedenceFixture(picks *fakePickRepo, guests *fakeGuestPickRepo) (*PrecedenceService, *fakePrecedenceRepo) {
	precedenceRepo := newFakePrecedenceRepo(picks, guests)
	svc := NewPrecedenceService(picks, guests, precedenceRepo, nil, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC) }
	return svc, precedenceRepo
}

func TestPrecedenceService_Arbitrate_IdentifiedBeatsClaimedGuest(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome},
	)
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "u1", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	decision, err := svc.Arbitrate(context.Background(), "u1", 2025, 9)
	if err != nil {
		t.Fatalf("Arbitrate error: %v", err)
	}
	if decision.ActiveChannel != precedence.ChannelIdentified {
		t.Fatalf("expected identified channel, got=%s", decision.ActiveChannel)
	}
	if !picks.get("p1").Active {
		t.Fatalf("expected identified pick active")
	}
	if guests.get("g1").Active {
		t.Fatalf("expected claimed guest set deactivated")
	}
}

func TestPrecedenceService_Arbitrate_GuestWinsWithoutIdentifiedPicks(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo(
		guestRow("g1", "s1", "u1", base.Add(time.Minute)),
		guestRow("g2", "s2", "u1", base),
	)
	svc, _ := newPrecedenceFixture(picks, guests)

	decision, err := svc.Arbitrate(context.Background(), "u1", 2025, 9)
	if err != nil {
		t.Fatalf("Arbitrate error: %v", err)
	}
	if decision.ActiveChannel != precedence.ChannelGuest {
		t.Fatalf("expected guest channel, got=%s", decision.ActiveChannel)
	}
	if decision.ActivateGuestSetID != "s2" {
		t.Fatalf("expected oldest set s2 activated, got=%s", decision.ActivateGuestSetID)
	}
	if !guests.get("g2").Active || guests.get("g1").Active {
		t.Fatalf("expected exactly s2 active: s1=%v s2=%v", guests.get("g1").Active, guests.get("g2").Active)
	}
}

func TestPrecedenceService_Arbitrate_Converges(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome},
	)
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "u1", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	first, err := svc.Arbitrate(context.Background(), "u1", 2025, 9)
	if err != nil {
		t.Fatalf("first Arbitrate error: %v", err)
	}
	second, err := svc.Arbitrate(context.Background(), "u1", 2025, 9)
	if err != nil {
		t.Fatalf("second Arbitrate error: %v", err)
	}
	if first.ActiveChannel != second.ActiveChannel {
		t.Fatalf("verdict changed between runs: %s vs %s", first.ActiveChannel, second.ActiveChannel)
	}
	if guests.get("g1").Active {
		t.Fatalf("expected guest set to stay deactivated")
	}
}

func TestPrecedenceService_Override_GuestWithoutEligibleSet(t *testing.T) {
	t.Parallel()

	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome},
	)
	guests := newFakeGuestPickRepo()
	svc, _ := newPrecedenceFixture(picks, guests)

	err := svc.OverridePrecedence(context.Background(), OverrideInput{
		UserID:  "u1",
		Season:  2025,
		Week:    9,
		Channel: precedence.ChannelGuest,
		Reason:  "support escalation 1423",
		Actor:   "admin",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got=%v", err)
	}
}

func TestPrecedenceService_Override_StickyUntilCleared(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo(
		pick.Pick{ID: "p1", UserID: "u1", ContestID: "c1", Season: 2025, Week: 9, Side: contest.SideHome},
	)
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "u1", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	err := svc.OverridePrecedence(context.Background(), OverrideInput{
		UserID:  "u1",
		Season:  2025,
		Week:    9,
		Channel: precedence.ChannelGuest,
		Reason:  "user asked to keep the guest entry",
		Actor:   "admin",
	})
	if err != nil {
		t.Fatalf("OverridePrecedence error: %v", err)
	}
	if !guests.get("g1").Active || picks.get("p1").Active {
		t.Fatalf("expected guest channel active under override")
	}

	// Re-arbitration alone does not flip it back.
	if _, err := svc.Arbitrate(context.Background(), "u1", 2025, 9); err != nil {
		t.Fatalf("Arbitrate error: %v", err)
	}
	if !guests.get("g1").Active {
		t.Fatalf("expected override to stay sticky across arbitrations")
	}

	if err := svc.ClearOverride(context.Background(), "u1", 2025, 9); err != nil {
		t.Fatalf("ClearOverride error: %v", err)
	}
	if !picks.get("p1").Active || guests.get("g1").Active {
		t.Fatalf("expected identified channel to win after clear")
	}
}

func TestPrecedenceService_Override_MissingReason(t *testing.T) {
	t.Parallel()

	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo()
	svc, _ := newPrecedenceFixture(picks, guests)

	err := svc.OverridePrecedence(context.Background(), OverrideInput{
		UserID:  "u1",
		Season:  2025,
		Week:    9,
		Channel: precedence.ChannelIdentified,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got=%v", err)
	}
}

func TestPrecedenceService_ClaimGuestSet(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	if err := svc.ClaimGuestSet(context.Background(), "s1", "u1"); err != nil {
		t.Fatalf("ClaimGuestSet error: %v", err)
	}

	row := guests.get("g1")
	if !row.Claimed() || *row.ClaimedByUserID != "u1" {
		t.Fatalf("expected set claimed by u1, got=%+v", row.ClaimedByUserID)
	}
	if !row.Active {
		t.Fatalf("expected claimed set active after arbitration")
	}

	// Another account cannot take it over.
	err := svc.ClaimGuestSet(context.Background(), "s1", "u2")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for second claimant, got=%v", err)
	}

	// Same account re-claiming is a no-op.
	if err := svc.ClaimGuestSet(context.Background(), "s1", "u1"); err != nil {
		t.Fatalf("re-claim by owner error: %v", err)
	}
}

func TestPrecedenceService_ClaimGuestSet_InvalidLockCount(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	rowA := guestRow("g1", "s1", "", base)
	rowA.IsLock = true
	rowB := guestRow("g2", "s1", "", base)
	rowB.IsLock = true

	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo(rowA, rowB)
	svc, _ := newPrecedenceFixture(picks, guests)

	if err := svc.ClaimGuestSet(context.Background(), "s1", "u1"); err != nil {
		t.Fatalf("ClaimGuestSet error: %v", err)
	}
	if guests.get("g1").Validation != guestpick.ValidationInvalid {
		t.Fatalf("expected double-lock set marked invalid, got=%s", guests.get("g1").Validation)
	}
	if guests.get("g1").Active {
		t.Fatalf("expected invalid set left inactive")
	}
}

func TestPrecedenceService_ClaimGuestSet_NotFound(t *testing.T) {
	t.Parallel()

	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo()
	svc, _ := newPrecedenceFixture(picks, guests)

	err := svc.ClaimGuestSet(context.Background(), "missing", "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestPrecedenceService_SetGuestSetVisibility(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "u1", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	if _, err := svc.Arbitrate(context.Background(), "u1", 2025, 9); err != nil {
		t.Fatalf("Arbitrate error: %v", err)
	}
	if !guests.get("g1").Active {
		t.Fatalf("expected claimed set active before hiding")
	}

	if err := svc.SetGuestSetVisibility(context.Background(), "s1", false); err != nil {
		t.Fatalf("SetGuestSetVisibility error: %v", err)
	}
	if guests.get("g1").Active {
		t.Fatalf("expected hidden set deactivated")
	}

	if err := svc.SetGuestSetVisibility(context.Background(), "s1", true); err != nil {
		t.Fatalf("SetGuestSetVisibility error: %v", err)
	}
	if !guests.get("g1").Active {
		t.Fatalf("expected revealed set reactivated by arbitration")
	}
}

func TestPrecedenceService_SetGuestSetVisibility_Unclaimed(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 10, 30, 9, 0, 0, 0, time.UTC)
	picks := newFakePickRepo()
	guests := newFakeGuestPickRepo(guestRow("g1", "s1", "", base))
	svc, _ := newPrecedenceFixture(picks, guests)

	if err := svc.SetGuestSetVisibility(context.Background(), "s1", false); err != nil {
		t.Fatalf("hide error: %v", err)
	}
	if guests.get("g1").Active {
		t.Fatalf("expected hidden unclaimed set deactivated")
	}

	if err := svc.SetGuestSetVisibility(context.Background(), "s1", true); err != nil {
		t.Fatalf("reveal error: %v", err)
	}
	if !guests.get("g1").Active {
		t.Fatalf("expected revealed unclaimed set reactivated")
	}
}
