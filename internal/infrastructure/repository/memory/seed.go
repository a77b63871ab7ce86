package memory

import (
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
)

const SeedSeason = 2026

func intRef(v int) *int { return &v }

func SeedContests() []contest.Contest {
	completedAt := time.Date(2026, 9, 13, 23, 5, 0, 0, time.UTC)
	return []contest.Contest{
		{
			ID:         "ct-2026-w1-buf-mia",
			Season:     SeedSeason,
			Week:       1,
			HomeTeam:   "Buffalo",
			AwayTeam:   "Miami",
			HomeScore:  intRef(31),
			AwayScore:  intRef(10),
			SpreadHalf: -13, // home favored by 6.5
			BasePoints: 20,
			Status:     contest.StatusCompleted,
			KickoffAt:  time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC),
			Clock:      "FINAL",

			CoveringSide:    contest.SideHome,
			BonusPoints:     1, // covered by 14.5
			OutcomeFrozenAt: &completedAt,
		},
		{
			ID:         "ct-2026-w1-dal-phi",
			Season:     SeedSeason,
			Week:       1,
			HomeTeam:   "Dallas",
			AwayTeam:   "Philadelphia",
			HomeScore:  intRef(20),
			AwayScore:  intRef(23),
			SpreadHalf: 6, // home getting 3
			BasePoints: 20,
			Status:     contest.StatusCompleted,
			KickoffAt:  time.Date(2026, 9, 13, 20, 25, 0, 0, time.UTC),
			Clock:      "FINAL",

			CoveringSide:    contest.SidePush,
			BonusPoints:     0,
			OutcomeFrozenAt: &completedAt,
		},
		{
			ID:         "ct-2026-w2-kc-den",
			Season:     SeedSeason,
			Week:       2,
			HomeTeam:   "Kansas City",
			AwayTeam:   "Denver",
			HomeScore:  intRef(14),
			AwayScore:  intRef(7),
			SpreadHalf: -19, // home favored by 9.5
			BasePoints: 20,
			Status:     contest.StatusInProgress,
			KickoffAt:  time.Date(2026, 9, 20, 17, 0, 0, 0, time.UTC),
			Clock:      "Q3 08:12",
		},
		{
			ID:         "ct-2026-w2-sf-sea",
			Season:     SeedSeason,
			Week:       2,
			HomeTeam:   "San Francisco",
			AwayTeam:   "Seattle",
			SpreadHalf: -7, // home favored by 3.5
			BasePoints: 20,
			Status:     contest.StatusScheduled,
			KickoffAt:  time.Date(2026, 9, 20, 20, 5, 0, 0, time.UTC),
		},
		{
			ID:         "ct-2026-w3-gb-chi",
			Season:     SeedSeason,
			Week:       3,
			HomeTeam:   "Green Bay",
			AwayTeam:   "Chicago",
			SpreadHalf: -5, // home favored by 2.5
			BasePoints: 20,
			Status:     contest.StatusScheduled,
			KickoffAt:  time.Date(2026, 9, 27, 17, 0, 0, 0, time.UTC),
		},
	}
}

func SeedPicks() []pick.Pick {
	created := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)
	return []pick.Pick{
		{
			ID:          "pk-demo-001",
			UserID:      "user-demo-alice",
			DisplayName: "Alice",
			ContestID:   "ct-2026-w1-buf-mia",
			Season:      SeedSeason,
			Week:        1,
			Side:        contest.SideHome,
			IsLock:      true,
			Visible:     true,
			Active:      true,
			Result:      pick.ResultWin,
			Points:      22,
			CreatedAt:   created,
		},
		{
			ID:          "pk-demo-002",
			UserID:      "user-demo-alice",
			DisplayName: "Alice",
			ContestID:   "ct-2026-w1-dal-phi",
			Season:      SeedSeason,
			Week:        1,
			Side:        contest.SideAway,
			Visible:     true,
			Active:      true,
			Result:      pick.ResultPush,
			Points:      pick.PushPoints,
			CreatedAt:   created,
		},
		{
			ID:          "pk-demo-003",
			UserID:      "user-demo-bob",
			DisplayName: "Bob",
			ContestID:   "ct-2026-w1-buf-mia",
			Season:      SeedSeason,
			Week:        1,
			Side:        contest.SideAway,
			Visible:     true,
			Active:      true,
			Result:      pick.ResultLoss,
			Points:      0,
			CreatedAt:   created,
		},
		{
			ID:          "pk-demo-004",
			UserID:      "user-demo-bob",
			DisplayName: "Bob",
			ContestID:   "ct-2026-w2-kc-den",
			Season:      SeedSeason,
			Week:        2,
			Side:        contest.SideHome,
			Visible:     true,
			Active:      true,
			Result:      pick.ResultPending,
			CreatedAt:   created.AddDate(0, 0, 7),
		},
	}
}

func SeedGuestPicks() []guestpick.GuestPick {
	created := time.Date(2026, 9, 12, 15, 30, 0, 0, time.UTC)
	return []guestpick.GuestPick{
		{
			ID:          "gp-demo-001",
			SetID:       "gs-demo-w1-carol",
			DisplayName: "Carol",
			ContestID:   "ct-2026-w1-buf-mia",
			Season:      SeedSeason,
			Week:        1,
			Side:        contest.SideHome,
			Visible:     true,
			Active:      true,
			Validation:  guestpick.ValidationValid,
			Result:      pick.ResultWin,
			Points:      21,
			CreatedAt:   created,
		},
		{
			ID:          "gp-demo-002",
			SetID:       "gs-demo-w1-carol",
			DisplayName: "Carol",
			ContestID:   "ct-2026-w1-dal-phi",
			Season:      SeedSeason,
			Week:        1,
			Side:        contest.SideHome,
			IsLock:      true,
			Visible:     true,
			Active:      true,
			Validation:  guestpick.ValidationValid,
			Result:      pick.ResultPush,
			Points:      pick.PushPoints,
			CreatedAt:   created,
		},
	}
}
