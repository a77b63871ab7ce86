package postgres

import (
	"database/sql"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
)

type contestTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	Season          int            `db:"season"`
	Week            int            `db:"week"`
	HomeTeam        string         `db:"home_team"`
	AwayTeam        string         `db:"away_team"`
	HomeScore       sql.NullInt64  `db:"home_score"`
	AwayScore       sql.NullInt64  `db:"away_score"`
	SpreadHalf      int            `db:"spread_half"`
	BasePoints      int            `db:"base_points"`
	Status          string         `db:"status"`
	KickoffAt       time.Time      `db:"kickoff_at"`
	Clock           string         `db:"clock"`
	CoveringSide    sql.NullString `db:"covering_side"`
	BonusPoints     int            `db:"bonus_points"`
	OutcomeFrozenAt sql.NullInt64  `db:"outcome_frozen_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type contestInsertModel struct {
	PublicID   string    `db:"public_id"`
	Season     int       `db:"season"`
	Week       int       `db:"week"`
	HomeTeam   string    `db:"home_team"`
	AwayTeam   string    `db:"away_team"`
	SpreadHalf int       `db:"spread_half"`
	BasePoints int       `db:"base_points"`
	Status     string    `db:"status"`
	KickoffAt  time.Time `db:"kickoff_at"`
	Clock      string    `db:"clock"`
}

func contestToDomain(row contestTableModel) contest.Contest {
	return contest.Contest{
		ID:              row.PublicID,
		Season:          row.Season,
		Week:            row.Week,
		HomeTeam:        row.HomeTeam,
		AwayTeam:        row.AwayTeam,
		HomeScore:       nullIntToPtr(row.HomeScore),
		AwayScore:       nullIntToPtr(row.AwayScore),
		SpreadHalf:      row.SpreadHalf,
		BasePoints:      row.BasePoints,
		Status:          contest.Status(row.Status),
		KickoffAt:       row.KickoffAt,
		Clock:           row.Clock,
		CoveringSide:    contest.Side(row.CoveringSide.String),
		BonusPoints:     row.BonusPoints,
		OutcomeFrozenAt: nullUnixToTimePtr(row.OutcomeFrozenAt),
	}
}
