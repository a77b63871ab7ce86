package postgres

import (
	"database/sql"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type guestPickTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	SetID           string         `db:"set_id"`
	DisplayName     string         `db:"display_name"`
	ClaimedByUserID sql.NullString `db:"claimed_by_user_id"`
	ContestID       string         `db:"contest_public_id"`
	Season          int            `db:"season"`
	Week            int            `db:"week"`
	Side            string         `db:"side"`
	IsLock          bool           `db:"is_lock"`
	Visible         bool           `db:"visible"`
	Active          bool           `db:"active"`
	Validation      string         `db:"validation"`
	Result          string         `db:"result"`
	Points          int            `db:"points"`
	CreatedAt       time.Time      `db:"created_at"`
	ClaimedAt       sql.NullInt64  `db:"claimed_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

type guestPickInsertModel struct {
	PublicID    string    `db:"public_id"`
	SetID       string    `db:"set_id"`
	DisplayName string    `db:"display_name"`
	ContestID   string    `db:"contest_public_id"`
	Season      int       `db:"season"`
	Week        int       `db:"week"`
	Side        string    `db:"side"`
	IsLock      bool      `db:"is_lock"`
	Visible     bool      `db:"visible"`
	Active      bool      `db:"active"`
	Validation  string    `db:"validation"`
	Result      string    `db:"result"`
	Points      int       `db:"points"`
	CreatedAt   time.Time `db:"created_at"`
}

func guestPickToDomain(row guestPickTableModel) guestpick.GuestPick {
	return guestpick.GuestPick{
		ID:              row.PublicID,
		SetID:           row.SetID,
		DisplayName:     row.DisplayName,
		ClaimedByUserID: nullStringToPtr(row.ClaimedByUserID),
		ContestID:       row.ContestID,
		Season:          row.Season,
		Week:            row.Week,
		Side:            contest.Side(row.Side),
		IsLock:          row.IsLock,
		Visible:         row.Visible,
		Active:          row.Active,
		Validation:      guestpick.ValidationState(row.Validation),
		Result:          pick.Result(row.Result),
		Points:          row.Points,
		CreatedAt:       row.CreatedAt,
		ClaimedAt:       nullUnixToTimePtr(row.ClaimedAt),
	}
}
