package postgres

import (
	"time"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/pick"
)

type pickTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	UserID      string     `db:"user_id"`
	DisplayName string     `db:"display_name"`
	ContestID   string     `db:"contest_public_id"`
	Season      int        `db:"season"`
	Week        int        `db:"week"`
	Side        string     `db:"side"`
	IsLock      bool       `db:"is_lock"`
	Visible     bool       `db:"visible"`
	Active      bool       `db:"active"`
	Result      string     `db:"result"`
	Points      int        `db:"points"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type pickInsertModel struct {
	PublicID    string    `db:"public_id"`
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	ContestID   string    `db:"contest_public_id"`
	Season      int       `db:"season"`
	Week        int       `db:"week"`
	Side        string    `db:"side"`
	IsLock      bool      `db:"is_lock"`
	Visible     bool      `db:"visible"`
	Active      bool      `db:"active"`
	Result      string    `db:"result"`
	Points      int       `db:"points"`
	CreatedAt   time.Time `db:"created_at"`
}

func pickToDomain(row pickTableModel) pick.Pick {
	return pick.Pick{
		ID:          row.PublicID,
		UserID:      row.UserID,
		DisplayName: row.DisplayName,
		ContestID:   row.ContestID,
		Season:      row.Season,
		Week:        row.Week,
		Side:        contest.Side(row.Side),
		IsLock:      row.IsLock,
		Visible:     row.Visible,
		Active:      row.Active,
		Result:      pick.Result(row.Result),
		Points:      row.Points,
		CreatedAt:   row.CreatedAt,
	}
}
