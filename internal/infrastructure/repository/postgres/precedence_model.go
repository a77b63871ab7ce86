package postgres

import (
	"database/sql"
	"time"

	"github.com/gridpool/pickem-league/internal/domain/precedence"
)

type precedenceOverrideTableModel struct {
	ID        int64         `db:"id"`
	UserID    string        `db:"user_id"`
	Season    int           `db:"season"`
	Week      int           `db:"week"`
	Channel   string        `db:"channel"`
	Reason    string        `db:"reason"`
	Actor     string        `db:"actor"`
	CreatedAt time.Time     `db:"created_at"`
	ClearedAt sql.NullInt64 `db:"cleared_at"`
	UpdatedAt time.Time     `db:"updated_at"`
	DeletedAt *time.Time    `db:"deleted_at"`
}

type precedenceOverrideInsertModel struct {
	UserID    string    `db:"user_id"`
	Season    int       `db:"season"`
	Week      int       `db:"week"`
	Channel   string    `db:"channel"`
	Reason    string    `db:"reason"`
	Actor     string    `db:"actor"`
	CreatedAt time.Time `db:"created_at"`
}

func overrideToDomain(row precedenceOverrideTableModel) precedence.Override {
	return precedence.Override{
		UserID:    row.UserID,
		Season:    row.Season,
		Week:      row.Week,
		Channel:   precedence.Channel(row.Channel),
		Reason:    row.Reason,
		Actor:     row.Actor,
		CreatedAt: row.CreatedAt,
		ClearedAt: nullUnixToTimePtr(row.ClearedAt),
	}
}
