package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	qb "github.com/gridpool/pickem-league/internal/platform/querybuilder"
)

type GuestPickRepository struct {
	db *sqlx.DB
}

func NewGuestPickRepository(db *sqlx.DB) *GuestPickRepository {
	return &GuestPickRepository{db: db}
}

func (r *GuestPickRepository) ListByContest(ctx context.Context, contestID string) ([]guestpick.GuestPick, error) {
	return r.list(ctx,
		qb.Eq("contest_public_id", contestID),
		qb.IsNull("deleted_at"),
	)
}

func (r *GuestPickRepository) ListBySeason(ctx context.Context, season int) ([]guestpick.GuestPick, error) {
	return r.list(ctx,
		qb.Eq("season", season),
		qb.IsNull("deleted_at"),
	)
}

func (r *GuestPickRepository) ListBySet(ctx context.Context, setID string) ([]guestpick.GuestPick, error) {
	return r.list(ctx,
		qb.Eq("set_id", setID),
		qb.IsNull("deleted_at"),
	)
}

func (r *GuestPickRepository) ListClaimedByUserWeek(ctx context.Context, userID string, season, week int) ([]guestpick.GuestPick, error) {
	return r.list(ctx,
		qb.Eq("claimed_by_user_id", userID),
		qb.Eq("season", season),
		qb.Eq("week", week),
		qb.IsNull("deleted_at"),
	)
}

func (r *GuestPickRepository) list(ctx context.Context, conditions ...qb.Condition) ([]guestpick.GuestPick, error) {
	query, args, err := qb.Select("*").
		From("guest_picks").
		Where(conditions...).
		OrderBy("week", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list guest picks query: %w", err)
	}

	var rows []guestPickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list guest picks: %w", err)
	}

	out := make([]guestpick.GuestPick, 0, len(rows))
	for _, row := range rows {
		out = append(out, guestPickToDomain(row))
	}
	return out, nil
}

func (r *GuestPickRepository) Create(ctx context.Context, items []guestpick.GuestPick) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create guest picks: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := guestPickInsertModel{
			PublicID:    item.ID,
			SetID:       item.SetID,
			DisplayName: item.DisplayName,
			ContestID:   item.ContestID,
			Season:      item.Season,
			Week:        item.Week,
			Side:        string(item.Side),
			IsLock:      item.IsLock,
			Visible:     item.Visible,
			Active:      item.Active,
			Validation:  string(item.Validation),
			Result:      string(item.Result),
			Points:      item.Points,
			CreatedAt:   item.CreatedAt,
		}
		query, args, err := qb.InsertModel("guest_picks", insertModel, "")
		if err != nil {
			return fmt.Errorf("build insert guest pick query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert guest pick: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create guest picks tx: %w", err)
	}
	return nil
}

// Claim attaches the claimant to every unclaimed row of the set. Rows already
// claimed keep their claimant, so a racing second claim changes nothing.
func (r *GuestPickRepository) Claim(ctx context.Context, setID, userID string, claimedAt time.Time) error {
	query, args, err := qb.Update("guest_picks").
		Set("claimed_by_user_id", userID).
		Set("claimed_at", timeToUnix(claimedAt)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("set_id", setID),
			qb.IsNull("claimed_by_user_id"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build claim guest set query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("claim guest set: %w", err)
	}
	return nil
}

func (r *GuestPickRepository) SetVisibilityBySet(ctx context.Context, setID string, visible bool) error {
	query, args, err := qb.Update("guest_picks").
		Set("visible", visible).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("set_id", setID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set guest visibility query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set guest visibility: %w", err)
	}
	return nil
}

func (r *GuestPickRepository) SetValidationBySet(ctx context.Context, setID string, state guestpick.ValidationState) error {
	query, args, err := qb.Update("guest_picks").
		Set("validation", string(state)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("set_id", setID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set guest validation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set guest validation: %w", err)
	}
	return nil
}

func (r *GuestPickRepository) UpdateResults(ctx context.Context, updates []pick.ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update guest pick results: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, update := range updates {
		query, args, err := qb.Update("guest_picks").
			Set("result", string(update.Result)).
			Set("points", update.Points).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("public_id", update.ID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update guest pick result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update guest pick result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update guest pick results tx: %w", err)
	}
	return nil
}
