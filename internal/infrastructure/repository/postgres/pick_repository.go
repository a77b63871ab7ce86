package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gridpool/pickem-league/internal/domain/pick"
	qb "github.com/gridpool/pickem-league/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListByContest(ctx context.Context, contestID string) ([]pick.Pick, error) {
	return r.list(ctx,
		qb.Eq("contest_public_id", contestID),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) ListBySeason(ctx context.Context, season int) ([]pick.Pick, error) {
	return r.list(ctx,
		qb.Eq("season", season),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) ListByUserWeek(ctx context.Context, userID string, season, week int) ([]pick.Pick, error) {
	return r.list(ctx,
		qb.Eq("user_id", userID),
		qb.Eq("season", season),
		qb.Eq("week", week),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) list(ctx context.Context, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").
		From("picks").
		Where(conditions...).
		OrderBy("week", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickToDomain(row))
	}
	return out, nil
}

func (r *PickRepository) Create(ctx context.Context, items []pick.Pick) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create picks: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := pickInsertModel{
			PublicID:    item.ID,
			UserID:      item.UserID,
			DisplayName: item.DisplayName,
			ContestID:   item.ContestID,
			Season:      item.Season,
			Week:        item.Week,
			Side:        string(item.Side),
			IsLock:      item.IsLock,
			Visible:     item.Visible,
			Active:      item.Active,
			Result:      string(item.Result),
			Points:      item.Points,
			CreatedAt:   item.CreatedAt,
		}
		query, args, err := qb.InsertModel("picks", insertModel, "")
		if err != nil {
			return fmt.Errorf("build insert pick query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert pick: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create picks tx: %w", err)
	}
	return nil
}

func (r *PickRepository) DeleteByUserWeek(ctx context.Context, userID string, season, week int) error {
	query, args, err := qb.Update("picks").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("season", season),
			qb.Eq("week", week),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete picks query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete picks by user week: %w", err)
	}
	return nil
}

// UpdateResults writes result and points only, one transaction per call so a
// resolver chunk commits or rolls back as a unit.
func (r *PickRepository) UpdateResults(ctx context.Context, updates []pick.ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update pick results: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, update := range updates {
		query, args, err := qb.Update("picks").
			Set("result", string(update.Result)).
			Set("points", update.Points).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("public_id", update.ID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update pick result query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update pick result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update pick results tx: %w", err)
	}
	return nil
}
