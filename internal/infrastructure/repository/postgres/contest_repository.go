package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	qb "github.com/gridpool/pickem-league/internal/platform/querybuilder"
)

type ContestRepository struct {
	db *sqlx.DB
}

func NewContestRepository(db *sqlx.DB) *ContestRepository {
	return &ContestRepository{db: db}
}

func (r *ContestRepository) GetByID(ctx context.Context, contestID string) (contest.Contest, bool, error) {
	query, args, err := qb.Select("*").
		From("contests").
		Where(
			qb.Eq("public_id", contestID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return contest.Contest{}, false, fmt.Errorf("build get contest query: %w", err)
	}

	var row contestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return contest.Contest{}, false, nil
		}
		return contest.Contest{}, false, fmt.Errorf("get contest: %w", err)
	}
	return contestToDomain(row), true, nil
}

func (r *ContestRepository) ListBySeason(ctx context.Context, season int) ([]contest.Contest, error) {
	query, args, err := qb.Select("*").
		From("contests").
		Where(
			qb.Eq("season", season),
			qb.IsNull("deleted_at"),
		).
		OrderBy("week", "kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contests by season query: %w", err)
	}

	var rows []contestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contests by season: %w", err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		out = append(out, contestToDomain(row))
	}
	return out, nil
}

func (r *ContestRepository) ListBySeasonWeek(ctx context.Context, season, week int) ([]contest.Contest, error) {
	query, args, err := qb.Select("*").
		From("contests").
		Where(
			qb.Eq("season", season),
			qb.Eq("week", week),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list contests by week query: %w", err)
	}

	var rows []contestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list contests by week: %w", err)
	}

	out := make([]contest.Contest, 0, len(rows))
	for _, row := range rows {
		out = append(out, contestToDomain(row))
	}
	return out, nil
}

func (r *ContestRepository) Create(ctx context.Context, item contest.Contest) error {
	insertModel := contestInsertModel{
		PublicID:   item.ID,
		Season:     item.Season,
		Week:       item.Week,
		HomeTeam:   item.HomeTeam,
		AwayTeam:   item.AwayTeam,
		SpreadHalf: item.SpreadHalf,
		BasePoints: item.BasePoints,
		Status:     string(item.Status),
		KickoffAt:  item.KickoffAt,
		Clock:      item.Clock,
	}
	query, args, err := qb.InsertModel("contests", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert contest query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert contest: %w", err)
	}
	return nil
}

// ApplyScoreUpdate touches only the live feed columns. Score columns are set
// only when the tick carries them, so a partial tick cannot erase stored
// scores. Outcome columns are written exclusively through
// FreezeOutcome/OverwriteOutcome so feed and grading writes stay disjoint.
func (r *ContestRepository) ApplyScoreUpdate(ctx context.Context, contestID string, update contest.ScoreUpdate) error {
	builder := qb.Update("contests")
	if update.HomeScore != nil {
		builder = builder.Set("home_score", *update.HomeScore)
	}
	if update.AwayScore != nil {
		builder = builder.Set("away_score", *update.AwayScore)
	}
	query, args, err := builder.
		Set("status", string(update.Status)).
		Set("clock", update.Clock).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", contestID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build score update query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply score update: %w", err)
	}
	return nil
}

// FreezeOutcome writes the outcome only when none is stored yet. The guard
// lives in the WHERE clause, so concurrent freezers race on a single UPDATE
// and exactly one of them reports the write.
func (r *ContestRepository) FreezeOutcome(ctx context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) (bool, error) {
	query, args, err := qb.Update("contests").
		Set("covering_side", string(outcome.CoveringSide)).
		Set("bonus_points", outcome.BonusPoints).
		Set("outcome_frozen_at", timeToUnix(frozenAt)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", contestID),
			qb.IsNull("outcome_frozen_at"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build freeze outcome query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("freeze outcome: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("freeze outcome rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *ContestRepository) OverwriteOutcome(ctx context.Context, contestID string, outcome contest.Outcome, frozenAt time.Time) error {
	query, args, err := qb.Update("contests").
		Set("covering_side", string(outcome.CoveringSide)).
		Set("bonus_points", outcome.BonusPoints).
		Set("outcome_frozen_at", timeToUnix(frozenAt)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", contestID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build overwrite outcome query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("overwrite outcome: %w", err)
	}
	return nil
}
