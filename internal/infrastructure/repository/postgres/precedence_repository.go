package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridpool/pickem-league/internal/domain/precedence"
	qb "github.com/gridpool/pickem-league/internal/platform/querybuilder"
)

type PrecedenceRepository struct {
	db *sqlx.DB
}

func NewPrecedenceRepository(db *sqlx.DB) *PrecedenceRepository {
	return &PrecedenceRepository{db: db}
}

func (r *PrecedenceRepository) GetOverride(ctx context.Context, userID string, season, week int) (precedence.Override, bool, error) {
	query, args, err := qb.Select("*").
		From("precedence_overrides").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("season", season),
			qb.Eq("week", week),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return precedence.Override{}, false, fmt.Errorf("build get override query: %w", err)
	}

	var row precedenceOverrideTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return precedence.Override{}, false, nil
		}
		return precedence.Override{}, false, fmt.Errorf("get override: %w", err)
	}
	return overrideToDomain(row), true, nil
}

func (r *PrecedenceRepository) UpsertOverride(ctx context.Context, item precedence.Override) error {
	insertModel := precedenceOverrideInsertModel{
		UserID:    item.UserID,
		Season:    item.Season,
		Week:      item.Week,
		Channel:   string(item.Channel),
		Reason:    item.Reason,
		Actor:     item.Actor,
		CreatedAt: item.CreatedAt,
	}
	query, args, err := qb.InsertModel("precedence_overrides", insertModel, `ON CONFLICT (user_id, season, week) WHERE deleted_at IS NULL
DO UPDATE SET
    channel = EXCLUDED.channel,
    reason = EXCLUDED.reason,
    actor = EXCLUDED.actor,
    created_at = EXCLUDED.created_at,
    cleared_at = NULL,
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert override query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

func (r *PrecedenceRepository) ClearOverride(ctx context.Context, userID string, season, week int, clearedAt time.Time) error {
	query, args, err := qb.Update("precedence_overrides").
		Set("cleared_at", timeToUnix(clearedAt)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("season", season),
			qb.Eq("week", week),
			qb.IsNull("cleared_at"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear override query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear override: %w", err)
	}
	return nil
}

// ApplyDecision flips the active flags of both channels in one transaction.
// Whoever commits last wins wholesale; there is no interleaving where one
// channel reflects an older verdict than the other.
func (r *PrecedenceRepository) ApplyDecision(ctx context.Context, decision precedence.Decision) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply decision: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if decision.UserID != "" {
		identifiedActive := decision.ActiveChannel == precedence.ChannelIdentified
		query, args, err := qb.Update("picks").
			Set("active", identifiedActive).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("user_id", decision.UserID),
				qb.Eq("season", decision.Season),
				qb.Eq("week", decision.Week),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build flip picks query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("flip picks active flag: %w", err)
		}
	}

	if len(decision.DeactivateGuestSetIDs) > 0 {
		setIDs := make([]any, 0, len(decision.DeactivateGuestSetIDs))
		for _, setID := range decision.DeactivateGuestSetIDs {
			setIDs = append(setIDs, setID)
		}
		query, args, err := qb.Update("guest_picks").
			Set("active", false).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.In("set_id", setIDs),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build deactivate guest sets query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deactivate guest sets: %w", err)
		}
	}

	if decision.ActivateGuestSetID != "" {
		query, args, err := qb.Update("guest_picks").
			Set("active", true).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("set_id", decision.ActivateGuestSetID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build activate guest set query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("activate guest set: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply decision tx: %w", err)
	}
	return nil
}
