package sqlstore

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/healthvault/internal/apperror"
	"github.com/sakif/healthvault/internal/model"
	"github.com/sakif/healthvault/internal/repository"
)

var _ repository.HealthGoalRepository = (*DB)(nil)

// CreateHealthGoal inserts a goal. An empty Status is stored as active.
func (db *DB) CreateHealthGoal(ctx context.Context, goal *model.HealthGoal) error {
	goal.ID = xid.New().String()
	goal.CreatedAt = now()
	if goal.Status == "" {
		goal.Status = model.GoalStatusActive
	}

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO health_goals (id, account_id, title, description, target_value, current_value, target_date, status, created_at)
		 VALUES (:id, :account_id, :title, :description, :target_value, :current_value, :target_date, :status, :created_at)`,
		goal,
	)
	if err != nil {
		goal.ID = ""
		if isForeignKeyViolation(err) {
			return apperror.NotFound("account", goal.AccountID)
		}
		return fmt.Errorf("sqlstore: inserting health goal: %w", err)
	}
	return nil
}

// ListHealthGoals returns accountID's goals, newest first.
func (db *DB) ListHealthGoals(ctx context.Context, accountID string, opts repository.ListOptions) ([]model.HealthGoal, error) {
	q, args := db.withPaging(
		`SELECT id, account_id, title, description, target_value, current_value, target_date, status, created_at
		 FROM health_goals
		 WHERE account_id = ?
		 ORDER BY created_at DESC, id DESC`,
		[]any{accountID}, opts.Limit, opts.Offset,
	)

	goals := []model.HealthGoal{}
	if err := db.conn.SelectContext(ctx, &goals, db.conn.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: listing health goals for %s: %w", accountID, err)
	}
	return goals, nil
}

// CountGoalsByStatus counts accountID's goals in the given status.
func (db *DB) CountGoalsByStatus(ctx context.Context, accountID string, status model.GoalStatus) (int, error) {
	var n int
	err := db.conn.GetContext(ctx, &n,
		db.conn.Rebind(`SELECT COUNT(*) FROM health_goals WHERE account_id = ? AND status = ?`),
		accountID, status,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: counting %s goals for %s: %w", status, accountID, err)
	}
	return n, nil
}
