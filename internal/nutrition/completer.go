package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/points"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrAssignmentNotFound = errors.New("assignment not found")

// Completion is the outcome of a successful completion.
type Completion struct {
	AssignmentID string
	UserID       string
	PlanID       string
	Compliance   Compliance
	PointsEarned int
	// Change is set when the reward moved the user's balance.
	Change *points.Change
}

type Completer struct {
	engine    *points.Engine
	threshold int
	log       *zap.Logger
}

func NewCompleter(engine *points.Engine, thresholdPercent int, log *zap.Logger) *Completer {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultThresholdPercent
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Completer{engine: engine, threshold: thresholdPercent, log: log}
}

type assignmentRow struct {
	ID           string                  `db:"id"`
	UserID       string                  `db:"user_id"`
	PlanID       string                  `db:"plan_id"`
	Status       models.AssignmentStatus `db:"status"`
	PlanName     string                  `db:"plan_name"`
	PointsReward int                     `db:"points_reward"`
}

// MealCounts returns how many distinct meal templates of planID userID has
// logged as completed, and how many the plan has.
func MealCounts(ctx context.Context, q sqlx.QueryerContext, userID, planID string) (completed, total int, err error) {
	var row struct {
		Completed int `db:"completed"`
		Total     int `db:"total"`
	}
	err = sqlx.GetContext(ctx, q, &row, `
SELECT
  (SELECT COUNT(*) FROM meal_templates WHERE plan_id = $1) AS total,
  (SELECT COUNT(DISTINCT l.meal_template_id)
     FROM user_meal_logs l
     JOIN meal_templates m ON m.id = l.meal_template_id
    WHERE m.plan_id = $1 AND l.user_id = $2 AND l.completed) AS completed`, planID, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("count meals: %w", err)
	}
	return row.Completed, row.Total, nil
}

// Complete marks the assignment completed when compliance reaches the
// threshold and credits the plan reward. The status flip is a conditional
// write, so of two concurrent requests only one can succeed and credit.
func (c *Completer) Complete(ctx context.Context, tx *sqlx.Tx, assignmentID string) (Completion, error) {
	var a assignmentRow
	err := tx.GetContext(ctx, &a, `
SELECT a.id, a.user_id, a.plan_id, a.status, p.name AS plan_name, p.points_reward
FROM user_nutrition_plans a
JOIN nutrition_plans p ON p.id = a.plan_id
WHERE a.id = $1`, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return Completion{}, ErrAssignmentNotFound
	}
	if err != nil {
		return Completion{}, fmt.Errorf("load assignment: %w", err)
	}
	if a.Status == models.AssignmentCompleted {
		return Completion{}, ErrAlreadyCompleted
	}
	completed, total, err := MealCounts(ctx, tx, a.UserID, a.PlanID)
	if err != nil {
		return Completion{}, err
	}
	compliance, err := CheckCompletion(a.Status, completed, total, c.threshold)
	if err != nil {
		return Completion{}, err
	}
	res, err := tx.ExecContext(ctx, `
UPDATE user_nutrition_plans
SET status = 'completed', compliance_percentage = $2, end_date = CURRENT_DATE,
    version = version + 1, updated_at = now()
WHERE id = $1 AND status <> 'completed'`, a.ID, compliance.Percentage)
	if err != nil {
		return Completion{}, fmt.Errorf("complete assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return Completion{}, ErrAlreadyCompleted
	}

	out := Completion{AssignmentID: a.ID, UserID: a.UserID, PlanID: a.PlanID, Compliance: compliance}
	change, ok, err := c.engine.CreditPlanCompletion(ctx, tx, a.UserID, a.PlanID, a.PlanName, a.PointsReward)
	if err != nil {
		return Completion{}, err
	}
	if ok {
		out.PointsEarned = a.PointsReward
		out.Change = &change
	}
	c.log.Info("nutrition_plan_completed",
		zap.String("assignment_id", a.ID),
		zap.String("user_id", a.UserID),
		zap.Float64("compliance", compliance.Percentage),
		zap.Int("points_earned", out.PointsEarned),
	)
	return out, nil
}
