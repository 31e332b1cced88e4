package services

import (
	"context"
	"errors"
	"time"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/nutrition"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const dateLayout = "2006-01-02"

func (s *Service) ListAssignments(ctx context.Context, p policy.Principal) ([]models.NutritionAssignment, error) {
	return listScoped[models.NutritionAssignment](ctx, s, p, policy.KindNutritionAssignment, policy.MatchAll(), "t.created_at DESC")
}

func (s *Service) GetAssignment(ctx context.Context, p policy.Principal, id string) (*models.NutritionAssignment, error) {
	return getScoped[models.NutritionAssignment](ctx, s, p, policy.KindNutritionAssignment, id)
}

func (s *Service) ListMealLogs(ctx context.Context, p policy.Principal) ([]models.UserMealLog, error) {
	return listScoped[models.UserMealLog](ctx, s, p, policy.KindMealLog, policy.MatchAll(), "t.log_date DESC, t.created_at DESC")
}

func (s *Service) GetMealLog(ctx context.Context, p policy.Principal, id string) (*models.UserMealLog, error) {
	return getScoped[models.UserMealLog](ctx, s, p, policy.KindMealLog, id)
}

func (s *Service) loadAssignment(ctx context.Context, q sqlx.QueryerContext, id string) (*models.NutritionAssignment, error) {
	var a models.NutritionAssignment
	if err := sqlx.GetContext(ctx, q, &a, `SELECT * FROM user_nutrition_plans WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, policy.KindNutritionAssignment, "load assignment")
	}
	return &a, nil
}

func lockAssignments(ctx context.Context, tx *sqlx.Tx, userID, planID string) ([]models.NutritionAssignment, error) {
	rows := []models.NutritionAssignment{}
	err := tx.SelectContext(ctx, &rows, `
SELECT * FROM user_nutrition_plans
WHERE user_id = $1 AND plan_id = $2
ORDER BY created_at
FOR UPDATE`, userID, planID)
	return rows, WrapError(err, "lock assignments")
}

func (s *Service) insertAssignment(ctx context.Context, tx *sqlx.Tx, userID string, plan *models.NutritionPlan, assignedBy *string) (*models.NutritionAssignment, error) {
	now := s.now()
	start := s.today()
	a := &models.NutritionAssignment{
		ID:         uuid.NewString(),
		UserID:     userID,
		PlanID:     plan.ID,
		AssignedBy: assignedBy,
		StartDate:  start,
		EndDate:    nutrition.EndDate(start, plan.DurationDays),
		Status:     models.AssignmentActive,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := tx.NamedExecContext(ctx, `
INSERT INTO user_nutrition_plans (id, user_id, plan_id, assigned_by, start_date, end_date, status,
  compliance_percentage, version, created_at, updated_at)
VALUES (:id, :user_id, :plan_id, :assigned_by, :start_date, :end_date, :status,
  :compliance_percentage, :version, :created_at, :updated_at)`, a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// StartPlan enrolls the principal in a plan. An open assignment is returned
// as is (created=false); a completed one is a conflict.
func (s *Service) StartPlan(ctx context.Context, p policy.Principal, planID string) (*models.NutritionAssignment, bool, error) {
	plan, err := NutritionPlans.Get(ctx, s, p, planID)
	if err != nil {
		return nil, false, err
	}
	target := policy.Target{GymID: plan.GymID, Visible: plan.Published()}
	if err := s.authorize(p, policy.KindNutritionPlan, policy.ActionStart, target); err != nil {
		return nil, false, err
	}
	var out *models.NutritionAssignment
	var created bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := lockAssignments(ctx, tx, p.ID, plan.ID)
		if err != nil {
			return err
		}
		outcome, open, err := nutrition.DecideStart(existing)
		if err != nil {
			return err
		}
		if outcome == nutrition.StartExisting {
			out = open
			return nil
		}
		out, err = s.insertAssignment(ctx, tx, p.ID, plan, nil)
		created = err == nil
		return err
	})
	switch {
	case errors.Is(err, nutrition.ErrAlreadyCompleted):
		return nil, false, ErrConflict("Plan already completed", nil)
	case pgCode(err) == pgUniqueViolation:
		// A concurrent start won; hand back its assignment.
		return s.openAssignment(ctx, p.ID, plan.ID)
	case err != nil:
		return nil, false, WrapError(err, "start plan")
	}
	return out, created, nil
}

func (s *Service) openAssignment(ctx context.Context, userID, planID string) (*models.NutritionAssignment, bool, error) {
	var a models.NutritionAssignment
	err := s.DB.GetContext(ctx, &a, `
SELECT * FROM user_nutrition_plans
WHERE user_id = $1 AND plan_id = $2 AND status IN ('active', 'paused')`, userID, planID)
	if err != nil {
		return nil, false, notFoundOr(err, policy.KindNutritionAssignment, "load open assignment")
	}
	return &a, false, nil
}

// AssignPlan enrolls another user of the principal's gym in a plan.
func (s *Service) AssignPlan(ctx context.Context, p policy.Principal, planID, userID string) (*models.NutritionAssignment, error) {
	if userID == "" {
		return nil, ErrValidation(map[string]string{"userId": "is required"})
	}
	plan, err := NutritionPlans.Get(ctx, s, p, planID)
	if err != nil {
		return nil, err
	}
	target := policy.Target{GymID: plan.GymID, Visible: plan.Published()}
	if err := s.authorize(p, policy.KindNutritionPlan, policy.ActionAssign, target); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsSuperAdmin() && !p.InGym(user.GymID) {
		return nil, ErrForbidden("user belongs to another gym")
	}
	var out *models.NutritionAssignment
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := lockAssignments(ctx, tx, user.ID, plan.ID)
		if err != nil {
			return err
		}
		outcome, open, err := nutrition.DecideStart(existing)
		if err != nil {
			return ErrConflict("Plan already completed", nil)
		}
		if outcome == nutrition.StartExisting {
			return ErrConflict("Plan already assigned", map[string]string{"assignmentId": open.ID})
		}
		assignedBy := p.ID
		out, err = s.insertAssignment(ctx, tx, user.ID, plan, &assignedBy)
		return err
	})
	if pgCode(err) == pgUniqueViolation {
		return nil, ErrConflict("Plan already assigned", nil)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignmentUpdate is the editable part of an assignment. Version must match
// the stored one.
type AssignmentUpdate struct {
	Status  models.AssignmentStatus `json:"status" validate:"required"`
	Version int                     `json:"version" validate:"required,gte=1"`
}

func (s *Service) UpdateAssignment(ctx context.Context, p policy.Principal, id string, in AssignmentUpdate) (*models.NutritionAssignment, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	before, err := s.loadAssignment(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindNutritionAssignment, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindNutritionAssignment, policy.ActionUpdate, target); err != nil {
		return nil, err
	}
	status := string(in.Status)
	if err := transition(models.AssignmentTransitions, string(before.Status), &status); err != nil {
		return nil, err
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE user_nutrition_plans
SET status = $1, version = version + 1, updated_at = $2
WHERE id = $3 AND version = $4 AND status <> 'completed'`, status, s.now(), id, in.Version)
	if err != nil {
		return nil, storeError(err, "update assignment")
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return nil, ErrConflict("Assignment was modified concurrently", map[string]int{"version": before.Version})
	}
	return s.loadAssignment(ctx, s.DB, id)
}

// DeleteAssignment removes an open assignment. Completed ones carry an
// awarded reward and stay.
func (s *Service) DeleteAssignment(ctx context.Context, p policy.Principal, id string) error {
	before, err := s.loadAssignment(ctx, s.DB, id)
	if err != nil {
		return err
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindNutritionAssignment, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, policy.KindNutritionAssignment, policy.ActionDelete, target); err != nil {
		return err
	}
	if before.Status == models.AssignmentCompleted {
		return ErrConflict("Completed assignments cannot be deleted", nil)
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM user_nutrition_plans WHERE id = $1 AND status <> 'completed'`, id)
	return WrapError(err, "delete assignment")
}

// ToggleMealLog flips the principal's completion mark for a meal on a day,
// creating the log as completed on first use. date is YYYY-MM-DD; empty
// means today.
func (s *Service) ToggleMealLog(ctx context.Context, p policy.Principal, templateID, date string) (*models.UserMealLog, error) {
	day := s.today()
	if date != "" {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, ErrValidation(map[string]string{"date": "must be YYYY-MM-DD"})
		}
		day = parsed
	}
	template, err := MealTemplates.Get(ctx, s, p, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindMealLog, policy.ActionToggle, policy.Target{GymID: p.GymID, OwnerID: p.ID}); err != nil {
		return nil, err
	}
	var done bool
	if err := s.DB.GetContext(ctx, &done, `
SELECT EXISTS(
  SELECT 1 FROM user_nutrition_plans
  WHERE user_id = $1 AND plan_id = $2 AND status = 'completed'
)`, p.ID, template.PlanID); err != nil {
		return nil, WrapError(err, "check completed plan")
	}
	if done {
		return nil, ErrConflict("Plan already completed", nil)
	}
	var log models.UserMealLog
	err = s.DB.GetContext(ctx, &log, `
INSERT INTO user_meal_logs (id, user_id, meal_template_id, log_date, completed)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (user_id, meal_template_id, log_date)
DO UPDATE SET completed = NOT user_meal_logs.completed, updated_at = now()
RETURNING *`, uuid.NewString(), p.ID, template.ID, day)
	if err != nil {
		return nil, WrapError(err, "toggle meal log")
	}
	return &log, nil
}

// CompletionResult is returned by a successful completion.
type CompletionResult struct {
	Assignment   *models.NutritionAssignment `json:"assignment"`
	Compliance   nutrition.Compliance        `json:"compliance"`
	PointsEarned int                         `json:"pointsEarned"`
}

// CompleteAssignment closes an assignment whose compliance reached the
// threshold and credits the plan reward.
func (s *Service) CompleteAssignment(ctx context.Context, p policy.Principal, id string) (*CompletionResult, error) {
	target, err := s.loadTarget(ctx, s.DB, policy.KindNutritionAssignment, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindNutritionAssignment, policy.ActionComplete, target); err != nil {
		return nil, err
	}
	var done nutrition.Completion
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		done, err = s.Completer.Complete(ctx, tx, id)
		return err
	})
	var low *nutrition.BelowThresholdError
	switch {
	case errors.As(err, &low):
		return nil, ErrConflict("Compliance below threshold", low.Compliance)
	case errors.Is(err, nutrition.ErrAlreadyCompleted):
		return nil, ErrConflict("Plan already completed", nil)
	case errors.Is(err, nutrition.ErrNoMeals):
		return nil, ErrConflict("No meals configured", nil)
	case errors.Is(err, nutrition.ErrAssignmentNotFound):
		return nil, notFound(policy.KindNutritionAssignment)
	case err != nil:
		return nil, WrapError(err, "complete assignment")
	}
	if done.Change != nil {
		s.publish(ctx, *done.Change)
	}
	a, err := s.loadAssignment(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return &CompletionResult{Assignment: a, Compliance: done.Compliance, PointsEarned: done.PointsEarned}, nil
}
