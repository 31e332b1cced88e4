package services

import (
	"context"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/jmoiron/sqlx"
)

var Gyms = &Catalogue[models.Gym, *models.Gym]{
	Kind:    policy.KindGym,
	Columns: []string{"name", "slug", "description", "location", "status", "brand_color", "website", "contact_email"},
	OrderBy: "t.name",
	Transition: func(before, after *models.Gym) error {
		return transition(models.ActiveTransitions, before.Status, &after.Status)
	},
	// The gym's routines cascade away, so sessions bound to them earn nothing.
	BeforeDelete: func(ctx context.Context, s *Service, tx *sqlx.Tx, rec *models.Gym) (func() ([]points.Change, error), error) {
		ids, err := points.SessionsForGym(ctx, tx, rec.ID)
		return resyncAfter(ctx, s, tx, ids, err)
	},
}

var Branches = &Catalogue[models.Branch, *models.Branch]{
	Kind:    policy.KindBranch,
	Columns: []string{"gym_id", "name", "slug", "address", "city", "state", "country", "zipcode", "status", "phone"},
	OrderBy: "t.name",
	Transition: func(before, after *models.Branch) error {
		return transition(models.ActiveTransitions, before.Status, &after.Status)
	},
}

var Exercises = &Catalogue[models.Exercise, *models.Exercise]{
	Kind:    policy.KindExercise,
	Columns: []string{"gym_id", "name", "category", "equipment", "muscle_group", "description", "media_url"},
	OrderBy: "t.name",
}

var Routines = &Catalogue[models.WorkoutRoutine, *models.WorkoutRoutine]{
	Kind:    policy.KindRoutine,
	Columns: []string{"gym_id", "name", "objective", "level", "duration_minutes", "status", "points_reward", "created_by", "is_public", "notes"},
	OrderBy: "t.created_at DESC",
	Prepare: func(p policy.Principal, rec *models.WorkoutRoutine) {
		id := p.ID
		rec.CreatedBy = &id
	},
	Transition: func(before, after *models.WorkoutRoutine) error {
		after.CreatedBy = before.CreatedBy
		return transition(models.RoutineTransitions, before.Status, &after.Status)
	},
	// Sessions bound to the routine must follow a changed reward.
	AfterUpdate: func(ctx context.Context, s *Service, tx *sqlx.Tx, before, after *models.WorkoutRoutine) ([]points.Change, error) {
		if before.PointsReward == after.PointsReward {
			return nil, nil
		}
		return s.Engine.ResyncRoutine(ctx, tx, after.ID)
	},
	// Deleting a routine unbinds its sessions, which then earn nothing.
	BeforeDelete: func(ctx context.Context, s *Service, tx *sqlx.Tx, rec *models.WorkoutRoutine) (func() ([]points.Change, error), error) {
		ids, err := points.SessionsForRoutine(ctx, tx, rec.ID)
		return resyncAfter(ctx, s, tx, ids, err)
	},
}

// resyncAfter syncs ids once the delete has unbound them from their routine.
func resyncAfter(ctx context.Context, s *Service, tx *sqlx.Tx, ids []string, err error) (func() ([]points.Change, error), error) {
	if err != nil {
		return nil, err
	}
	return func() ([]points.Change, error) {
		return s.Engine.SyncSessions(ctx, tx, ids)
	}, nil
}

var RoutineExercises = &Catalogue[models.RoutineExercise, *models.RoutineExercise]{
	Kind:    policy.KindRoutineExercise,
	Columns: []string{"routine_id", "exercise_id", "position", "sets", "reps", "rest_seconds", "tempo", "weight_kg"},
	OrderBy: "t.routine_id, t.position",
	Refs: []Ref[*models.RoutineExercise]{
		{Kind: policy.KindRoutine, ID: func(r *models.RoutineExercise) string { return r.RoutineID }},
		{Kind: policy.KindExercise, ID: func(r *models.RoutineExercise) string { return r.ExerciseID }},
	},
}

var NutritionPlans = &Catalogue[models.NutritionPlan, *models.NutritionPlan]{
	Kind:    policy.KindNutritionPlan,
	Columns: []string{"gym_id", "name", "description", "calories_per_day", "protein_g", "carbs_g", "fats_g", "duration_days", "status", "points_reward"},
	OrderBy: "t.created_at DESC",
	Transition: func(before, after *models.NutritionPlan) error {
		return transition(models.PlanTransitions, before.Status, &after.Status)
	},
}

var MealTemplates = &Catalogue[models.MealTemplate, *models.MealTemplate]{
	Kind:    policy.KindMealTemplate,
	Columns: []string{"plan_id", "day_number", "meal_type", "name", "description", "calories", "protein_g", "carbs_g", "fats_g", "ingredients", "instructions", "position"},
	OrderBy: "t.plan_id, t.day_number, t.position",
	Refs: []Ref[*models.MealTemplate]{
		{Kind: policy.KindNutritionPlan, ID: func(m *models.MealTemplate) string { return m.PlanID }},
	},
}

var NutritionMeals = &Catalogue[models.NutritionMeal, *models.NutritionMeal]{
	Kind:    policy.KindNutritionMeal,
	Columns: []string{"plan_id", "position", "name", "meal_time", "notes"},
	OrderBy: "t.plan_id, t.position",
	Refs: []Ref[*models.NutritionMeal]{
		{Kind: policy.KindNutritionPlan, ID: func(m *models.NutritionMeal) string { return m.PlanID }},
	},
}

var NutritionItems = &Catalogue[models.NutritionItem, *models.NutritionItem]{
	Kind:    policy.KindNutritionItem,
	Columns: []string{"meal_id", "food", "portion", "macros"},
	OrderBy: "t.meal_id, t.created_at",
	Refs: []Ref[*models.NutritionItem]{
		{Kind: policy.KindNutritionMeal, ID: func(i *models.NutritionItem) string { return i.MealID }},
	},
}

var Challenges = &Catalogue[models.Challenge, *models.Challenge]{
	Kind:    policy.KindChallenge,
	Columns: []string{"gym_id", "name", "description", "type", "start_date", "end_date", "reward_points", "goal_value", "status"},
	OrderBy: "t.start_date DESC",
	Transition: func(before, after *models.Challenge) error {
		return transition(models.ChallengeTransitions, before.Status, &after.Status)
	},
}

var Badges = &Catalogue[models.Badge, *models.Badge]{
	Kind:    policy.KindBadge,
	Columns: []string{"gym_id", "name", "description", "icon", "condition"},
	OrderBy: "t.name",
}

var SubscriptionPlans = &Catalogue[models.SubscriptionPlan, *models.SubscriptionPlan]{
	Kind:    policy.KindSubscriptionPlan,
	Columns: []string{"name", "description", "price", "currency", "billing_cycle", "user_limit", "features", "is_active"},
	OrderBy: "t.price",
}
