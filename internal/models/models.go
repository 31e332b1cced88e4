package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Base carries the columns shared by every catalogue table.
type Base struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (b *Base) GetID() string   { return b.ID }
func (b *Base) SetID(id string) { b.ID = id }

func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Stamp sets both timestamps for a new row, whatever the payload carried.
func (b *Base) Stamp(now time.Time) {
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Tenant is the optional owning gym; nil means shared by every gym.
type Tenant struct {
	GymID *string `db:"gym_id" json:"gymId"`
}

func (t *Tenant) GetGymID() *string     { return t.GymID }
func (t *Tenant) SetGymID(gymID *string) { t.GymID = gymID }

type User struct {
	ID         string     `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	FirstName  string     `db:"first_name" json:"firstName"`
	LastName   string     `db:"last_name" json:"lastName"`
	Role       string     `db:"role" json:"role"`
	GymID      *string    `db:"gym_id" json:"gymId"`
	Points     int        `db:"points" json:"points"`
	Level      int        `db:"level" json:"level"`
	LastSeenAt *time.Time `db:"last_seen_at" json:"lastSeenAt"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

type Gym struct {
	Base
	Name         string `db:"name" json:"name" validate:"required,max=255"`
	Slug         string `db:"slug" json:"slug" validate:"required,max=255"`
	Description  string `db:"description" json:"description"`
	Location     string `db:"location" json:"location" validate:"max=255"`
	Status       string `db:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	BrandColor   string `db:"brand_color" json:"brandColor" validate:"omitempty,hexcolor"`
	Website      string `db:"website" json:"website" validate:"omitempty,url"`
	ContactEmail string `db:"contact_email" json:"contactEmail" validate:"omitempty,email"`
}

// GetGymID treats the gym as its own tenant.
func (g *Gym) GetGymID() *string {
	if g.ID == "" {
		return nil
	}
	id := g.ID
	return &id
}

func (g *Gym) SetGymID(*string) {}

type Branch struct {
	Base
	Tenant
	Name    string `db:"name" json:"name" validate:"required,max=255"`
	Slug    string `db:"slug" json:"slug" validate:"required,max=255"`
	Address string `db:"address" json:"address" validate:"required,max=255"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	Country string `db:"country" json:"country"`
	Zipcode string `db:"zipcode" json:"zipcode" validate:"max=20"`
	Status  string `db:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	Phone   string `db:"phone" json:"phone" validate:"max=30"`
}

func (b *Branch) Published() bool { return ActiveStatus(b.Status) == StatusActive }

type Exercise struct {
	Base
	Tenant
	Name        string `db:"name" json:"name" validate:"required,max=255"`
	Category    string `db:"category" json:"category" validate:"omitempty,oneof=strength cardio mobility flexibility hiit"`
	Equipment   string `db:"equipment" json:"equipment"`
	MuscleGroup string `db:"muscle_group" json:"muscleGroup"`
	Description string `db:"description" json:"description"`
	MediaURL    string `db:"media_url" json:"mediaUrl" validate:"omitempty,url"`
}

type WorkoutRoutine struct {
	Base
	Tenant
	Name            string  `db:"name" json:"name" validate:"required,max=255"`
	Objective       string  `db:"objective" json:"objective"`
	Level           string  `db:"level" json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes int     `db:"duration_minutes" json:"durationMinutes" validate:"gte=0"`
	Status          string  `db:"status" json:"status" validate:"omitempty,oneof=draft published archived"`
	PointsReward    int     `db:"points_reward" json:"pointsReward" validate:"gte=0"`
	CreatedBy       *string `db:"created_by" json:"createdBy"`
	IsPublic        bool    `db:"is_public" json:"isPublic"`
	Notes           string  `db:"notes" json:"notes"`
}

func (r *WorkoutRoutine) Published() bool { return RoutineStatus(r.Status) == RoutinePublished }

type RoutineExercise struct {
	Base
	RoutineID   string   `db:"routine_id" json:"routineId" validate:"required"`
	ExerciseID  string   `db:"exercise_id" json:"exerciseId" validate:"required"`
	Position    int      `db:"position" json:"position" validate:"gte=0"`
	Sets        int      `db:"sets" json:"sets" validate:"gte=0"`
	Reps        int      `db:"reps" json:"reps" validate:"gte=0"`
	RestSeconds int      `db:"rest_seconds" json:"restSeconds" validate:"gte=0"`
	Tempo       string   `db:"tempo" json:"tempo" validate:"max=50"`
	WeightKg    *float64 `db:"weight_kg" json:"weightKg"`
}

func (r *RoutineExercise) ParentID() string { return r.RoutineID }

type WorkoutSession struct {
	Base
	UserID               string        `db:"user_id" json:"userId"`
	GymID                *string       `db:"gym_id" json:"gymId"`
	RoutineID            *string       `db:"routine_id" json:"routineId"`
	PerformedAt          time.Time     `db:"performed_at" json:"performedAt" validate:"required"`
	DurationMinutes      int           `db:"duration_minutes" json:"durationMinutes" validate:"gte=0"`
	PerceivedExertion    int           `db:"perceived_exertion" json:"perceivedExertion" validate:"gte=0,lte=10"`
	CompletionPercentage float64       `db:"completion_percentage" json:"completionPercentage" validate:"gte=0,lte=100"`
	Notes                string        `db:"notes" json:"notes"`
	Status               SessionStatus `db:"status" json:"status"`
	PointsAwarded        int           `db:"points_awarded" json:"pointsAwarded"`
}

type NutritionPlan struct {
	Base
	Tenant
	Name           string `db:"name" json:"name" validate:"required,max=255"`
	Description    string `db:"description" json:"description"`
	CaloriesPerDay int    `db:"calories_per_day" json:"caloriesPerDay" validate:"gte=0"`
	ProteinG       int    `db:"protein_g" json:"proteinG" validate:"gte=0"`
	CarbsG         int    `db:"carbs_g" json:"carbsG" validate:"gte=0"`
	FatsG          int    `db:"fats_g" json:"fatsG" validate:"gte=0"`
	DurationDays   int    `db:"duration_days" json:"durationDays" validate:"gte=0"`
	Status         string `db:"status" json:"status" validate:"omitempty,oneof=draft active archived"`
	PointsReward   int    `db:"points_reward" json:"pointsReward" validate:"gte=0"`
}

func (p *NutritionPlan) Published() bool { return PlanStatus(p.Status) == PlanActive }

type MealTemplate struct {
	Base
	PlanID       string `db:"plan_id" json:"planId" validate:"required"`
	DayNumber    int    `db:"day_number" json:"dayNumber" validate:"gte=0"`
	MealType     string `db:"meal_type" json:"mealType" validate:"required,oneof=breakfast lunch dinner snack"`
	Name         string `db:"name" json:"name" validate:"required,max=255"`
	Description  string `db:"description" json:"description"`
	Calories     int    `db:"calories" json:"calories" validate:"gte=0"`
	ProteinG     int    `db:"protein_g" json:"proteinG" validate:"gte=0"`
	CarbsG       int    `db:"carbs_g" json:"carbsG" validate:"gte=0"`
	FatsG        int    `db:"fats_g" json:"fatsG" validate:"gte=0"`
	Ingredients  string `db:"ingredients" json:"ingredients"`
	Instructions string `db:"instructions" json:"instructions"`
	Position     int    `db:"position" json:"position" validate:"gte=0"`
}

func (m *MealTemplate) ParentID() string { return m.PlanID }

type NutritionMeal struct {
	Base
	PlanID   string `db:"plan_id" json:"planId" validate:"required"`
	Position int    `db:"position" json:"position" validate:"gte=0"`
	Name     string `db:"name" json:"name" validate:"required,max=255"`
	MealTime string `db:"meal_time" json:"mealTime" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Notes    string `db:"notes" json:"notes"`
}

func (m *NutritionMeal) ParentID() string { return m.PlanID }

type NutritionItem struct {
	Base
	MealID  string         `db:"meal_id" json:"mealId" validate:"required"`
	Food    string         `db:"food" json:"food" validate:"required,max=255"`
	Portion string         `db:"portion" json:"portion" validate:"required,max=120"`
	Macros  types.JSONText `db:"macros" json:"macros"`
}

func (i *NutritionItem) ParentID() string { return i.MealID }

type UserMealLog struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	MealTemplateID string    `db:"meal_template_id" json:"mealTemplateId"`
	LogDate        time.Time `db:"log_date" json:"date"`
	Completed      bool      `db:"completed" json:"completed"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type NutritionAssignment struct {
	ID                   string           `db:"id" json:"id"`
	UserID               string           `db:"user_id" json:"userId"`
	PlanID               string           `db:"plan_id" json:"planId"`
	AssignedBy           *string          `db:"assigned_by" json:"assignedBy"`
	StartDate            time.Time        `db:"start_date" json:"startDate"`
	EndDate              *time.Time       `db:"end_date" json:"endDate"`
	Status               AssignmentStatus `db:"status" json:"status"`
	CompliancePercentage float64          `db:"compliance_percentage" json:"compliancePercentage"`
	Version              int              `db:"version" json:"version"`
	CreatedAt            time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updatedAt"`
}

type Challenge struct {
	Base
	Tenant
	Name         string    `db:"name" json:"name" validate:"required,max=255"`
	Description  string    `db:"description" json:"description"`
	Type         string    `db:"type" json:"type" validate:"omitempty,oneof=attendance distance workouts nutrition mixed"`
	StartDate    time.Time `db:"start_date" json:"startDate" validate:"required"`
	EndDate      time.Time `db:"end_date" json:"endDate" validate:"required,gtefield=StartDate"`
	RewardPoints int       `db:"reward_points" json:"rewardPoints" validate:"gte=0"`
	GoalValue    int       `db:"goal_value" json:"goalValue" validate:"gte=0"`
	Status       string    `db:"status" json:"status" validate:"omitempty,oneof=draft active completed archived"`
}

func (c *Challenge) Published() bool { return ChallengeStatus(c.Status) == ChallengeActive }

type ChallengeParticipation struct {
	ID           string              `db:"id" json:"id"`
	ChallengeID  string              `db:"challenge_id" json:"challengeId"`
	UserID       string              `db:"user_id" json:"userId"`
	Progress     int                 `db:"progress" json:"progress"`
	Status       ParticipationStatus `db:"status" json:"status"`
	PointsEarned int                 `db:"points_earned" json:"pointsEarned"`
	CreatedAt    time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time           `db:"updated_at" json:"lastUpdate"`
}

type Badge struct {
	Base
	Tenant
	Name        string `db:"name" json:"name" validate:"required,max=120"`
	Description string `db:"description" json:"description"`
	Icon        string `db:"icon" json:"icon"`
	Condition   string `db:"condition" json:"condition" validate:"required,max=255"`
}

type UserBadge struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	BadgeID   string    `db:"badge_id" json:"badgeId"`
	AwardedAt time.Time `db:"awarded_at" json:"awardedAt"`
}

type SubscriptionPlan struct {
	Base
	Name         string         `db:"name" json:"name" validate:"required,max=100"`
	Description  string         `db:"description" json:"description"`
	Price        float64        `db:"price" json:"price" validate:"gte=0"`
	Currency     string         `db:"currency" json:"currency" validate:"omitempty,len=3"`
	BillingCycle string         `db:"billing_cycle" json:"billingCycle" validate:"omitempty,oneof=monthly annual custom"`
	UserLimit    *int           `db:"user_limit" json:"userLimit"`
	Features     types.JSONText `db:"features" json:"features"`
	IsActive     bool           `db:"is_active" json:"isActive"`
}

func (p *SubscriptionPlan) Published() bool { return p.IsActive }

type Subscription struct {
	ID                string             `db:"id" json:"id"`
	OwnerGymID        *string            `db:"owner_gym_id" json:"ownerGymId"`
	OwnerUserID       *string            `db:"owner_user_id" json:"ownerUserId"`
	PlanID            string             `db:"plan_id" json:"planId"`
	Status            SubscriptionStatus `db:"status" json:"status"`
	StartDate         time.Time          `db:"start_date" json:"startDate"`
	EndDate           *time.Time         `db:"end_date" json:"endDate"`
	NextBillingDate   *time.Time         `db:"next_billing_date" json:"nextBillingDate"`
	CancelAtPeriodEnd bool               `db:"cancel_at_period_end" json:"cancelAtPeriodEnd"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updatedAt"`
}

type Payment struct {
	ID             string    `db:"id" json:"id"`
	SubscriptionID string    `db:"subscription_id" json:"subscriptionId"`
	Amount         float64   `db:"amount" json:"amount"`
	Currency       string    `db:"currency" json:"currency"`
	Status         string    `db:"status" json:"status"`
	PaidAt         time.Time `db:"paid_at" json:"paidAt"`
	Provider       string    `db:"provider" json:"provider"`
	ExternalID     string    `db:"external_id" json:"externalId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// PointsEntry is one append-only row of the points ledger.
type PointsEntry struct {
	ID                     string    `db:"id" json:"id"`
	UserID                 string    `db:"user_id" json:"userId"`
	Points                 int       `db:"points" json:"points"`
	Source                 string    `db:"source" json:"source"`
	Description            string    `db:"description" json:"description"`
	RelatedChallengeID     *string   `db:"related_challenge_id" json:"relatedChallengeId"`
	RelatedNutritionPlanID *string   `db:"related_nutrition_plan_id" json:"relatedNutritionPlanId"`
	RelatedSessionID       *string   `db:"related_session_id" json:"relatedSessionId"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
}

func defaultString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func defaultJSON(v *types.JSONText) {
	if len(*v) == 0 {
		*v = types.JSONText("{}")
	}
}

func (g *Gym) ApplyDefaults()             { defaultString(&g.Status, string(StatusActive)) }
func (b *Branch) ApplyDefaults()          { defaultString(&b.Status, string(StatusActive)) }
func (r *WorkoutRoutine) ApplyDefaults()  { defaultString(&r.Status, string(RoutineDraft)) }
func (p *NutritionPlan) ApplyDefaults()   { defaultString(&p.Status, string(PlanDraft)) }
func (c *Challenge) ApplyDefaults()       { defaultString(&c.Status, string(ChallengeDraft)) }
func (i *NutritionItem) ApplyDefaults()   { defaultJSON(&i.Macros) }

func (p *SubscriptionPlan) ApplyDefaults() {
	defaultJSON(&p.Features)
	defaultString(&p.Currency, "USD")
	defaultString(&p.BillingCycle, "monthly")
}
