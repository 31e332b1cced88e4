package policy

// Kind names a resource family guarded by the policy table.
type Kind string

const (
	KindGym                 Kind = "gym"
	KindBranch              Kind = "branch"
	KindExercise            Kind = "exercise"
	KindRoutine             Kind = "routine"
	KindRoutineExercise     Kind = "routine_exercise"
	KindSession             Kind = "workout_session"
	KindNutritionPlan       Kind = "nutrition_plan"
	KindMealTemplate        Kind = "meal_template"
	KindNutritionMeal       Kind = "nutrition_meal"
	KindNutritionItem       Kind = "nutrition_item"
	KindMealLog             Kind = "meal_log"
	KindNutritionAssignment Kind = "nutrition_assignment"
	KindChallenge           Kind = "challenge"
	KindParticipation       Kind = "challenge_participation"
	KindBadge               Kind = "badge"
	KindUserBadge           Kind = "user_badge"
	KindSubscriptionPlan    Kind = "subscription_plan"
	KindSubscription        Kind = "subscription"
	KindPayment             Kind = "payment"
	KindUser                Kind = "user"
)

// KindSpec describes where a kind keeps its tenant, owner and
// athlete-visibility columns relative to its root table.
type KindSpec struct {
	Table string
	// Tenant locates the owning gym. Zero for kinds shared by every tenant.
	Tenant Path
	// Global means a NULL tenant is visible to every principal.
	Global bool
	// Owner locates the owning user for per-user records.
	Owner Path
	// GymWide lists the roles that see every owned record of their gym.
	// Empty means gym admins and coaches.
	GymWide []Role
	// Status and Visible gate what athletes may see.
	Status  Path
	Visible any
}

func (s KindSpec) gymWide(role Role) bool {
	if len(s.GymWide) == 0 {
		return role.IsStaff()
	}
	for _, r := range s.GymWide {
		if r == role {
			return true
		}
	}
	return false
}

var (
	viaPlan         = Hop{Table: "nutrition_plans", ForeignKey: "plan_id"}
	viaMeal         = Hop{Table: "nutrition_meals", ForeignKey: "meal_id"}
	viaRoutine      = Hop{Table: "workout_routines", ForeignKey: "routine_id"}
	viaUser         = Hop{Table: "users", ForeignKey: "user_id"}
	viaChallenge    = Hop{Table: "challenges", ForeignKey: "challenge_id"}
	viaBadge        = Hop{Table: "badges", ForeignKey: "badge_id"}
	viaSubscription = Hop{Table: "subscriptions", ForeignKey: "subscription_id"}
)

// Specs is the visibility layout of every kind.
var Specs = map[Kind]KindSpec{
	KindGym:    {Table: "gyms", Tenant: Col("id")},
	KindBranch: {Table: "branches", Tenant: Col("gym_id"), Status: Col("status"), Visible: "active"},
	KindExercise: {
		Table: "exercises", Tenant: Col("gym_id"), Global: true,
	},
	KindRoutine: {
		Table: "workout_routines", Tenant: Col("gym_id"), Global: true,
		Status: Col("status"), Visible: "published",
	},
	KindRoutineExercise: {
		Table: "routine_exercises", Tenant: Via("gym_id", viaRoutine), Global: true,
		Status: Via("status", viaRoutine), Visible: "published",
	},
	KindSession: {
		Table: "workout_sessions", Tenant: Col("gym_id"), Owner: Col("user_id"),
	},
	KindNutritionPlan: {
		Table: "nutrition_plans", Tenant: Col("gym_id"), Global: true,
		Status: Col("status"), Visible: "active",
	},
	KindMealTemplate: {
		Table: "meal_templates", Tenant: Via("gym_id", viaPlan), Global: true,
		Status: Via("status", viaPlan), Visible: "active",
	},
	KindNutritionMeal: {
		Table: "nutrition_meals", Tenant: Via("gym_id", viaPlan), Global: true,
		Status: Via("status", viaPlan), Visible: "active",
	},
	KindNutritionItem: {
		Table: "nutrition_items", Tenant: Via("gym_id", viaMeal, viaPlan), Global: true,
		Status: Via("status", viaMeal, viaPlan), Visible: "active",
	},
	KindMealLog: {
		Table: "user_meal_logs", Tenant: Via("gym_id", viaUser), Owner: Col("user_id"),
	},
	KindNutritionAssignment: {
		Table: "user_nutrition_plans", Tenant: Via("gym_id", viaUser), Owner: Col("user_id"),
	},
	KindChallenge: {
		Table: "challenges", Tenant: Col("gym_id"), Global: true,
		Status: Col("status"), Visible: "active",
	},
	KindParticipation: {
		Table: "challenge_participations", Tenant: Via("gym_id", viaChallenge), Owner: Col("user_id"),
	},
	KindBadge: {Table: "badges", Tenant: Col("gym_id"), Global: true},
	KindUserBadge: {
		Table: "user_badges", Tenant: Via("gym_id", viaBadge), Owner: Col("user_id"),
	},
	KindSubscriptionPlan: {Table: "subscription_plans", Status: Col("is_active"), Visible: true},
	KindSubscription: {
		Table: "subscriptions", Tenant: Col("owner_gym_id"), Owner: Col("owner_user_id"),
		GymWide: []Role{RoleGymAdmin},
	},
	KindPayment: {
		Table: "payments", Tenant: Via("owner_gym_id", viaSubscription), Owner: Via("owner_user_id", viaSubscription),
		GymWide: []Role{RoleGymAdmin},
	},
	KindUser: {Table: "users", Tenant: Col("gym_id"), Owner: Col("id")},
}
