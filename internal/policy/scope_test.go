package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	path := Col("gym_id")

	all := BuildFilter(Principal{ID: "s", Role: RoleSuperAdmin}, path)
	assert.True(t, all.IsMatchAll())

	withGym := BuildFilter(Principal{ID: "c", Role: RoleCoach, GymID: gym("7")}, path)
	assert.Equal(t, "t.gym_id IS NULL OR t.gym_id = ?", withGym.Clause)
	assert.Equal(t, []any{"7"}, withGym.Args)

	noGym := BuildFilter(Principal{ID: "a", Role: RoleAthlete}, path)
	assert.Equal(t, "t.gym_id IS NULL", noGym.Clause)
	assert.Empty(t, noGym.Args)
}

func TestBuildFilterThroughThreeHops(t *testing.T) {
	path := Via("gym_id",
		Hop{Table: "nutrition_items", ForeignKey: "item_id"},
		Hop{Table: "nutrition_meals", ForeignKey: "meal_id"},
		Hop{Table: "nutrition_plans", ForeignKey: "plan_id"},
	)
	pred := BuildFilter(Principal{ID: "c", Role: RoleCoach, GymID: gym("3")}, path)

	require.Len(t, pred.Joins, 3)
	assert.Equal(t, "JOIN nutrition_items h1_nutrition_items ON h1_nutrition_items.id = t.item_id", pred.Joins[0])
	assert.Equal(t, "JOIN nutrition_meals h2_nutrition_meals ON h2_nutrition_meals.id = h1_nutrition_items.meal_id", pred.Joins[1])
	assert.Equal(t, "JOIN nutrition_plans h3_nutrition_plans ON h3_nutrition_plans.id = h2_nutrition_meals.plan_id", pred.Joins[2])
	assert.Equal(t, "h3_nutrition_plans.gym_id IS NULL OR h3_nutrition_plans.gym_id = ?", pred.Clause)
}

func TestScopeAthleteIntersectsStatus(t *testing.T) {
	athlete := Principal{ID: "u1", Role: RoleAthlete, GymID: gym("7")}

	pred := Scope(athlete, KindNutritionItem)
	assert.Len(t, pred.Joins, 2, "gym and status share the meal->plan joins")
	assert.Equal(t,
		"(h2_nutrition_plans.gym_id IS NULL OR h2_nutrition_plans.gym_id = ?) AND (h2_nutrition_plans.status = ?)",
		pred.Clause)
	assert.Equal(t, []any{"7", "active"}, pred.Args)

	coach := Principal{ID: "c1", Role: RoleCoach, GymID: gym("7")}
	assert.Equal(t, "h2_nutrition_plans.gym_id IS NULL OR h2_nutrition_plans.gym_id = ?", Scope(coach, KindNutritionItem).Clause)
}

func TestScopeOwnedKinds(t *testing.T) {
	athlete := Principal{ID: "u1", Role: RoleAthlete, GymID: gym("7")}
	coach := Principal{ID: "c1", Role: RoleCoach, GymID: gym("7")}
	loneCoach := Principal{ID: "c2", Role: RoleCoach}

	own := Scope(athlete, KindSession)
	assert.Equal(t, "t.user_id = ?", own.Clause)
	assert.Equal(t, []any{"u1"}, own.Args)

	staff := Scope(coach, KindSession)
	assert.Equal(t, "(t.gym_id = ?) OR (t.user_id = ?)", staff.Clause)
	assert.Equal(t, []any{"7", "c1"}, staff.Args)

	assert.Equal(t, "t.user_id = ?", Scope(loneCoach, KindSession).Clause)

	sub := Scope(coach, KindSubscription)
	assert.Equal(t, "t.owner_user_id = ?", sub.Clause, "coaches see only their own subscriptions")
}

func TestScopeTenantIsolation(t *testing.T) {
	for kind, spec := range Specs {
		if spec.Tenant.IsZero() || !spec.Owner.IsZero() {
			continue
		}
		for _, role := range allRoles {
			p := Principal{ID: "p", Role: role, GymID: gym("G")}
			pred := Scope(p, kind)
			for _, arg := range pred.Args {
				if s, ok := arg.(string); ok && s != "G" && s != spec.Visible {
					t.Fatalf("%s/%s leaks arg %q", kind, role, s)
				}
			}
			assert.Contains(t, pred.Clause, spec.Tenant.Ref()+" = ?", "%s/%s", kind, role)
		}
	}
}

func TestScopeWithoutGym(t *testing.T) {
	p := Principal{ID: "a", Role: RoleAthlete}
	assert.Equal(t, "(FALSE) AND (t.status = ?)", Scope(p, KindBranch).Clause)
	assert.Equal(t, "FALSE", Scope(p, KindGym).Clause)
	assert.Equal(t, "(t.gym_id IS NULL) AND (t.status = ?)", Scope(p, KindChallenge).Clause)
}

func TestScopeSharedCatalogue(t *testing.T) {
	p := Principal{ID: "c", Role: RoleCoach, GymID: gym("1")}
	pred := Scope(p, KindSubscriptionPlan)
	assert.Equal(t, "t.is_active = ?", pred.Clause)
	assert.Equal(t, []any{true}, pred.Args)
	assert.True(t, Scope(Principal{Role: RoleSuperAdmin}, KindSubscriptionPlan).IsMatchAll())
}

func TestPathResolveSQL(t *testing.T) {
	path := Via("gym_id", Hop{Table: "nutrition_meals", ForeignKey: "meal_id"}, Hop{Table: "nutrition_plans", ForeignKey: "plan_id"})

	assert.Equal(t,
		"SELECT h2_nutrition_plans.gym_id FROM nutrition_items t JOIN nutrition_meals h1_nutrition_meals ON h1_nutrition_meals.id = t.meal_id JOIN nutrition_plans h2_nutrition_plans ON h2_nutrition_plans.id = h1_nutrition_meals.plan_id WHERE t.id = ?",
		path.ResolveSQL("nutrition_items"))

	q, ok := path.FromFirstHop()
	require.True(t, ok)
	assert.Equal(t,
		"SELECT h1_nutrition_plans.gym_id FROM nutrition_meals t JOIN nutrition_plans h1_nutrition_plans ON h1_nutrition_plans.id = t.plan_id WHERE t.id = ?",
		q)

	_, ok = Col("gym_id").FromFirstHop()
	assert.False(t, ok)
}

func TestPredicateComposition(t *testing.T) {
	p := Where("t.a = ?", 1).And(Where("t.b = ?", 2))
	assert.Equal(t, "(t.a = ?) AND (t.b = ?)", p.Clause)
	assert.Equal(t, []any{1, 2}, p.Args)
	assert.Equal(t, "WHERE (t.a = ?) AND (t.b = ?)\n", p.WhereSQL())

	assert.Equal(t, "t.a = ?", MatchAll().And(Where("t.a = ?", 1)).Clause)
	assert.True(t, MatchAll().Or(Where("t.a = ?", 1)).IsMatchAll())
	assert.Equal(t, "", MatchAll().WhereSQL())
}

func TestTargetSQL(t *testing.T) {
	q, args, ok := TargetSQL(KindMealTemplate)
	require.True(t, ok)
	assert.Equal(t,
		"SELECT h1_nutrition_plans.gym_id::text AS gym_id, NULL AS owner_id, COALESCE(h1_nutrition_plans.status = ?, FALSE) AS visible\n"+
			"FROM meal_templates t\n"+
			"JOIN nutrition_plans h1_nutrition_plans ON h1_nutrition_plans.id = t.plan_id\n"+
			"WHERE t.id = ?",
		q)
	assert.Equal(t, []any{"active"}, args)

	q, args, ok = TargetSQL(KindSession)
	require.True(t, ok)
	assert.Contains(t, q, "SELECT t.gym_id::text AS gym_id, t.user_id::text AS owner_id, TRUE AS visible")
	assert.Empty(t, args)

	q, _, _ = TargetSQL(KindSubscriptionPlan)
	assert.Contains(t, q, "SELECT NULL AS gym_id")

	_, _, ok = TargetSQL(Kind("nope"))
	assert.False(t, ok)
}
