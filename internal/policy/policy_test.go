package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gym(id string) *string {
	return &id
}

func TestSuperAdminAllowedEverywhere(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	p := Principal{ID: "root", Role: RoleSuperAdmin}
	for kind := range Specs {
		for _, action := range []Action{ActionList, ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionComplete} {
			d := e.Evaluate(p, kind, action, &Target{GymID: gym("elsewhere")})
			assert.True(t, d.Allowed, "%s %s", kind, action)
		}
	}
}

func TestGymAdminCannotUpdateChallengeOfAnotherGym(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	admin := Principal{ID: "a3", Role: RoleGymAdmin, GymID: gym("3")}

	err := e.Authorize(admin, KindChallenge, ActionUpdate, &Target{GymID: gym("5")})
	require.Error(t, err)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, KindChallenge, denied.Kind)
	assert.Equal(t, ActionUpdate, denied.Action)

	assert.NoError(t, e.Authorize(admin, KindChallenge, ActionUpdate, &Target{GymID: gym("3")}))
}

func TestStaffCannotMutateGlobalCatalogue(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	coach := Principal{ID: "c1", Role: RoleCoach, GymID: gym("3")}

	assert.True(t, e.Evaluate(coach, KindExercise, ActionRead, &Target{}).Allowed)
	assert.False(t, e.Evaluate(coach, KindExercise, ActionUpdate, &Target{}).Allowed)
	assert.False(t, e.Evaluate(coach, KindExercise, ActionDelete, &Target{}).Allowed)
}

func TestPrincipalWithoutGymCannotMutateTenantResources(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	for _, role := range []Role{RoleGymAdmin, RoleCoach} {
		p := Principal{ID: "x", Role: role}
		for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
			d := e.Evaluate(p, KindRoutine, action, &Target{GymID: nil})
			assert.False(t, d.Allowed, "%s %s", role, action)
			assert.Equal(t, "not permitted", d.Reason)
		}
	}
}

func TestAthleteReadsOnlyPublishedCatalogue(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	athlete := Principal{ID: "u1", Role: RoleAthlete, GymID: gym("7")}

	tests := []struct {
		name   string
		target Target
		want   bool
	}{
		{"own gym published", Target{GymID: gym("7"), Visible: true}, true},
		{"global published", Target{Visible: true}, true},
		{"own gym draft", Target{GymID: gym("7")}, false},
		{"other gym published", Target{GymID: gym("8"), Visible: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.target
			assert.Equal(t, tt.want, e.Evaluate(athlete, KindRoutine, ActionRead, &target).Allowed)
		})
	}
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		assert.False(t, e.Evaluate(athlete, KindRoutine, action, &Target{GymID: gym("7"), Visible: true}).Allowed)
	}
}

func TestOwnershipRules(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	athlete := Principal{ID: "u1", Role: RoleAthlete, GymID: gym("7")}
	coach := Principal{ID: "c1", Role: RoleCoach, GymID: gym("7")}

	mine := &Target{GymID: gym("7"), OwnerID: "u1"}
	theirs := &Target{GymID: gym("7"), OwnerID: "u2"}
	foreign := &Target{GymID: gym("9"), OwnerID: "u9"}

	for _, kind := range []Kind{KindSession, KindParticipation} {
		for _, action := range []Action{ActionUpdate, ActionDelete} {
			assert.True(t, e.Evaluate(athlete, kind, action, mine).Allowed, "%s %s", kind, action)
			assert.False(t, e.Evaluate(athlete, kind, action, theirs).Allowed, "%s %s", kind, action)
			assert.True(t, e.Evaluate(coach, kind, action, theirs).Allowed, "%s %s", kind, action)
			assert.False(t, e.Evaluate(coach, kind, action, foreign).Allowed, "%s %s", kind, action)
		}
	}
	assert.True(t, e.Evaluate(athlete, KindMealLog, ActionToggle, mine).Allowed)
	assert.False(t, e.Evaluate(athlete, KindNutritionAssignment, ActionDelete, mine).Allowed)
	assert.True(t, e.Evaluate(athlete, KindNutritionAssignment, ActionComplete, mine).Allowed)
}

func TestUnknownEntriesDeny(t *testing.T) {
	e := NewEvaluator(DefaultTable())
	coach := Principal{ID: "c1", Role: RoleCoach, GymID: gym("7")}

	d := e.Evaluate(coach, KindBranch, ActionCreate, &Target{GymID: gym("7")})
	assert.False(t, d.Allowed)
	assert.False(t, e.Evaluate(coach, KindSubscriptionPlan, ActionCreate, &Target{}).Allowed)
	assert.False(t, e.Evaluate(Principal{ID: "x", Role: Role("guest")}, KindExercise, ActionList, nil).Allowed)
}

func TestAnyOfReportsFirstReason(t *testing.T) {
	rule := AnyOf(SameGym, Owner)
	d := rule.Check(Principal{ID: "u1", Role: RoleCoach, GymID: gym("1")}, Target{GymID: gym("2"), OwnerID: "u2"})
	assert.False(t, d.Allowed)
	assert.Equal(t, "resource belongs to another gym", d.Reason)
}
