package policy

var (
	staffRoles = []Role{RoleGymAdmin, RoleCoach}
	allRoles   = []Role{RoleGymAdmin, RoleCoach, RoleAthlete}
)

func (t Table) setMany(roles []Role, kind Kind, rule Rule, actions ...Action) {
	for _, role := range roles {
		for _, action := range actions {
			t.Set(role, kind, action, rule)
		}
	}
}

// catalogue registers a tenant catalogue kind: staff manage their gym's
// records and read global ones, athletes read published records only.
func (t Table) catalogue(kind Kind) {
	t.setMany(allRoles, kind, Always, ActionList)
	t.setMany(staffRoles, kind, InScope, ActionRead)
	t.setMany(staffRoles, kind, SameGym, ActionCreate, ActionUpdate, ActionDelete)
	t.Set(RoleAthlete, kind, ActionRead, Published)
}

// owned registers a per-user kind: staff act on records of their gym,
// everyone acts on their own records.
func (t Table) owned(kind Kind, actions ...Action) {
	t.setMany(allRoles, kind, Always, ActionList)
	t.setMany(staffRoles, kind, AnyOf(SameGym, Owner), ActionRead)
	t.Set(RoleAthlete, kind, ActionRead, Owner)
	t.setMany(staffRoles, kind, AnyOf(SameGym, Owner), actions...)
	for _, action := range actions {
		t.Set(RoleAthlete, kind, action, Owner)
	}
}

// DefaultTable is the platform policy. Super admins bypass it entirely.
func DefaultTable() Table {
	t := Table{}

	t.catalogue(KindExercise)
	t.catalogue(KindRoutine)
	t.catalogue(KindRoutineExercise)
	t.catalogue(KindNutritionPlan)
	t.catalogue(KindMealTemplate)
	t.catalogue(KindNutritionMeal)
	t.catalogue(KindNutritionItem)
	t.catalogue(KindChallenge)
	t.catalogue(KindBadge)

	t.setMany(staffRoles, KindChallenge, InScope, ActionJoin)
	t.Set(RoleAthlete, KindChallenge, ActionJoin, Published)
	t.setMany(staffRoles, KindNutritionPlan, InScope, ActionStart, ActionAssign)
	t.Set(RoleAthlete, KindNutritionPlan, ActionStart, Published)

	t.setMany(allRoles, KindGym, Always, ActionList)
	t.setMany(allRoles, KindGym, SameGym, ActionRead)
	t.Set(RoleGymAdmin, KindGym, ActionUpdate, SameGym)

	t.setMany(allRoles, KindBranch, Always, ActionList)
	t.setMany(staffRoles, KindBranch, SameGym, ActionRead)
	t.Set(RoleAthlete, KindBranch, ActionRead, Published)
	t.setMany([]Role{RoleGymAdmin}, KindBranch, SameGym, ActionCreate, ActionUpdate, ActionDelete)

	t.owned(KindSession, ActionUpdate, ActionDelete)
	t.setMany(staffRoles, KindSession, SameGym, ActionCreate)
	t.Set(RoleAthlete, KindSession, ActionCreate, Owner)

	t.owned(KindMealLog, ActionToggle)

	t.owned(KindNutritionAssignment, ActionUpdate, ActionComplete)
	t.setMany(staffRoles, KindNutritionAssignment, SameGym, ActionCreate, ActionDelete)

	t.owned(KindParticipation, ActionUpdate, ActionDelete)

	t.owned(KindUserBadge)
	t.setMany(staffRoles, KindUserBadge, InScope, ActionCreate, ActionDelete)

	t.setMany(allRoles, KindSubscriptionPlan, Always, ActionList)
	t.setMany(allRoles, KindSubscriptionPlan, Published, ActionRead)

	t.setMany(allRoles, KindSubscription, Always, ActionList, ActionCreate)
	t.Set(RoleGymAdmin, KindSubscription, ActionRead, AnyOf(SameGym, Owner))
	t.Set(RoleGymAdmin, KindSubscription, ActionUpdate, AnyOf(SameGym, Owner))
	t.setMany([]Role{RoleCoach, RoleAthlete}, KindSubscription, Owner, ActionRead, ActionUpdate)

	t.setMany(allRoles, KindPayment, Always, ActionList)
	t.Set(RoleGymAdmin, KindPayment, ActionRead, AnyOf(SameGym, Owner))
	t.setMany([]Role{RoleCoach, RoleAthlete}, KindPayment, Owner, ActionRead)

	t.setMany(allRoles, KindUser, Always, ActionList)
	t.setMany(staffRoles, KindUser, AnyOf(SameGym, Owner), ActionRead)
	t.Set(RoleAthlete, KindUser, ActionRead, Owner)

	return t
}
