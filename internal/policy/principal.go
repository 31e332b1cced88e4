package policy

import "strings"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleGymAdmin   Role = "gym_admin"
	RoleCoach      Role = "coach"
	RoleAthlete    Role = "athlete"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleGymAdmin:
		return RoleGymAdmin, true
	case RoleCoach:
		return RoleCoach, true
	case RoleAthlete:
		return RoleAthlete, true
	}
	return "", false
}

// IsStaff reports whether the role manages gym resources (gym admin or coach).
func (r Role) IsStaff() bool {
	return r == RoleGymAdmin || r == RoleCoach
}

// Principal is the authenticated caller as supplied by the auth layer.
type Principal struct {
	ID    string
	Role  Role
	GymID *string
}

func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}

func (p Principal) HasGym() bool {
	return p.GymID != nil && *p.GymID != ""
}

// Gym returns the principal's gym id or "" when unassigned.
func (p Principal) Gym() string {
	if !p.HasGym() {
		return ""
	}
	return *p.GymID
}

// InGym reports whether gymID names the principal's own gym. A nil gymID
// never matches.
func (p Principal) InGym(gymID *string) bool {
	return gymID != nil && p.HasGym() && *gymID == *p.GymID
}
