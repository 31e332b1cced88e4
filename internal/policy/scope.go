package policy

import (
	"strconv"
	"strings"
)

// RootAlias is the alias every scoped query must give its root table.
const RootAlias = "t"

// Hop is one foreign-key step from the current table to Table.
type Hop struct {
	Table      string
	ForeignKey string
}

// Path locates a column reachable from the root table through zero or more
// foreign-key hops, e.g. item -> meal -> plan -> gym_id.
type Path struct {
	Hops   []Hop
	Column string
}

// Col is a column on the root table itself.
func Col(column string) Path {
	return Path{Column: column}
}

// Via builds a path through the given hops ending at column.
func Via(column string, hops ...Hop) Path {
	return Path{Hops: hops, Column: column}
}

func (p Path) IsZero() bool {
	return p.Column == ""
}

func hopAlias(i int, hop Hop) string {
	return "h" + strconv.Itoa(i+1) + "_" + hop.Table
}

// Ref is the qualified column reference usable in a WHERE clause once Joins
// have been applied.
func (p Path) Ref() string {
	if len(p.Hops) == 0 {
		return RootAlias + "." + p.Column
	}
	last := len(p.Hops) - 1
	return hopAlias(last, p.Hops[last]) + "." + p.Column
}

// Joins renders the JOIN chain for the path.
func (p Path) Joins() []string {
	joins := make([]string, 0, len(p.Hops))
	prev := RootAlias
	for i, hop := range p.Hops {
		alias := hopAlias(i, hop)
		joins = append(joins, "JOIN "+hop.Table+" "+alias+" ON "+alias+".id = "+prev+"."+hop.ForeignKey)
		prev = alias
	}
	return joins
}

// ResolveSQL returns a query selecting the path's column given the id of the
// root row (single bind parameter). For a path without hops it reads the
// column straight from table.
func (p Path) ResolveSQL(table string) string {
	return "SELECT " + p.Ref() + " FROM " + table + " " + RootAlias + " " +
		strings.Join(p.Joins(), " ") + " WHERE " + RootAlias + ".id = ?"
}

// FromFirstHop returns a query resolving the path's column given the id of
// the first hop's row. Used on create, when the root row does not exist yet
// but its foreign key is known.
func (p Path) FromFirstHop() (string, bool) {
	if len(p.Hops) == 0 {
		return "", false
	}
	rest := Path{Hops: p.Hops[1:], Column: p.Column}
	return rest.ResolveSQL(p.Hops[0].Table), true
}

// Predicate is a composable WHERE fragment with `?` placeholders; callers
// rebind it for their driver.
type Predicate struct {
	Joins  []string
	Clause string
	Args   []any
}

// MatchAll places no restriction.
func MatchAll() Predicate {
	return Predicate{}
}

// MatchNone excludes every row.
func MatchNone() Predicate {
	return Predicate{Clause: "FALSE"}
}

func Where(clause string, args ...any) Predicate {
	return Predicate{Clause: clause, Args: args}
}

func (p Predicate) IsMatchAll() bool {
	return p.Clause == "" && len(p.Joins) == 0
}

func (p Predicate) And(other Predicate) Predicate {
	out := Predicate{Joins: mergeJoins(p.Joins, other.Joins)}
	switch {
	case p.Clause == "":
		out.Clause = other.Clause
	case other.Clause == "":
		out.Clause = p.Clause
	default:
		out.Clause = "(" + p.Clause + ") AND (" + other.Clause + ")"
	}
	out.Args = append(append([]any{}, p.Args...), other.Args...)
	return out
}

func (p Predicate) Or(other Predicate) Predicate {
	out := Predicate{Joins: mergeJoins(p.Joins, other.Joins)}
	if p.Clause == "" || other.Clause == "" {
		return out
	}
	out.Clause = "(" + p.Clause + ") OR (" + other.Clause + ")"
	out.Args = append(append([]any{}, p.Args...), other.Args...)
	return out
}

func (p Predicate) withPath(path Path) Predicate {
	p.Joins = mergeJoins(p.Joins, path.Joins())
	return p
}

// JoinSQL renders the joins, newline terminated, or "".
func (p Predicate) JoinSQL() string {
	if len(p.Joins) == 0 {
		return ""
	}
	return strings.Join(p.Joins, "\n") + "\n"
}

// WhereSQL renders "WHERE <clause>\n", or "" for match-all.
func (p Predicate) WhereSQL() string {
	if p.Clause == "" {
		return ""
	}
	return "WHERE " + p.Clause + "\n"
}

func mergeJoins(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, join := range append(append([]string{}, a...), b...) {
		if seen[join] {
			continue
		}
		seen[join] = true
		out = append(out, join)
	}
	return out
}

// BuildFilter is the tenant-or-global predicate for gymPath: match-all for a
// super admin, `gym IS NULL OR gym = principal.gym` for a principal with a
// gym, and `gym IS NULL` otherwise.
func BuildFilter(p Principal, gymPath Path) Predicate {
	if p.IsSuperAdmin() {
		return MatchAll()
	}
	ref := gymPath.Ref()
	if !p.HasGym() {
		return Where(ref + " IS NULL").withPath(gymPath)
	}
	return Where(ref+" IS NULL OR "+ref+" = ?", p.Gym()).withPath(gymPath)
}

// tenantOnly is BuildFilter without the global branch.
func tenantOnly(p Principal, gymPath Path) Predicate {
	if !p.HasGym() {
		return MatchNone()
	}
	return Where(gymPath.Ref()+" = ?", p.Gym()).withPath(gymPath)
}

func ownerFilter(p Principal, ownerPath Path) Predicate {
	return Where(ownerPath.Ref()+" = ?", p.ID).withPath(ownerPath)
}

func statusFilter(spec KindSpec) Predicate {
	return Where(spec.Status.Ref()+" = ?", spec.Visible).withPath(spec.Status)
}

// Scope returns the list/read predicate for principal over kind. Unknown
// kinds match nothing.
func Scope(p Principal, kind Kind) Predicate {
	spec, ok := Specs[kind]
	if !ok {
		return MatchNone()
	}
	if p.IsSuperAdmin() {
		return MatchAll()
	}
	if spec.Tenant.IsZero() && spec.Owner.IsZero() {
		if spec.Status.IsZero() {
			return MatchAll()
		}
		return statusFilter(spec)
	}
	if !spec.Owner.IsZero() {
		own := ownerFilter(p, spec.Owner)
		if spec.gymWide(p.Role) && p.HasGym() {
			return tenantOnly(p, spec.Tenant).Or(own)
		}
		return own
	}
	var pred Predicate
	if spec.Global {
		pred = BuildFilter(p, spec.Tenant)
	} else {
		pred = tenantOnly(p, spec.Tenant)
	}
	if p.Role == RoleAthlete && !spec.Status.IsZero() {
		pred = pred.And(statusFilter(spec))
	}
	return pred
}

// TargetSQL returns a query yielding gym_id, owner_id and visible for one
// row of kind (single trailing bind parameter: the row id). Any status
// argument comes first in args.
func TargetSQL(kind Kind) (string, []any, bool) {
	spec, ok := Specs[kind]
	if !ok {
		return "", nil, false
	}
	var joins []string
	gym := "NULL"
	if !spec.Tenant.IsZero() {
		gym = spec.Tenant.Ref() + "::text"
		joins = mergeJoins(joins, spec.Tenant.Joins())
	}
	owner := "NULL"
	if !spec.Owner.IsZero() {
		owner = spec.Owner.Ref() + "::text"
		joins = mergeJoins(joins, spec.Owner.Joins())
	}
	visible := "TRUE"
	args := []any{}
	if !spec.Status.IsZero() {
		visible = "COALESCE(" + spec.Status.Ref() + " = ?, FALSE)"
		joins = mergeJoins(joins, spec.Status.Joins())
		args = append(args, spec.Visible)
	}
	var b strings.Builder
	b.WriteString("SELECT " + gym + " AS gym_id, " + owner + " AS owner_id, " + visible + " AS visible\n")
	b.WriteString("FROM " + spec.Table + " " + RootAlias + "\n")
	for _, join := range joins {
		b.WriteString(join + "\n")
	}
	b.WriteString("WHERE " + RootAlias + ".id = ?")
	return b.String(), args, true
}
