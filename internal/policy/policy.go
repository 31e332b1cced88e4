// Package policy decides who may do what to which tenant-scoped record and
// builds the matching query predicates.
package policy

import "fmt"

type Action string

const (
	ActionList     Action = "list"
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionJoin     Action = "join"
	ActionStart    Action = "start"
	ActionAssign   Action = "assign"
	ActionToggle   Action = "toggle"
	ActionComplete Action = "complete"
)

const reasonNotPermitted = "not permitted"

// Target carries the attributes of the record a decision is made about.
// Create decisions pass the record as it would be stored.
type Target struct {
	GymID   *string
	OwnerID string
	// Visible is true when the record's status is one athletes may see.
	Visible bool
}

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// DeniedError is the error form of a Deny decision.
type DeniedError struct {
	Kind   Kind
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s %s denied: %s", e.Action, e.Kind, e.Reason)
}

// Rule is one strategy consulted by the evaluator.
type Rule interface {
	Check(p Principal, t Target) Decision
}

type RuleFunc func(p Principal, t Target) Decision

func (f RuleFunc) Check(p Principal, t Target) Decision {
	return f(p, t)
}

var (
	// Always allows unconditionally.
	Always Rule = RuleFunc(func(Principal, Target) Decision { return Allow() })

	// HasGym allows principals bound to a gym; creates are then forced into it.
	HasGym Rule = RuleFunc(func(p Principal, _ Target) Decision {
		if !p.HasGym() {
			return Deny(reasonNotPermitted)
		}
		return Allow()
	})

	// SameGym allows when the target belongs to the principal's gym.
	SameGym Rule = RuleFunc(func(p Principal, t Target) Decision {
		if !p.HasGym() {
			return Deny(reasonNotPermitted)
		}
		if !p.InGym(t.GymID) {
			return Deny("resource belongs to another gym")
		}
		return Allow()
	})

	// Owner allows the user the record belongs to.
	Owner Rule = RuleFunc(func(p Principal, t Target) Decision {
		if t.OwnerID == "" || t.OwnerID != p.ID {
			return Deny("resource belongs to another user")
		}
		return Allow()
	})

	// InScope allows global records and records of the principal's gym.
	InScope Rule = RuleFunc(func(p Principal, t Target) Decision {
		if t.GymID == nil || p.InGym(t.GymID) {
			return Allow()
		}
		return Deny("resource belongs to another gym")
	})

	// Published is InScope restricted to athlete-visible statuses.
	Published Rule = RuleFunc(func(p Principal, t Target) Decision {
		if d := InScope.Check(p, t); !d.Allowed {
			return d
		}
		if !t.Visible {
			return Deny("resource is not published")
		}
		return Allow()
	})
)

// AnyOf allows when at least one rule allows; otherwise it reports the first
// denial reason.
func AnyOf(rules ...Rule) Rule {
	return RuleFunc(func(p Principal, t Target) Decision {
		first := Deny(reasonNotPermitted)
		for i, rule := range rules {
			d := rule.Check(p, t)
			if d.Allowed {
				return d
			}
			if i == 0 {
				first = d
			}
		}
		return first
	})
}

type tableKey struct {
	role   Role
	kind   Kind
	action Action
}

// Table maps (role, kind, action) to a rule. Missing entries deny.
type Table map[tableKey]Rule

func (t Table) Set(role Role, kind Kind, action Action, rule Rule) {
	t[tableKey{role: role, kind: kind, action: action}] = rule
}

func (t Table) Lookup(role Role, kind Kind, action Action) (Rule, bool) {
	rule, ok := t[tableKey{role: role, kind: kind, action: action}]
	return rule, ok
}

// Evaluator applies a policy table. It has no side effects.
type Evaluator struct {
	table Table
}

func NewEvaluator(table Table) *Evaluator {
	return &Evaluator{table: table}
}

// Evaluate decides whether p may perform action on kind. target is nil for
// list decisions and is then checked as an empty Target.
func (e *Evaluator) Evaluate(p Principal, kind Kind, action Action, target *Target) Decision {
	if p.IsSuperAdmin() {
		return Allow()
	}
	rule, ok := e.table.Lookup(p.Role, kind, action)
	if !ok {
		return Deny(reasonNotPermitted)
	}
	var t Target
	if target != nil {
		t = *target
	}
	return rule.Check(p, t)
}

// Authorize is Evaluate returning a *DeniedError on denial.
func (e *Evaluator) Authorize(p Principal, kind Kind, action Action, target *Target) error {
	d := e.Evaluate(p, kind, action, target)
	if d.Allowed {
		return nil
	}
	return &DeniedError{Kind: kind, Action: action, Reason: d.Reason}
}
