package models

import "fmt"

// Transitions lists, per state, the states it may move to. Staying in the
// same state is always allowed.
type Transitions[S ~string] map[S][]S

func (t Transitions[S]) Known(s S) bool {
	_, ok := t[s]
	return ok
}

func (t Transitions[S]) Allows(from, to S) bool {
	if from == to {
		return t.Known(from)
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns a TransitionError when from -> to is not in the table.
func (t Transitions[S]) Check(from, to S) error {
	if !t.Known(to) {
		return &TransitionError{From: string(from), To: string(to), Unknown: true}
	}
	if !t.Allows(from, to) {
		return &TransitionError{From: string(from), To: string(to)}
	}
	return nil
}

type TransitionError struct {
	From    string
	To      string
	Unknown bool
}

func (e *TransitionError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("unknown status %q", e.To)
	}
	return fmt.Sprintf("cannot change status from %q to %q", e.From, e.To)
}

type SessionStatus string

const (
	SessionPlanned   SessionStatus = "planned"
	SessionCompleted SessionStatus = "completed"
	SessionSkipped   SessionStatus = "skipped"
)

var SessionTransitions = Transitions[SessionStatus]{
	SessionPlanned:   {SessionCompleted, SessionSkipped},
	SessionCompleted: {SessionPlanned, SessionSkipped},
	SessionSkipped:   {SessionPlanned, SessionCompleted},
}

type RoutineStatus string

const (
	RoutineDraft     RoutineStatus = "draft"
	RoutinePublished RoutineStatus = "published"
	RoutineArchived  RoutineStatus = "archived"
)

var RoutineTransitions = Transitions[RoutineStatus]{
	RoutineDraft:     {RoutinePublished, RoutineArchived},
	RoutinePublished: {RoutineDraft, RoutineArchived},
	RoutineArchived:  {RoutineDraft},
}

type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

var PlanTransitions = Transitions[PlanStatus]{
	PlanDraft:    {PlanActive, PlanArchived},
	PlanActive:   {PlanDraft, PlanArchived},
	PlanArchived: {PlanDraft},
}

type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentPaused    AssignmentStatus = "paused"
	AssignmentCompleted AssignmentStatus = "completed"
)

// AssignmentTransitions covers manual edits. Completion goes through the
// completion check only, so no manual edge leads into AssignmentCompleted.
var AssignmentTransitions = Transitions[AssignmentStatus]{
	AssignmentActive:    {AssignmentPaused},
	AssignmentPaused:    {AssignmentActive},
	AssignmentCompleted: {},
}

type ChallengeStatus string

const (
	ChallengeDraft     ChallengeStatus = "draft"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeArchived  ChallengeStatus = "archived"
)

var ChallengeTransitions = Transitions[ChallengeStatus]{
	ChallengeDraft:     {ChallengeActive, ChallengeArchived},
	ChallengeActive:    {ChallengeCompleted, ChallengeArchived},
	ChallengeCompleted: {ChallengeArchived},
	ChallengeArchived:  {},
}

type ParticipationStatus string

const (
	ParticipationJoined    ParticipationStatus = "joined"
	ParticipationCompleted ParticipationStatus = "completed"
	ParticipationDropped   ParticipationStatus = "dropped"
)

var ParticipationTransitions = Transitions[ParticipationStatus]{
	ParticipationJoined:    {ParticipationCompleted, ParticipationDropped},
	ParticipationDropped:   {ParticipationJoined},
	ParticipationCompleted: {},
}

type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

var SubscriptionTransitions = Transitions[SubscriptionStatus]{
	SubscriptionIncomplete: {SubscriptionActive, SubscriptionCanceled},
	SubscriptionActive:     {SubscriptionPastDue, SubscriptionCanceled},
	SubscriptionPastDue:    {SubscriptionActive, SubscriptionCanceled},
	SubscriptionCanceled:   {},
}

type ActiveStatus string

const (
	StatusActive   ActiveStatus = "active"
	StatusInactive ActiveStatus = "inactive"
)

var ActiveTransitions = Transitions[ActiveStatus]{
	StatusActive:   {StatusInactive},
	StatusInactive: {StatusActive},
}
