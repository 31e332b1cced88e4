package services

import (
	"context"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *Service) ListSessions(ctx context.Context, p policy.Principal) ([]models.WorkoutSession, error) {
	return listScoped[models.WorkoutSession](ctx, s, p, policy.KindSession, policy.MatchAll(), "t.performed_at DESC")
}

func (s *Service) GetSession(ctx context.Context, p policy.Principal, id string) (*models.WorkoutSession, error) {
	return getScoped[models.WorkoutSession](ctx, s, p, policy.KindSession, id)
}

func (s *Service) loadSession(ctx context.Context, q sqlx.QueryerContext, id string) (*models.WorkoutSession, error) {
	var session models.WorkoutSession
	if err := sqlx.GetContext(ctx, q, &session, `SELECT * FROM workout_sessions WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, policy.KindSession, "load session")
	}
	return &session, nil
}

func checkSessionStatus(status *models.SessionStatus, before models.SessionStatus) error {
	raw := string(*status)
	if err := transition(models.SessionTransitions, string(before), &raw); err != nil {
		return err
	}
	*status = models.SessionStatus(raw)
	return nil
}

// CreateSession records a session for the principal, or for a member of
// their gym when the principal is staff, and awards its reward.
func (s *Service) CreateSession(ctx context.Context, p policy.Principal, in *models.WorkoutSession) (*models.WorkoutSession, error) {
	if err := checkSessionStatus(&in.Status, models.SessionPlanned); err != nil {
		return nil, err
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	owner, err := s.member(ctx, p, in.UserID)
	if err != nil {
		return nil, err
	}
	target := policy.Target{GymID: owner.GymID, OwnerID: owner.ID}
	if err := s.authorize(p, policy.KindSession, policy.ActionCreate, target); err != nil {
		return nil, err
	}
	if in.RoutineID != nil && *in.RoutineID != "" {
		if err := s.visible(ctx, p, policy.KindRoutine, *in.RoutineID); err != nil {
			return nil, err
		}
	} else {
		in.RoutineID = nil
	}
	in.ID = uuid.NewString()
	in.UserID = owner.ID
	in.GymID = copyPtr(owner.GymID)
	in.PointsAwarded = 0
	in.Stamp(s.now())

	var change points.Change
	var moved bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
INSERT INTO workout_sessions (id, user_id, gym_id, routine_id, performed_at, duration_minutes, perceived_exertion,
  completion_percentage, notes, status, points_awarded, created_at, updated_at)
VALUES (:id, :user_id, :gym_id, :routine_id, :performed_at, :duration_minutes, :perceived_exertion,
  :completion_percentage, :notes, :status, :points_awarded, :created_at, :updated_at)`, in); err != nil {
			return storeError(err, "create session")
		}
		change, moved, err = s.Engine.SyncSession(ctx, tx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(ctx, change)
	}
	return s.loadSession(ctx, s.DB, in.ID)
}

// UpdateSession applies an edit and re-syncs the session's reward in the
// same transaction. Owner and gym never change.
func (s *Service) UpdateSession(ctx context.Context, p policy.Principal, id string, in *models.WorkoutSession) (*models.WorkoutSession, error) {
	before, err := s.loadSession(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindSession, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindSession, policy.ActionUpdate, target); err != nil {
		return nil, err
	}
	if err := checkSessionStatus(&in.Status, before.Status); err != nil {
		return nil, err
	}
	if err := Validate(in); err != nil {
		return nil, err
	}
	if in.RoutineID != nil && *in.RoutineID == "" {
		in.RoutineID = nil
	}
	if in.RoutineID != nil && (before.RoutineID == nil || *before.RoutineID != *in.RoutineID) {
		if err := s.visible(ctx, p, policy.KindRoutine, *in.RoutineID); err != nil {
			return nil, err
		}
	}
	in.ID = id
	in.UpdatedAt = s.now()

	var change points.Change
	var moved bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
UPDATE workout_sessions
SET routine_id = :routine_id, performed_at = :performed_at, duration_minutes = :duration_minutes,
    perceived_exertion = :perceived_exertion, completion_percentage = :completion_percentage,
    notes = :notes, status = :status, updated_at = :updated_at
WHERE id = :id`, in); err != nil {
			return storeError(err, "update session")
		}
		change, moved, err = s.Engine.SyncSession(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(ctx, change)
	}
	return s.loadSession(ctx, s.DB, id)
}

// DeleteSession withdraws whatever the session awarded, then removes it.
func (s *Service) DeleteSession(ctx context.Context, p policy.Principal, id string) error {
	target, err := s.loadTarget(ctx, s.DB, policy.KindSession, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, policy.KindSession, policy.ActionDelete, target); err != nil {
		return err
	}
	var change points.Change
	var moved bool
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		change, moved, err = s.Engine.RevokeSession(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM workout_sessions WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return WrapError(err, "delete session")
	}
	if moved {
		s.publish(ctx, change)
	}
	return nil
}
