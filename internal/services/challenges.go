package services

import (
	"context"
	"database/sql"
	"errors"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *Service) ListParticipations(ctx context.Context, p policy.Principal) ([]models.ChallengeParticipation, error) {
	return listScoped[models.ChallengeParticipation](ctx, s, p, policy.KindParticipation, policy.MatchAll(), "t.updated_at DESC")
}

func (s *Service) GetParticipation(ctx context.Context, p policy.Principal, id string) (*models.ChallengeParticipation, error) {
	return getScoped[models.ChallengeParticipation](ctx, s, p, policy.KindParticipation, id)
}

func (s *Service) loadParticipation(ctx context.Context, q sqlx.QueryerContext, id string) (*models.ChallengeParticipation, error) {
	var cp models.ChallengeParticipation
	if err := sqlx.GetContext(ctx, q, &cp, `SELECT * FROM challenge_participations WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, policy.KindParticipation, "load participation")
	}
	return &cp, nil
}

// JoinChallenge enrolls a user in a visible challenge. Only super admins
// may enroll someone else. Joining twice returns the existing record with
// created=false.
func (s *Service) JoinChallenge(ctx context.Context, p policy.Principal, challengeID, userID string) (*models.ChallengeParticipation, bool, error) {
	challenge, err := Challenges.Get(ctx, s, p, challengeID)
	if err != nil {
		return nil, false, err
	}
	target := policy.Target{GymID: challenge.GymID, Visible: challenge.Published()}
	if err := s.authorize(p, policy.KindChallenge, policy.ActionJoin, target); err != nil {
		return nil, false, err
	}
	joiner := p.ID
	if userID != "" && userID != p.ID {
		if !p.IsSuperAdmin() {
			return nil, false, ErrForbidden("only super admins may enroll other users")
		}
		u, err := s.loadUser(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		joiner = u.ID
	}

	var cp models.ChallengeParticipation
	err = s.DB.GetContext(ctx, &cp, `
INSERT INTO challenge_participations (id, challenge_id, user_id, status)
VALUES ($1, $2, $3, 'joined')
ON CONFLICT (challenge_id, user_id) DO NOTHING
RETURNING *`, uuid.NewString(), challenge.ID, joiner)
	if err == nil {
		return &cp, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, storeError(err, "join challenge")
	}
	err = s.DB.GetContext(ctx, &cp, `
SELECT * FROM challenge_participations WHERE challenge_id = $1 AND user_id = $2`, challenge.ID, joiner)
	if err != nil {
		return nil, false, WrapError(err, "load participation")
	}
	return &cp, false, nil
}

// ParticipationUpdate holds the editable participation fields. Nil fields
// keep their stored value.
type ParticipationUpdate struct {
	Progress     *int                       `json:"progress" validate:"omitempty,gte=0"`
	Status       models.ParticipationStatus `json:"status"`
	PointsEarned *int                       `json:"pointsEarned" validate:"omitempty,gte=0"`
}

func (s *Service) UpdateParticipation(ctx context.Context, p policy.Principal, id string, in ParticipationUpdate) (*models.ChallengeParticipation, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	before, err := s.loadParticipation(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindParticipation, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, policy.KindParticipation, policy.ActionUpdate, target); err != nil {
		return nil, err
	}
	// Challenge rewards are set by hand, and only by staff.
	if in.PointsEarned != nil && *in.PointsEarned != before.PointsEarned &&
		!p.IsSuperAdmin() && !(p.Role.IsStaff() && p.InGym(target.GymID)) {
		return nil, ErrForbidden("only staff may set challenge points")
	}
	status := string(in.Status)
	if err := transition(models.ParticipationTransitions, string(before.Status), &status); err != nil {
		return nil, err
	}
	after := *before
	after.Status = models.ParticipationStatus(status)
	if in.Progress != nil {
		after.Progress = *in.Progress
	}
	if in.PointsEarned != nil {
		after.PointsEarned = *in.PointsEarned
	}
	after.UpdatedAt = s.now()
	_, err = s.DB.NamedExecContext(ctx, `
UPDATE challenge_participations
SET progress = :progress, status = :status, points_earned = :points_earned, updated_at = :updated_at
WHERE id = :id`, &after)
	if err != nil {
		return nil, storeError(err, "update participation")
	}
	return s.loadParticipation(ctx, s.DB, id)
}

func (s *Service) DeleteParticipation(ctx context.Context, p policy.Principal, id string) error {
	target, err := s.loadTarget(ctx, s.DB, policy.KindParticipation, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, policy.KindParticipation, policy.ActionDelete, target); err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM challenge_participations WHERE id = $1`, id)
	return WrapError(err, "delete participation")
}
