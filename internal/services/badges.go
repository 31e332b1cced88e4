package services

import (
	"context"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
)

func (s *Service) ListUserBadges(ctx context.Context, p policy.Principal) ([]models.UserBadge, error) {
	return listScoped[models.UserBadge](ctx, s, p, policy.KindUserBadge, policy.MatchAll(), "t.awarded_at DESC")
}

func (s *Service) GetUserBadge(ctx context.Context, p policy.Principal, id string) (*models.UserBadge, error) {
	return getScoped[models.UserBadge](ctx, s, p, policy.KindUserBadge, id)
}

type AwardBadge struct {
	UserID  string `json:"userId" validate:"required"`
	BadgeID string `json:"badgeId" validate:"required"`
}

// AwardUserBadge grants a visible badge to a member of the principal's gym.
func (s *Service) AwardUserBadge(ctx context.Context, p policy.Principal, in AwardBadge) (*models.UserBadge, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	badge, err := Badges.Get(ctx, s, p, in.BadgeID)
	if err != nil {
		return nil, err
	}
	user, err := s.member(ctx, p, in.UserID)
	if err != nil {
		return nil, err
	}
	target := policy.Target{GymID: badge.GymID, OwnerID: user.ID}
	if err := s.authorize(p, policy.KindUserBadge, policy.ActionCreate, target); err != nil {
		return nil, err
	}
	ub := models.UserBadge{ID: uuid.NewString(), UserID: user.ID, BadgeID: badge.ID, AwardedAt: s.now()}
	_, err = s.DB.NamedExecContext(ctx, `
INSERT INTO user_badges (id, user_id, badge_id, awarded_at)
VALUES (:id, :user_id, :badge_id, :awarded_at)`, &ub)
	if pgCode(err) == pgUniqueViolation {
		return nil, ErrConflict("Badge already awarded", nil)
	}
	if err != nil {
		return nil, storeError(err, "award badge")
	}
	return &ub, nil
}

func (s *Service) RevokeUserBadge(ctx context.Context, p policy.Principal, id string) error {
	var ub models.UserBadge
	if err := s.DB.GetContext(ctx, &ub, `SELECT * FROM user_badges WHERE id = $1`, id); err != nil {
		return notFoundOr(err, policy.KindUserBadge, "load user badge")
	}
	target, err := s.loadTarget(ctx, s.DB, policy.KindUserBadge, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, policy.KindUserBadge, policy.ActionDelete, target); err != nil {
		return err
	}
	// Global badges carry no gym; the holder's gym decides.
	if _, err := s.member(ctx, p, ub.UserID); err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM user_badges WHERE id = $1`, id)
	return WrapError(err, "revoke badge")
}
