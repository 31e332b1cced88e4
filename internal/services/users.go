package services

import (
	"context"
	"strconv"
	"time"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/policy"

	"go.uber.org/zap"
)

const leaderboardSize = 20

func (s *Service) ListUsers(ctx context.Context, p policy.Principal) ([]models.User, error) {
	return listScoped[models.User](ctx, s, p, policy.KindUser, policy.MatchAll(), "t.last_name, t.first_name")
}

func (s *Service) GetUser(ctx context.Context, p policy.Principal, id string) (*models.User, error) {
	return getScoped[models.User](ctx, s, p, policy.KindUser, id)
}

// Me returns the principal's own profile, including the cached point total.
func (s *Service) Me(ctx context.Context, p policy.Principal) (*models.User, error) {
	var u models.User
	if err := s.DB.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, p.ID); err != nil {
		return nil, notFoundOr(err, policy.KindUser, "load profile")
	}
	return &u, nil
}

func (s *Service) TouchLastSeen(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET last_seen_at = $1 WHERE id = $2`, s.now(), userID)
	return err
}

// PointsHistory lists the principal's ledger entries, newest first.
func (s *Service) PointsHistory(ctx context.Context, p policy.Principal) ([]models.PointsEntry, error) {
	items := []models.PointsEntry{}
	err := s.DB.SelectContext(ctx, &items, `
SELECT * FROM user_points
WHERE user_id = $1
ORDER BY created_at DESC, id`, p.ID)
	if err != nil {
		return nil, WrapError(err, "list points history")
	}
	return items, nil
}

type LeaderboardEntry struct {
	Rank      int     `db:"rank" json:"rank"`
	UserID    string  `db:"id" json:"userId"`
	FirstName string  `db:"first_name" json:"firstName"`
	LastName  string  `db:"last_name" json:"lastName"`
	GymID     *string `db:"gym_id" json:"gymId"`
	Points    int     `db:"points" json:"points"`
	Level     int     `db:"level" json:"level"`
}

// LeaderboardScope names the set of users p competes against: everyone for
// super admins, the gym for members, and only themselves otherwise.
func LeaderboardScope(p policy.Principal) (string, string, []any) {
	switch {
	case p.IsSuperAdmin():
		return "all", "", nil
	case p.HasGym():
		return "gym:" + p.Gym(), "WHERE gym_id = $1", []any{p.Gym()}
	default:
		return "user:" + p.ID, "WHERE id = $1", []any{p.ID}
	}
}

// Leaderboard returns the top users by cached points.
func (s *Service) Leaderboard(ctx context.Context, p policy.Principal) ([]LeaderboardEntry, error) {
	scope, where, args := LeaderboardScope(p)
	entries := []LeaderboardEntry{}
	hit, err := s.Cache.Get(ctx, scope, &entries)
	if err != nil {
		s.Log.Warn("leaderboard_cache_read_failed", zap.String("scope", scope), zap.Error(err))
	}
	if hit {
		return entries, nil
	}
	start := time.Now()
	err = s.DB.SelectContext(ctx, &entries, `
SELECT ROW_NUMBER() OVER (ORDER BY points DESC, created_at, id) AS rank,
       id, first_name, last_name, gym_id, points, level
FROM users
`+where+`
ORDER BY points DESC, created_at, id
LIMIT `+strconv.Itoa(leaderboardSize), args...)
	if err != nil {
		return nil, WrapError(err, "load leaderboard")
	}
	s.Log.Debug("leaderboard_loaded", zap.String("scope", scope), zap.Int("rows", len(entries)), zap.Duration("elapsed", time.Since(start)))
	if err := s.Cache.Set(ctx, scope, entries); err != nil {
		s.Log.Warn("leaderboard_cache_write_failed", zap.String("scope", scope), zap.Error(err))
	}
	return entries, nil
}
