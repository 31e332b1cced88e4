package points

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymcore-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("points: session not found")

// SessionReward is what a session is worth right now: the routine's reward
// when the session is completed and still bound to a routine, else zero.
func SessionReward(status models.SessionStatus, routineReward *int) int {
	if status != models.SessionCompleted || routineReward == nil || *routineReward <= 0 {
		return 0
	}
	return *routineReward
}

type Engine struct {
	ledger Ledger
	log    *zap.Logger
}

func NewEngine(ledger Ledger, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{ledger: ledger, log: log}
}

type sessionState struct {
	ID            string               `db:"id"`
	UserID        string               `db:"user_id"`
	Status        models.SessionStatus `db:"status"`
	PointsAwarded int                  `db:"points_awarded"`
	RoutineReward *int                 `db:"routine_reward"`
}

func lockSession(ctx context.Context, tx *sqlx.Tx, sessionID string) (sessionState, error) {
	var s sessionState
	err := tx.GetContext(ctx, &s, `
SELECT s.id, s.user_id, s.status, s.points_awarded, r.points_reward AS routine_reward
FROM workout_sessions s
LEFT JOIN workout_routines r ON r.id = s.routine_id
WHERE s.id = $1
FOR UPDATE OF s`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return sessionState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return sessionState{}, fmt.Errorf("lock session: %w", err)
	}
	return s, nil
}

// SyncSession brings session.points_awarded and the owner's balance in line
// with the session's current reward. It locks the session row, so concurrent
// edits of the same session serialize. Calling it again on an unchanged
// session is a no-op and returns ok=false.
func (e *Engine) SyncSession(ctx context.Context, tx *sqlx.Tx, sessionID string) (Change, bool, error) {
	s, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return Change{}, false, err
	}
	reward := SessionReward(s.Status, s.RoutineReward)
	delta := reward - s.PointsAwarded
	if delta == 0 {
		return Change{}, false, nil
	}
	change, err := e.ledger.Apply(ctx, tx, Adjustment{
		UserID:      s.UserID,
		Delta:       delta,
		Source:      SourceWorkoutSession,
		Description: sessionDescription(delta),
		SessionID:   &s.ID,
	})
	if err != nil {
		return Change{}, false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE workout_sessions SET points_awarded = $1, updated_at = now() WHERE id = $2`, reward, s.ID); err != nil {
		return Change{}, false, fmt.Errorf("store points_awarded: %w", err)
	}
	e.log.Debug("session_points_synced",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.Int("delta", delta),
		zap.Int("awarded", reward),
	)
	return change, true, nil
}

// RevokeSession reverses everything a session has awarded ahead of its
// deletion. The caller deletes the row in the same transaction.
func (e *Engine) RevokeSession(ctx context.Context, tx *sqlx.Tx, sessionID string) (Change, bool, error) {
	s, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return Change{}, false, err
	}
	if s.PointsAwarded == 0 {
		return Change{}, false, nil
	}
	change, err := e.ledger.Apply(ctx, tx, Adjustment{
		UserID:      s.UserID,
		Delta:       -s.PointsAwarded,
		Source:      SourceWorkoutSession,
		Description: "workout session deleted",
		SessionID:   &s.ID,
	})
	if err != nil {
		return Change{}, false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE workout_sessions SET points_awarded = 0, updated_at = now() WHERE id = $1`, s.ID); err != nil {
		return Change{}, false, fmt.Errorf("reset points_awarded: %w", err)
	}
	return change, true, nil
}

// SessionsForRoutine locks routineID and lists the sessions bound to it.
// While the lock is held no other transaction can bind a session to it.
func SessionsForRoutine(ctx context.Context, q sqlx.QueryerContext, routineID string) ([]string, error) {
	return boundSessions(ctx, q,
		`SELECT id FROM workout_routines WHERE id = $1 FOR UPDATE`,
		`SELECT id FROM workout_sessions WHERE routine_id = $1 ORDER BY id`, routineID)
}

// SessionsForGym locks every routine of gymID and lists the sessions bound
// to them. Those sessions lose their routine when the gym goes away.
func SessionsForGym(ctx context.Context, q sqlx.QueryerContext, gymID string) ([]string, error) {
	return boundSessions(ctx, q,
		`SELECT id FROM workout_routines WHERE gym_id = $1 ORDER BY id FOR UPDATE`,
		`SELECT s.id FROM workout_sessions s
JOIN workout_routines r ON r.id = s.routine_id
WHERE r.gym_id = $1
ORDER BY s.id`, gymID)
}

func boundSessions(ctx context.Context, q sqlx.QueryerContext, lockSQL, listSQL, id string) ([]string, error) {
	ids := []string{}
	var routines []string
	if err := sqlx.SelectContext(ctx, q, &routines, lockSQL, id); err != nil {
		return nil, fmt.Errorf("lock routines: %w", err)
	}
	if len(routines) == 0 {
		return ids, nil
	}
	if err := sqlx.SelectContext(ctx, q, &ids, listSQL, id); err != nil {
		return nil, fmt.Errorf("bound sessions: %w", err)
	}
	return ids, nil
}

// SyncSessions runs SyncSession over ids in order and returns the changes
// that moved a balance.
func (e *Engine) SyncSessions(ctx context.Context, tx *sqlx.Tx, ids []string) ([]Change, error) {
	changes := []Change{}
	for _, id := range ids {
		change, ok, err := e.SyncSession(ctx, tx, id)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return changes, err
		}
		if ok {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// ResyncRoutine re-syncs every session bound to routineID, for use after its
// reward changed.
func (e *Engine) ResyncRoutine(ctx context.Context, tx *sqlx.Tx, routineID string) ([]Change, error) {
	ids, err := SessionsForRoutine(ctx, tx, routineID)
	if err != nil {
		return nil, err
	}
	return e.SyncSessions(ctx, tx, ids)
}

// CreditPlanCompletion appends the reward for a completed nutrition plan.
// A zero reward credits nothing.
func (e *Engine) CreditPlanCompletion(ctx context.Context, tx *sqlx.Tx, userID, planID, planName string, reward int) (Change, bool, error) {
	if reward <= 0 {
		return Change{}, false, nil
	}
	change, err := e.ledger.Apply(ctx, tx, Adjustment{
		UserID:          userID,
		Delta:           reward,
		Source:          SourceNutritionPlan,
		Description:     fmt.Sprintf("completed nutrition plan %s", planName),
		NutritionPlanID: &planID,
	})
	if err != nil {
		return Change{}, false, err
	}
	return change, true, nil
}

func sessionDescription(delta int) string {
	if delta > 0 {
		return "workout session completed"
	}
	return "workout session reward withdrawn"
}
