package points

import (
	"context"
	"fmt"

	"gymcore-backend-go/internal/observability"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// StateInvariantError reports a user whose balances disagree. It is logged
// and surfaced to operators, never to API callers.
type StateInvariantError struct {
	UserID         string `db:"user_id"`
	Cached         int    `db:"cached"`
	Ledger         int    `db:"ledger"`
	SessionAwarded int    `db:"session_awarded"`
	SessionLedger  int    `db:"session_ledger"`
}

func (e *StateInvariantError) Error() string {
	return fmt.Sprintf("points drift for user %s: cached=%d ledger=%d session_awarded=%d session_ledger=%d",
		e.UserID, e.Cached, e.Ledger, e.SessionAwarded, e.SessionLedger)
}

func (e *StateInvariantError) Drifted() bool {
	return e.Cached != e.Ledger || e.SessionAwarded != e.SessionLedger
}

const verifySQL = `
SELECT u.id AS user_id,
       u.points AS cached,
       COALESCE(l.total, 0) AS ledger,
       COALESCE(s.awarded, 0) AS session_awarded,
       COALESCE(ls.total, 0) AS session_ledger
FROM users u
LEFT JOIN (SELECT user_id, SUM(points) AS total FROM user_points GROUP BY user_id) l ON l.user_id = u.id
LEFT JOIN (SELECT user_id, SUM(points_awarded) AS awarded FROM workout_sessions GROUP BY user_id) s ON s.user_id = u.id
LEFT JOIN (SELECT user_id, SUM(points) AS total FROM user_points WHERE source = 'workout_session' GROUP BY user_id) ls ON ls.user_id = u.id
`

// Verify checks that each user's cached total equals their ledger sum and
// that the session rows still carry what the ledger says they awarded.
// userID limits the check to one user when non-empty.
func (e *Engine) Verify(ctx context.Context, q sqlx.QueryerContext, userID string) ([]*StateInvariantError, error) {
	query := verifySQL
	args := []any{}
	if userID != "" {
		query += "WHERE u.id = $1\n"
		args = append(args, userID)
	}
	rows := []*StateInvariantError{}
	if err := sqlx.SelectContext(ctx, q, &rows, query+"ORDER BY u.id", args...); err != nil {
		return nil, fmt.Errorf("verify points: %w", err)
	}
	drift := []*StateInvariantError{}
	for _, row := range rows {
		if !row.Drifted() {
			continue
		}
		observability.RecordInvariantViolation()
		e.log.Error("points_invariant_violated", zap.Error(row),
			zap.String("user_id", row.UserID),
			zap.Int("cached", row.Cached),
			zap.Int("ledger", row.Ledger),
		)
		drift = append(drift, row)
	}
	return drift, nil
}

// Rebuild resets every cached total to its ledger sum and returns how many
// users changed.
func (e *Engine) Rebuild(ctx context.Context, q sqlx.ExecerContext) (int64, error) {
	res, err := q.ExecContext(ctx, `
UPDATE users u
SET points = COALESCE((SELECT SUM(p.points) FROM user_points p WHERE p.user_id = u.id), 0)
WHERE u.points <> COALESCE((SELECT SUM(p.points) FROM user_points p WHERE p.user_id = u.id), 0)`)
	if err != nil {
		return 0, fmt.Errorf("rebuild points: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Warn("points_rebuilt", zap.Int64("users", n))
	}
	return n, nil
}
