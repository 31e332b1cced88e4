// Package points keeps every user's cached point total consistent with the
// rewards currently awarded to them.
//
// All balance changes go through a Ledger: each one appends an auditable
// user_points row and bumps users.points with an atomic increment in the
// same transaction, so users.points always equals the sum of the user's
// ledger rows.
package points

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Source string

const (
	SourceWorkoutSession Source = "workout_session"
	SourceNutritionPlan  Source = "nutrition_plan"
	SourceChallenge      Source = "challenge"
	SourceAdjustment     Source = "manual_adjustment"
)

// Adjustment is one signed change to a user's balance with the record that
// caused it.
type Adjustment struct {
	UserID          string
	Delta           int
	Source          Source
	Description     string
	SessionID       *string
	NutritionPlanID *string
	ChallengeID     *string
}

// Change is a committed adjustment as reported to listeners.
type Change struct {
	UserID  string `json:"userId"`
	Delta   int    `json:"delta"`
	Balance int    `json:"points"`
	Source  Source `json:"source"`
}

var ErrUnknownUser = errors.New("points: unknown user")

// Ledger is the single write path for point balances. q must be a
// transaction when the caller also mutates the rewarding record.
type Ledger interface {
	Apply(ctx context.Context, q sqlx.ExtContext, adj Adjustment) (Change, error)
}

// PostgresLedger stores adjustments in user_points and caches the total in
// users.points.
type PostgresLedger struct{}

func (PostgresLedger) Apply(ctx context.Context, q sqlx.ExtContext, adj Adjustment) (Change, error) {
	if adj.Delta == 0 {
		return Change{}, fmt.Errorf("points: zero adjustment for user %s", adj.UserID)
	}
	var balance int
	err := sqlx.GetContext(ctx, q, &balance,
		`UPDATE users SET points = points + $1 WHERE id = $2 RETURNING points`, adj.Delta, adj.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownUser, adj.UserID)
	}
	if err != nil {
		return Change{}, fmt.Errorf("increment points: %w", err)
	}
	_, err = q.ExecContext(ctx, `
INSERT INTO user_points (id, user_id, points, source, description, related_session_id, related_nutrition_plan_id, related_challenge_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), adj.UserID, adj.Delta, string(adj.Source), adj.Description,
		adj.SessionID, adj.NutritionPlanID, adj.ChallengeID)
	if err != nil {
		return Change{}, fmt.Errorf("append ledger entry: %w", err)
	}
	return Change{UserID: adj.UserID, Delta: adj.Delta, Balance: balance, Source: adj.Source}, nil
}
