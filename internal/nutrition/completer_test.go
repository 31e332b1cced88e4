package nutrition

import (
	"context"
	"regexp"
	"testing"

	"gymcore-backend-go/internal/points"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var assignmentCols = []string{"id", "user_id", "plan_id", "status", "plan_name", "points_reward"}

func setup(t *testing.T) (*Completer, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	log := zaptest.NewLogger(t)
	return NewCompleter(points.NewEngine(points.PostgresLedger{}, log), 80, log), sqlx.NewDb(raw, "sqlmock"), mock
}

func expectAssignment(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_nutrition_plans a")).WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(assignmentCols).AddRow("a1", "u1", "p1", status, "Cut", 100))
}

func expectCounts(mock sqlmock.Sqlmock, completed, total int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM meal_templates")).WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(total, completed))
}

func TestCompleteCreditsReward(t *testing.T) {
	c, db, mock := setup(t)
	mock.ExpectBegin()
	expectAssignment(mock, "active")
	expectCounts(mock, 8, 10)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status <> 'completed'")).WithArgs("a1", 80.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET points = points + $1")).WithArgs(100, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(140))
	mock.ExpectExec("INSERT INTO user_points").
		WithArgs(sqlmock.AnyArg(), "u1", 100, "nutrition_plan", "completed nutrition plan Cut", nil, "p1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), tx, "a1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 100, out.PointsEarned)
	assert.Equal(t, 80.0, out.Compliance.Percentage)
	require.NotNil(t, out.Change)
	assert.Equal(t, 140, out.Change.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteBelowThreshold(t *testing.T) {
	c, db, mock := setup(t)
	mock.ExpectBegin()
	expectAssignment(mock, "active")
	expectCounts(mock, 7, 10)
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), tx, "a1")
	require.NoError(t, tx.Rollback())

	var low *BelowThresholdError
	require.ErrorAs(t, err, &low)
	assert.Equal(t, 7, low.Compliance.CompletedMeals)
	assert.Equal(t, 10, low.Compliance.TotalMeals)
	assert.Equal(t, 8, low.Compliance.RequiredMeals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLosesRace(t *testing.T) {
	c, db, mock := setup(t)
	mock.ExpectBegin()
	expectAssignment(mock, "active")
	expectCounts(mock, 10, 10)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status <> 'completed'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), tx, "a1")
	require.NoError(t, tx.Rollback())

	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.NoError(t, mock.ExpectationsWereMet(), "no ledger entry when the conditional write matched nothing")
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	c, db, mock := setup(t)
	mock.ExpectBegin()
	expectAssignment(mock, "completed")
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), tx, "a1")
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompleteWithoutMeals(t *testing.T) {
	c, db, mock := setup(t)
	mock.ExpectBegin()
	expectAssignment(mock, "active")
	expectCounts(mock, 0, 0)
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), tx, "a1")
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, err, ErrNoMeals)
}
