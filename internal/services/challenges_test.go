package services

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"gymcore-backend-go/internal/cache"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const participationCols = "id,challenge_id,user_id,status,progress,points_earned"

func expectActiveChallenge(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.* FROM challenges t")).
		WillReturnRows(rows("id,gym_id,name,status", "c1", "g7", "Run", "active"))
}

func TestJoinChallengeIsIdempotent(t *testing.T) {
	svc, mock, _ := newService(t)
	athlete := principal("u1", policy.RoleAthlete, "g7")
	ctx := context.Background()

	expectActiveChallenge(mock)
	mock.ExpectQuery("INSERT INTO challenge_participations").
		WithArgs(sqlmock.AnyArg(), "c1", "u1").
		WillReturnRows(rows(participationCols, "cp1", "c1", "u1", "joined", 0, 0))

	first, created, err := svc.JoinChallenge(ctx, athlete, "c1", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "cp1", first.ID)

	expectActiveChallenge(mock)
	mock.ExpectQuery("INSERT INTO challenge_participations").WillReturnRows(rows(participationCols))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE challenge_id = $1 AND user_id = $2")).WithArgs("c1", "u1").
		WillReturnRows(rows(participationCols, "cp1", "c1", "u1", "joined", 3, 0))

	second, created, err := svc.JoinChallenge(ctx, athlete, "c1", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinChallengeForAnotherUserNeedsSuperAdmin(t *testing.T) {
	svc, mock, _ := newService(t)
	coach := principal("c9", policy.RoleCoach, "g7")

	expectActiveChallenge(mock)

	_, _, err := svc.JoinChallenge(context.Background(), coach, "c1", "u2")
	requireStatus(t, err, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAthleteCannotSetChallengePoints(t *testing.T) {
	svc, mock, _ := newService(t)
	athlete := principal("u1", policy.RoleAthlete, "g7")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM challenge_participations WHERE id = $1")).
		WillReturnRows(rows(participationCols, "cp1", "c1", "u1", "joined", 2, 0))
	expectTarget(mock, "g7", "u1", true)

	earned := 500
	_, err := svc.UpdateParticipation(context.Background(), athlete, "cp1", ParticipationUpdate{PointsEarned: &earned})
	serr := requireStatus(t, err, http.StatusForbidden)
	assert.Equal(t, "only staff may set challenge points", serr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAthleteUpdatesOwnProgress(t *testing.T) {
	svc, mock, _ := newService(t)
	athlete := principal("u1", policy.RoleAthlete, "g7")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM challenge_participations WHERE id = $1")).
		WillReturnRows(rows(participationCols, "cp1", "c1", "u1", "joined", 2, 0))
	expectTarget(mock, "g7", "u1", true)
	mock.ExpectExec("UPDATE challenge_participations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM challenge_participations WHERE id = $1")).
		WillReturnRows(rows(participationCols, "cp1", "c1", "u1", "completed", 10, 0))

	progress := 10
	out, err := svc.UpdateParticipation(context.Background(), athlete, "cp1", ParticipationUpdate{Progress: &progress, Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardScope(t *testing.T) {
	cases := []struct {
		name  string
		p     policy.Principal
		scope string
		where string
		args  []any
	}{
		{"super admin", principal("s1", policy.RoleSuperAdmin, ""), "all", "", nil},
		{"gym member", principal("u1", policy.RoleAthlete, "g7"), "gym:g7", "WHERE gym_id = $1", []any{"g7"}},
		{"no gym", principal("u1", policy.RoleAthlete, ""), "user:u1", "WHERE id = $1", []any{"u1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope, where, args := LeaderboardScope(tc.p)
			assert.Equal(t, tc.scope, scope)
			assert.Equal(t, tc.where, where)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestLeaderboardIsCachedUntilPointsMove(t *testing.T) {
	svc, mock, _ := newService(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc.Cache = cache.NewLeaderboard(client, time.Minute, zaptest.NewLogger(t))

	athlete := principal("u1", policy.RoleAthlete, "g7")
	ctx := context.Background()
	cols := "rank,id,first_name,last_name,gym_id,points,level"

	mock.ExpectQuery("ROW_NUMBER").WithArgs("g7").
		WillReturnRows(rows(cols, 1, "u1", "Ana", "Diaz", "g7", 120, 2))

	first, err := svc.Leaderboard(ctx, athlete)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("leaderboard:gym:g7"))

	cached, err := svc.Leaderboard(ctx, athlete)
	require.NoError(t, err)
	assert.Equal(t, first, cached)
	require.NoError(t, mock.ExpectationsWereMet())

	svc.publish(ctx, points.Change{UserID: "u2", Delta: 200, Balance: 200, Source: points.SourceWorkoutSession})
	assert.False(t, mr.Exists("leaderboard:gym:g7"))

	mock.ExpectQuery("ROW_NUMBER").WithArgs("g7").
		WillReturnRows(rows(cols, 1, "u2", "Bo", "Li", "g7", 200, 1).AddRow(2, "u1", "Ana", "Diaz", "g7", 120, 2))

	fresh, err := svc.Leaderboard(ctx, athlete)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "u2", fresh[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
