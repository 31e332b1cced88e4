package services

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/policy"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectPlanVisible(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT t.* FROM subscription_plans t")).
		WillReturnRows(rows("exists", true))
}

func TestAthleteSubscribesThemselves(t *testing.T) {
	svc, mock, _ := newService(t)
	athlete := principal("u1", policy.RoleAthlete, "g7")

	expectPlanVisible(mock)
	mock.ExpectExec("INSERT INTO subscriptions").WillReturnResult(sqlmock.NewResult(0, 1))

	sub, err := svc.CreateSubscription(context.Background(), athlete, SubscriptionInput{PlanID: "sp1"})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionIncomplete, sub.Status)
	require.NotNil(t, sub.OwnerUserID)
	assert.Equal(t, "u1", *sub.OwnerUserID)
	assert.Nil(t, sub.OwnerGymID)
	assert.Equal(t, fixedNow, sub.StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionOwners(t *testing.T) {
	cases := []struct {
		name   string
		p      policy.Principal
		in     SubscriptionInput
		gym    *string
		user   *string
		status int
	}{
		{"athlete for someone else", principal("u1", policy.RoleAthlete, "g7"), SubscriptionInput{OwnerUserID: ptr("u2")}, nil, nil, http.StatusForbidden},
		{"coach for the gym", principal("c1", policy.RoleCoach, "g7"), SubscriptionInput{OwnerGymID: ptr("g7")}, nil, nil, http.StatusForbidden},
		{"admin for another gym", principal("a1", policy.RoleGymAdmin, "g7"), SubscriptionInput{OwnerGymID: ptr("g8")}, nil, nil, http.StatusForbidden},
		{"admin for own gym", principal("a1", policy.RoleGymAdmin, "g7"), SubscriptionInput{OwnerGymID: ptr("g7")}, ptr("g7"), nil, 0},
		{"super admin without owner", principal("s1", policy.RoleSuperAdmin, ""), SubscriptionInput{OwnerGymID: ptr("")}, nil, nil, http.StatusBadRequest},
		{"super admin for a user", principal("s1", policy.RoleSuperAdmin, ""), SubscriptionInput{OwnerUserID: ptr("u2")}, nil, ptr("u2"), 0},
		{"blank owner means self", principal("u1", policy.RoleAthlete, "g7"), SubscriptionInput{OwnerUserID: ptr("")}, nil, ptr("u1"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gym, user, err := subscriptionOwners(tc.p, tc.in)
			if tc.status != 0 {
				requireStatus(t, err, tc.status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.gym, gym)
			assert.Equal(t, tc.user, user)
		})
	}
}

func TestOnlySuperAdminDeletesSubscriptions(t *testing.T) {
	svc, mock, _ := newService(t)
	admin := principal("a1", policy.RoleGymAdmin, "g7")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.owner_gym_id::text AS gym_id, t.owner_user_id::text AS owner_id")).
		WillReturnRows(rows("gym_id,owner_id,visible", "g7", nil, true))

	err := svc.DeleteSubscription(context.Background(), admin, "sub1")
	requireStatus(t, err, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardBadgeTwiceConflicts(t *testing.T) {
	svc, mock, _ := newService(t)
	coach := principal("c1", policy.RoleCoach, "g7")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.* FROM badges t")).
		WillReturnRows(rows("id,gym_id,name,condition", "b1", nil, "First Run", "complete a run"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, gym_id::text AS gym_id FROM users WHERE id = $1")).
		WillReturnRows(rows("id,gym_id", "u1", "g7"))
	mock.ExpectExec("INSERT INTO user_badges").WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := svc.AwardUserBadge(context.Background(), coach, AwardBadge{UserID: "u1", BadgeID: "b1"})
	serr := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, "Badge already awarded", serr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
