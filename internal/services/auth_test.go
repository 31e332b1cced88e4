package services

import (
	"testing"
	"time"

	"gymcore-backend-go/internal/policy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "gymcore", AccessTTL: time.Hour}
}

func TestAccessTokenCarriesPrincipal(t *testing.T) {
	tokens := testTokens()
	want := principal("u1", policy.RoleCoach, "g7")

	signed, exp, err := tokens.CreateAccessToken(want)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	got, err := tokens.Principal(signed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenWithoutGymHasNoGym(t *testing.T) {
	tokens := testTokens()
	signed, _, err := tokens.CreateAccessToken(policy.Principal{ID: "s1", Role: policy.RoleSuperAdmin})
	require.NoError(t, err)

	got, err := tokens.Principal(signed)
	require.NoError(t, err)
	assert.Nil(t, got.GymID)
	assert.True(t, got.IsSuperAdmin())
}

func TestPrincipalRejectsBadTokens(t *testing.T) {
	tokens := testTokens()
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{"iss": "gymcore", "sub": "u1", "typ": "access", "role": "athlete", "exp": exp}
	}

	wrongIssuer := valid()
	wrongIssuer["iss"] = "elsewhere"
	refresh := valid()
	refresh["typ"] = "refresh"
	unknownRole := valid()
	unknownRole["role"] = "owner"
	expired := valid()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	noSubject := valid()
	delete(noSubject, "sub")

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(valid(), "other-secret"),
		"wrong issuer": sign(wrongIssuer, "test-secret"),
		"refresh type": sign(refresh, "test-secret"),
		"unknown role": sign(unknownRole, "test-secret"),
		"expired":      sign(expired, "test-secret"),
		"no subject":   sign(noSubject, "test-secret"),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Principal(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
