package services

import (
	"errors"
	"time"

	"gymcore-backend-go/internal/policy"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService reads the access tokens issued by the identity provider.
// Tokens carry the principal as sub, role and gym_id claims.
type TokenService struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

// CreateAccessToken signs a token for p. Used by operator tooling and tests.
func (t TokenService) CreateAccessToken(p policy.Principal) (string, int64, error) {
	now := time.Now().UTC()
	exp := now.Add(t.AccessTTL)
	claims := jwt.MapClaims{
		"iss":  t.Issuer,
		"sub":  p.ID,
		"typ":  "access",
		"role": string(p.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	if p.HasGym() {
		claims["gym_id"] = *p.GymID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return token, claims, err
}

// Principal validates tokenStr and extracts the caller it names.
func (t TokenService) Principal(tokenStr string) (policy.Principal, error) {
	token, claims, err := t.ParseToken(tokenStr)
	if err != nil || !token.Valid {
		return policy.Principal{}, ErrInvalidToken
	}
	if claims["typ"] != "access" {
		return policy.Principal{}, ErrInvalidToken
	}
	userID, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	role, ok := policy.ParseRole(rawRole)
	if userID == "" || !ok {
		return policy.Principal{}, ErrInvalidToken
	}
	p := policy.Principal{ID: userID, Role: role}
	if gym, _ := claims["gym_id"].(string); gym != "" {
		p.GymID = &gym
	}
	return p, nil
}
