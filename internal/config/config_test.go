package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gym")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_RETENTION_DAYS", "30")
	t.Setenv("CORS_ORIGINS", " http://a.test, ,http://b.test ")

	cfg := Load()
	assert.Equal(t, "gymcore", cfg.JWTIssuer)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 7, cfg.LogRetentionDays)
	assert.Equal(t, 80, cfg.CompletionThresholdPercent)
	assert.Equal(t, 30, cfg.LeaderboardTTLSeconds)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CorsOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadPanicsWithoutSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gym")
	t.Setenv("JWT_SECRET", "")
	assert.PanicsWithValue(t, "missing env var: JWT_SECRET", func() { Load() })
}

func TestEnvOrIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LEADERBOARD_TTL_SECONDS", "soon")
	assert.Equal(t, 30, envOrInt("LEADERBOARD_TTL_SECONDS", 30))
}
