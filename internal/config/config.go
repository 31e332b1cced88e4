package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL                string
	JWTSecret                  string
	JWTIssuer                  string
	Port                       string
	CorsOrigins                []string
	RedisURL                   string
	LeaderboardTTLSeconds      int
	LogDir                     string
	LogRetentionDays           int
	LogLevel                   string
	CompletionThresholdPercent int
}

func Load() Config {
	return Config{
		DatabaseURL:                mustEnv("DATABASE_URL"),
		JWTSecret:                  mustEnv("JWT_SECRET"),
		JWTIssuer:                  envOr("JWT_ISSUER", "gymcore"),
		Port:                       envOr("PORT", "8080"),
		CorsOrigins:                parseCSV(envOr("CORS_ORIGINS", "")),
		RedisURL:                   envOr("REDIS_URL", ""),
		LeaderboardTTLSeconds:      envOrInt("LEADERBOARD_TTL_SECONDS", 30),
		LogDir:                     envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:           clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 7),
		LogLevel:                   envOr("LOG_LEVEL", "info"),
		CompletionThresholdPercent: clamp(envOrInt("COMPLETION_THRESHOLD_PERCENT", 80), 1, 100),
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
