package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Security.MaxLoginFail)
	assert.Equal(t, 30*time.Second, cfg.Security.LockDuration)
	assert.Equal(t, 5, cfg.Security.AuthRateLimit)
	assert.Equal(t, 30*time.Minute, cfg.Security.ActionTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, "marketgate", cfg.Database.Name)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "tooshort")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SecurityOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_LOGIN_FAIL", "3")
	t.Setenv("LOCK_DURATION", "2m")
	t.Setenv("AUTH_RATE_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Security.MaxLoginFail)
	assert.Equal(t, 2*time.Minute, cfg.Security.LockDuration)
	assert.Equal(t, 10, cfg.Security.AuthRateLimit)
}

func TestLoad_InvalidLockoutPolicy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_LOGIN_FAIL", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "pw", Name: "marketgate", SSLMode: "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=marketgate")
}
