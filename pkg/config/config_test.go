package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "./tmp/data.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, "development-secret", cfg.JWTSecret)
	assert.True(t, cfg.DatabaseDebug)
	assert.Equal(t, 4000, cfg.ServerPort)
}

func TestNewTestEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("JWT_SECRET", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 0, cfg.ServerPort)
}

func TestNewPortOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "9090")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestNewProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestNewProductionEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DATABASE_FILE_PATH", "/data/library.sqlite")
	t.Setenv("IMAGE_DIRECTORY", "/data/covers")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/data/library.sqlite", cfg.DatabaseFilePath)
	assert.Equal(t, "/data/covers", cfg.ImageDir)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
}
