package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "base", cfg.Tier)
	assert.True(t, cfg.RequireOrganizerSignatureOnCheckIn)
	assert.False(t, cfg.AirdropEnabled)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_TIER", "fast")
	t.Setenv("REQUIRE_ORGANIZER_SIGNATURE_ON_CHECKIN", "false")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fast", cfg.Tier)
	assert.False(t, cfg.RequireOrganizerSignatureOnCheckIn)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9090\nAIRDROP_ENABLED=true\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("APP_PORT")
		os.Unsetenv("AIRDROP_ENABLED")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.AirdropEnabled)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load("")
	assert.ErrorContains(t, err, "DB_DRIVER")
}
