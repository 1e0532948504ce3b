package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TTL", "168h")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "postgres")

	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_PER_MINUTE")

	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("DB_DRIVER", "sqlite")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}
