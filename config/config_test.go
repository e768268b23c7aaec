package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 5*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, "info", cfg.LoggingConfig.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("JWT_REFRESH_TTL", "2h")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 2*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, "console", cfg.LoggingConfig.Format)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env: "development", Port: "8080", DatabaseURL: "postgres://x",
			JWTSecret: defaultJWTSecret, JWTAccessTTL: time.Minute, JWTRefreshTTL: time.Hour,
			PageSize: 10, MaxPageSize: 100,
		}
	}

	c := valid()
	require.NoError(t, c.Validate())

	c = valid()
	c.DatabaseURL = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.MaxPageSize = 5
	assert.Error(t, c.Validate())

	c = valid()
	c.Env = "production"
	assert.Error(t, c.Validate(), "default secret in production")

	c.JWTSecret = "short-but-not-default"
	assert.Error(t, c.Validate(), "short secret in production")

	c.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, c.Validate())
}

func TestNewLogger_LevelAndJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "warn", line["level"])
}
