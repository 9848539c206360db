package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DB_DATABASE", "builder.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "claude", cfg.GeneratorCommand)
	assert.Equal(t, []string{"--print", "--dangerously-skip-permissions"}, cfg.GeneratorArgs)
	assert.Equal(t, 30*time.Minute, cfg.GeneratorTimeout)
	assert.Equal(t, 24*time.Hour, cfg.PreviewTTL)
	assert.False(t, cfg.FlyEnabled)
	assert.Equal(t, 2, cfg.MaxBrowsers)
}

func TestLoad_FromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "builder.env")
	content := "DB_DATABASE=from-file.db\nGENERATOR_TIMEOUT=90s\nFLY_ENABLED=true\nFLY_API_TOKEN=secret\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("ENV_FILE", envFile)
	for _, key := range []string{"DB_DATABASE", "GENERATOR_TIMEOUT", "FLY_ENABLED", "FLY_API_TOKEN"} {
		unsetForTest(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file.db", cfg.DBDatabase)
	assert.Equal(t, 90*time.Second, cfg.GeneratorTimeout)
	assert.True(t, cfg.FlyEnabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBType:           "sqlite",
			DBDatabase:       "builder.db",
			WorkspaceRoot:    "/tmp/ws",
			GeneratorCommand: "claude",
			MaxBrowsers:      1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid sqlite", func(c *Config) {}, ""},
		{"missing database", func(c *Config) { c.DBDatabase = "" }, "DB_DATABASE is required"},
		{"postgres without user", func(c *Config) { c.DBType = "postgres" }, "DB_USER is required"},
		{"fly without token", func(c *Config) { c.FlyEnabled = true }, "FLY_API_TOKEN is required"},
		{"half authorizer", func(c *Config) { c.AuthzURL = "http://authz" }, "must be set together"},
		{"no browsers", func(c *Config) { c.MaxBrowsers = 0 }, "MAX_BROWSERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("BUILDER_TEST_INT", "abc")
	t.Setenv("BUILDER_TEST_BOOL", "maybe")
	t.Setenv("BUILDER_TEST_DURATION", "soon")

	assert.Equal(t, 7, getEnvAsInt("BUILDER_TEST_INT", 7))
	assert.True(t, getEnvAsBool("BUILDER_TEST_BOOL", true))
	assert.Equal(t, time.Minute, getEnvAsDuration("BUILDER_TEST_DURATION", time.Minute))
}

// unsetForTest clears a variable and restores it when the test ends
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}
