package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points XDG lookups at a temp dir and clears every variable the
// loader reads so the host environment cannot leak into assertions.
func isolateEnv(t *testing.T) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	var names []string
	for _, spec := range legacyEnvSpecs() {
		names = append(names, spec.Name)
	}
	for _, spec := range getEnvSpecs() {
		names = append(names, spec.Name)
	}
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, value) })
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ModeProduction, cfg.Mode)
		assert.False(t, cfg.IsDevelopment())

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 3001, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
		assert.False(t, cfg.Server.TrustProxy)

		assert.Empty(t, cfg.Upstream.APIKey)
		assert.Equal(t, "https://api.anthropic.com", cfg.Upstream.BaseURL)
		assert.Equal(t, 2000, cfg.Upstream.MaxTokens)
		assert.NotEmpty(t, cfg.Upstream.Model)

		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)

		assert.Equal(t, 20, cfg.RateLimit.Requests)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepInterval)

		assert.Equal(t, 50000, cfg.Limits.MaxPromptChars)
		assert.Equal(t, int64(1<<20), cfg.Limits.MaxBodyBytes)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		isolateEnv(t)

		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "127.0.0.1",
			},
			"logging": map[string]any{
				"level": "debug",
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("PrefixedEnvOverrides", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("GENPROXY_PORT", "3000")
		t.Setenv("GENPROXY_LOG_LEVEL", "warn")
		t.Setenv("GENPROXY_METRICS_ENABLED", "false")
		t.Setenv("GENPROXY_API_KEY", "  sk-test  ")
		t.Setenv("GENPROXY_RATE_LIMIT_WINDOW", "30s")
		t.Setenv("GENPROXY_TRUST_PROXY", "true")

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, "sk-test", cfg.Upstream.APIKey)
		assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
		assert.True(t, cfg.Server.TrustProxy)
	})

	t.Run("LegacyEnvNames", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "sk-legacy")
		t.Setenv("PORT", "8081")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example.com/, https://b.example.com")
		t.Setenv("NODE_ENV", "development")

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, "sk-legacy", cfg.Upstream.APIKey)
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
		assert.True(t, cfg.IsDevelopment())
	})

	t.Run("PrefixedWinsOverLegacy", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("PORT", "8081")
		t.Setenv("GENPROXY_PORT", "8082")

		cfg, err := Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 8082, cfg.Server.Port)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("GENPROXY_PORT", "4000")

		cfg, err := Load(ctx, map[string]any{
			"server": map[string]any{"port": 5000},
		})
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Server.Port)
	})

	t.Run("UnknownModeRunsAsProduction", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("NODE_ENV", "staging")

		cfg, err := Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, ModeProduction, cfg.Mode)
	})
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsYAMLAndEnvWins", func(t *testing.T) {
		isolateEnv(t)

		path := filepath.Join(t.TempDir(), "genproxy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
mode: development
server:
  port: 7000
  trust_proxy: true
cors:
  allowed_origins:
    - https://app.example.com/
rate_limit:
  requests: 5
  window: 10s
`), 0o600))

		t.Setenv("GENPROXY_ALLOWED_ORIGINS", "*")

		cfg, err := LoadFile(ctx, path)
		require.NoError(t, err)

		assert.Equal(t, ModeDevelopment, cfg.Mode)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.True(t, cfg.Server.TrustProxy)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, 5, cfg.RateLimit.Requests)
		assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepInterval)
		assert.Equal(t, path, ConfigFileUsed())
	})

	t.Run("MissingExplicitFileFails", func(t *testing.T) {
		isolateEnv(t)

		_, err := LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("InvalidValuesFailValidation", func(t *testing.T) {
		isolateEnv(t)

		_, err := Load(ctx, map[string]any{
			"rate_limit": map[string]any{"requests": 0},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")

		_, err = Load(ctx, map[string]any{
			"logging": map[string]any{"level": "loud"},
		})
		require.Error(t, err)
	})
}

func TestGetConfig(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
	assert.Equal(t, cfg.Logging.Level, retrieved.Logging.Level)
}

func TestEnvSpecs(t *testing.T) {
	isolateEnv(t)
	_, err := Load(context.Background())
	require.NoError(t, err)

	envVarNames := make(map[string]bool)
	for _, spec := range getEnvSpecs() {
		envVarNames[spec.Name] = true
	}

	assert.True(t, envVarNames["GENPROXY_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["GENPROXY_PORT"], "PORT env var must be mapped")
	assert.True(t, envVarNames["GENPROXY_HOST"], "HOST env var must be mapped")
	assert.True(t, envVarNames["GENPROXY_API_KEY"], "API_KEY env var must be mapped")
	assert.True(t, envVarNames["GENPROXY_ALLOWED_ORIGINS"], "ALLOWED_ORIGINS env var must be mapped")
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := &Config{AdminToken: "admin"}
	cfg.Upstream.APIKey = "sk-secret"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Upstream.APIKey)
	assert.Equal(t, "********", red.AdminToken)
	assert.Equal(t, "sk-secret", cfg.Upstream.APIKey)

	assert.Empty(t, (&Config{}).Redacted().Upstream.APIKey)
}
