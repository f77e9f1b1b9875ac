// Package config loads genproxy configuration in three layers: built-in
// defaults, an optional YAML file (explicit or discovered via the app
// identity's XDG config paths), then environment variables and runtime
// overrides. The merged result is decoded with mapstructure and checked with
// validator.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/namelens/genproxy/internal/appid"
)

var (
	appConfig      *Config
	configFileUsed string
	configMu       sync.RWMutex
	appIdentity    *appidentity.Identity

	validate = validator.New()
)

// EnvVarSpec maps an environment variable onto a config path.
type EnvVarSpec = gfconfig.EnvVarSpec

const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Load loads configuration, discovering the user config file if present.
// It is safe to call repeatedly, e.g. on reload.
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	return LoadFile(ctx, "", runtimeOverrides...)
}

// LoadFile loads configuration from path. An empty path falls back to the
// first existing file among the XDG config paths; an explicit path must exist.
func LoadFile(ctx context.Context, path string, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	v := viper.New()
	for key, value := range flatten("", Defaults()) {
		v.SetDefault(key, value)
	}

	if strings.TrimSpace(path) == "" {
		path = discoverConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Legacy names first so prefixed variables win when both are set.
	for _, specs := range [][]EnvVarSpec{legacyEnvSpecs(), getEnvSpecs()} {
		envOverrides, err := gfconfig.LoadEnvOverrides(specs)
		if err != nil {
			return nil, fmt.Errorf("failed to load environment overrides: %w", err)
		}
		applyOverrides(v, envOverrides)
	}
	for _, overrides := range runtimeOverrides {
		applyOverrides(v, overrides)
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = cfg
	configFileUsed = path
	configMu.Unlock()

	return cfg, nil
}

func decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Mode = normalizeMode(cfg.Mode)
	cfg.Upstream.APIKey = strings.TrimSpace(cfg.Upstream.APIKey)
	cfg.Upstream.BaseURL = strings.TrimSpace(cfg.Upstream.BaseURL)
	cfg.CORS.AllowedOrigins = normalizeOrigins(cfg.CORS.AllowedOrigins)
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOverrides writes overrides into viper's override layer, which wins
// over file and default values regardless of their types.
func applyOverrides(v *viper.Viper, overrides map[string]any) {
	for key, value := range flatten("", overrides) {
		v.Set(key, value)
	}
}

func flatten(prefix string, in map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// GetConfig returns the most recently loaded configuration.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// ConfigFileUsed returns the file the last Load read, or "" for none.
func ConfigFileUsed() string {
	configMu.RLock()
	defer configMu.RUnlock()
	return configFileUsed
}

func discoverConfigFile() string {
	for _, dir := range getUserConfigPaths() {
		for _, name := range []string{"config.yaml", "config.yml"} {
			candidate := dir
			if filepath.Ext(dir) == "" {
				candidate = filepath.Join(dir, name)
			}
			if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func getUserConfigPaths() []string {
	configName, binaryName := appNamesForPaths()

	var legacyNames []string
	if binaryName != configName {
		legacyNames = append(legacyNames, binaryName)
	}
	return gfconfig.GetAppConfigPaths(configName, legacyNames...)
}

func appNamesForPaths() (configName string, binaryName string) {
	configName = "genproxy"
	binaryName = "genproxy"
	if appIdentity == nil {
		return configName, binaryName
	}
	if strings.TrimSpace(appIdentity.ConfigName) != "" {
		configName = appIdentity.ConfigName
	}
	if strings.TrimSpace(appIdentity.BinaryName) != "" {
		binaryName = appIdentity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// legacyEnvSpecs maps the unprefixed variable names common to deployments of
// this kind of proxy.
func legacyEnvSpecs() []EnvVarSpec {
	return []EnvVarSpec{
		{Name: "ANTHROPIC_API_KEY", Path: []string{"upstream", "api_key"}, Type: EnvString},
		{Name: "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: "ALLOWED_ORIGINS", Path: []string{"cors", "allowed_origins"}, Type: EnvString},
		{Name: "NODE_ENV", Path: []string{"mode"}, Type: EnvString},
	}
}

// getEnvSpecs maps {PREFIX}{NAME} variables to config paths.
func getEnvSpecs() []EnvVarSpec {
	prefix := "GENPROXY_"
	if appIdentity != nil && appIdentity.EnvPrefix != "" {
		prefix = appIdentity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	return []EnvVarSpec{
		{Name: prefix + "ENV", Path: []string{"mode"}, Type: EnvString},

		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Durations stay strings for the mapstructure hook.
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: prefix + "TRUST_PROXY", Path: []string{"server", "trust_proxy"}, Type: EnvBool},

		{Name: prefix + "API_KEY", Path: []string{"upstream", "api_key"}, Type: EnvString},
		{Name: prefix + "BASE_URL", Path: []string{"upstream", "base_url"}, Type: EnvString},
		{Name: prefix + "MODEL", Path: []string{"upstream", "model"}, Type: EnvString},
		{Name: prefix + "MAX_TOKENS", Path: []string{"upstream", "max_tokens"}, Type: EnvInt},
		{Name: prefix + "UPSTREAM_TIMEOUT", Path: []string{"upstream", "timeout"}, Type: EnvString},

		{Name: prefix + "ALLOWED_ORIGINS", Path: []string{"cors", "allowed_origins"}, Type: EnvString},

		{Name: prefix + "RATE_LIMIT_REQUESTS", Path: []string{"rate_limit", "requests"}, Type: EnvInt},
		{Name: prefix + "RATE_LIMIT_WINDOW", Path: []string{"rate_limit", "window"}, Type: EnvString},
		{Name: prefix + "RATE_LIMIT_SWEEP_INTERVAL", Path: []string{"rate_limit", "sweep_interval"}, Type: EnvString},

		{Name: prefix + "MAX_PROMPT_CHARS", Path: []string{"limits", "max_prompt_chars"}, Type: EnvInt},
		{Name: prefix + "MAX_BODY_BYTES", Path: []string{"limits", "max_body_bytes"}, Type: EnvInt},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},

		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		{Name: prefix + "ADMIN_TOKEN", Path: []string{"admin_token"}, Type: EnvString},
	}
}
