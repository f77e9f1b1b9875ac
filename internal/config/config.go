package config

import (
	"strings"
	"time"

	"github.com/namelens/genproxy/internal/ailink"
)

// Run modes. Only development exposes error details to clients.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeTest        = "test"
)

// Config represents the complete application configuration, assembled from
// built-in defaults, an optional YAML file and environment variables.
type Config struct {
	Mode       string          `mapstructure:"mode" yaml:"mode" json:"mode"`
	Server     ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Upstream   ailink.Config   `mapstructure:"upstream" yaml:"upstream" json:"upstream"`
	CORS       CORSConfig      `mapstructure:"cors" yaml:"cors" json:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	Limits     LimitsConfig    `mapstructure:"limits" yaml:"limits" json:"limits"`
	Logging    LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
	Metrics    MetricsConfig   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	AdminToken string          `mapstructure:"admin_token" yaml:"admin_token" json:"admin_token"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host" json:"host"`
	Port            int           `mapstructure:"port" yaml:"port" json:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`

	// TrustProxy derives client IPs from X-Real-IP / X-Forwarded-For. Enable
	// only behind a proxy that sets those headers.
	TrustProxy bool `mapstructure:"trust_proxy" yaml:"trust_proxy" json:"trust_proxy"`
}

// CORSConfig holds the browser origin allow-list. "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
}

// RateLimitConfig controls the per-IP admission gate.
type RateLimitConfig struct {
	Requests      int           `mapstructure:"requests" yaml:"requests" json:"requests" validate:"gt=0"`
	Window        time.Duration `mapstructure:"window" yaml:"window" json:"window" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval" json:"sweep_interval" validate:"gt=0"`
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	MaxPromptChars int   `mapstructure:"max_prompt_chars" yaml:"max_prompt_chars" json:"max_prompt_chars" validate:"gt=0"`
	MaxBodyBytes   int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=trace debug info warn error"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Port is the dedicated exporter port; /metrics on the main server
	// proxies it.
	Port int `mapstructure:"port" yaml:"port" json:"port" validate:"gte=0,lte=65535"`
}

// IsDevelopment reports whether error details may be returned to clients.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Mode == ModeDevelopment
}

// Redacted returns a copy safe to print, with secrets masked.
func (c *Config) Redacted() Config {
	out := *c
	out.Upstream.APIKey = redact(c.Upstream.APIKey)
	out.AdminToken = redact(c.AdminToken)
	out.CORS.AllowedOrigins = append([]string(nil), c.CORS.AllowedOrigins...)
	return out
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// normalizeMode maps free-form environment names onto the known modes.
// Anything unrecognized runs as production.
func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "development", "dev":
		return ModeDevelopment
	case "test", "testing":
		return ModeTest
	default:
		return ModeProduction
	}
}

// normalizeOrigins trims whitespace and trailing slashes and drops empties.
func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			part = strings.TrimRight(strings.TrimSpace(part), "/")
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
