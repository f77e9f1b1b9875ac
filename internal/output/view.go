package output

import (
	"github.com/namelens/genproxy/internal/config"
)

// configView mirrors config.Config with durations as strings, so JSON and
// YAML output can be fed back as a config file.
type configView struct {
	Mode       string         `json:"mode" yaml:"mode"`
	Server     map[string]any `json:"server" yaml:"server"`
	Upstream   map[string]any `json:"upstream" yaml:"upstream"`
	CORS       map[string]any `json:"cors" yaml:"cors"`
	RateLimit  map[string]any `json:"rate_limit" yaml:"rate_limit"`
	Limits     map[string]any `json:"limits" yaml:"limits"`
	Logging    map[string]any `json:"logging" yaml:"logging"`
	Metrics    map[string]any `json:"metrics" yaml:"metrics"`
	AdminToken string         `json:"admin_token,omitempty" yaml:"admin_token,omitempty"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		Mode: cfg.Mode,
		Server: map[string]any{
			"host":             cfg.Server.Host,
			"port":             cfg.Server.Port,
			"read_timeout":     cfg.Server.ReadTimeout.String(),
			"write_timeout":    cfg.Server.WriteTimeout.String(),
			"idle_timeout":     cfg.Server.IdleTimeout.String(),
			"shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
			"trust_proxy":      cfg.Server.TrustProxy,
		},
		Upstream: map[string]any{
			"api_key":    cfg.Upstream.APIKey,
			"base_url":   cfg.Upstream.BaseURL,
			"model":      cfg.Upstream.Model,
			"max_tokens": cfg.Upstream.MaxTokens,
			"timeout":    cfg.Upstream.Timeout.String(),
		},
		CORS: map[string]any{
			"allowed_origins": cfg.CORS.AllowedOrigins,
		},
		RateLimit: map[string]any{
			"requests":       cfg.RateLimit.Requests,
			"window":         cfg.RateLimit.Window.String(),
			"sweep_interval": cfg.RateLimit.SweepInterval.String(),
		},
		Limits: map[string]any{
			"max_prompt_chars": cfg.Limits.MaxPromptChars,
			"max_body_bytes":   cfg.Limits.MaxBodyBytes,
		},
		Logging: map[string]any{
			"level": cfg.Logging.Level,
		},
		Metrics: map[string]any{
			"enabled": cfg.Metrics.Enabled,
			"port":    cfg.Metrics.Port,
		},
		AdminToken: cfg.AdminToken,
	}
}
