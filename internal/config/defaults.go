package config

import (
	"time"

	"github.com/namelens/genproxy/internal/ailink"
	"github.com/namelens/genproxy/internal/ailink/driver/anthropic"
	"github.com/namelens/genproxy/internal/core/admission"
)

// Defaults returns the built-in configuration layer as a nested map keyed the
// same way as the YAML file.
func Defaults() map[string]any {
	return map[string]any{
		"mode": ModeProduction,
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             3001,
			"read_timeout":     "30s",
			"write_timeout":    "120s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "5s",
			"trust_proxy":      false,
		},
		"upstream": map[string]any{
			"api_key":    "",
			"base_url":   anthropic.DefaultBaseURL,
			"model":      ailink.DefaultModel,
			"max_tokens": ailink.DefaultMaxTokens,
			"timeout":    "0s",
		},
		"cors": map[string]any{
			"allowed_origins": []string{"http://localhost:3000"},
		},
		"rate_limit": map[string]any{
			"requests":       admission.DefaultLimit,
			"window":         admission.DefaultWindow.String(),
			"sweep_interval": admission.DefaultSweepInterval.String(),
		},
		"limits": map[string]any{
			"max_prompt_chars": 50000,
			"max_body_bytes":   int64(1 << 20),
		},
		"logging": map[string]any{
			"level": "info",
		},
		"metrics": map[string]any{
			"enabled": true,
			"port":    9090,
		},
		"admin_token": "",
	}
}

// DefaultShutdownTimeout bounds graceful shutdown when config is unavailable.
const DefaultShutdownTimeout = 5 * time.Second
