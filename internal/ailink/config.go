package ailink

import (
	"time"

	"github.com/namelens/genproxy/internal/ailink/driver/anthropic"
)

// Config defines the upstream generation provider settings.
type Config struct {
	// APIKey is the server-held credential. It is never logged or returned
	// to clients.
	APIKey    string        `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	Model     string        `mapstructure:"model" yaml:"model" json:"model" validate:"required"`
	MaxTokens int           `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens" validate:"gt=0"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout" validate:"gte=0"`
}

// NewGeneratorFromConfig builds the Anthropic-backed generator.
func NewGeneratorFromConfig(cfg Config) *Generator {
	client := anthropic.NewClient(cfg.BaseURL, cfg.APIKey)
	client.Timeout = cfg.Timeout
	return NewGenerator(client, cfg.Model, cfg.MaxTokens)
}
