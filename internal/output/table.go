package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/namelens/genproxy/internal/config"
)

// TableFormatter renders configuration as a key/value table.
type TableFormatter struct{}

func (f *TableFormatter) FormatConfig(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Key", "Value"})

	for _, row := range configRows(cfg) {
		t.AppendRow(table.Row{row[0], row[1]})
	}

	t.AppendFooter(table.Row{"mode", cfg.Mode})
	return t.Render(), nil
}

func configRows(cfg *config.Config) [][2]string {
	origins := strings.Join(cfg.CORS.AllowedOrigins, ", ")
	if origins == "" {
		origins = "(none)"
	}
	apiKey := cfg.Upstream.APIKey
	if apiKey == "" {
		apiKey = "(not set)"
	}

	return [][2]string{
		{"server.host", cfg.Server.Host},
		{"server.port", fmt.Sprintf("%d", cfg.Server.Port)},
		{"server.read_timeout", cfg.Server.ReadTimeout.String()},
		{"server.write_timeout", cfg.Server.WriteTimeout.String()},
		{"server.idle_timeout", cfg.Server.IdleTimeout.String()},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout.String()},
		{"server.trust_proxy", fmt.Sprintf("%t", cfg.Server.TrustProxy)},
		{"upstream.api_key", apiKey},
		{"upstream.base_url", cfg.Upstream.BaseURL},
		{"upstream.model", cfg.Upstream.Model},
		{"upstream.max_tokens", fmt.Sprintf("%d", cfg.Upstream.MaxTokens)},
		{"upstream.timeout", cfg.Upstream.Timeout.String()},
		{"cors.allowed_origins", origins},
		{"rate_limit.requests", fmt.Sprintf("%d", cfg.RateLimit.Requests)},
		{"rate_limit.window", cfg.RateLimit.Window.String()},
		{"rate_limit.sweep_interval", cfg.RateLimit.SweepInterval.String()},
		{"limits.max_prompt_chars", fmt.Sprintf("%d", cfg.Limits.MaxPromptChars)},
		{"limits.max_body_bytes", fmt.Sprintf("%d", cfg.Limits.MaxBodyBytes)},
		{"logging.level", cfg.Logging.Level},
		{"metrics.enabled", fmt.Sprintf("%t", cfg.Metrics.Enabled)},
		{"metrics.port", fmt.Sprintf("%d", cfg.Metrics.Port)},
	}
}
