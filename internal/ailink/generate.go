package ailink

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/namelens/genproxy/internal/ailink/content"
	"github.com/namelens/genproxy/internal/ailink/driver"
	"github.com/namelens/genproxy/internal/metrics"
	"github.com/namelens/genproxy/internal/observability"
)

const (
	// DefaultModel is the model identifier sent upstream.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultMaxTokens is the output token ceiling sent upstream.
	DefaultMaxTokens = 2000
)

// Generator forwards prompts to a driver with a fixed model and token ceiling.
type Generator struct {
	Driver    driver.Driver
	Model     string
	MaxTokens int
}

// NewGenerator returns a generator with defaults applied.
func NewGenerator(d driver.Driver, model string, maxTokens int) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Generator{Driver: d, Model: model, MaxTokens: maxTokens}
}

// Configured reports whether the underlying driver holds a credential.
func (g *Generator) Configured() bool {
	return g != nil && g.Driver != nil && g.Driver.Configured()
}

// Generate sends prompt as the sole user message and returns the generated
// text verbatim. Failures are returned as *GenerateError.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", ConfigMissingError()
	}

	start := time.Now()
	resp, err := g.Driver.Complete(ctx, &driver.Request{
		Model:     g.Model,
		MaxTokens: g.MaxTokens,
		Messages:  []content.Message{content.UserText(prompt)},
	})
	duration := time.Since(start)

	if err != nil {
		mapped := mapProviderError(err)
		metrics.RecordUpstreamRequest(g.Driver.Name(), mapped.Code, duration)
		logUpstreamFailure(g.Driver.Name(), mapped, duration)
		return "", mapped
	}

	text, ok := resp.Text()
	if !ok {
		mapped := &GenerateError{Code: CodeInternal, Message: msgUnexpectedFormat, StatusCode: http.StatusInternalServerError, Details: "response has no text block"}
		metrics.RecordUpstreamRequest(g.Driver.Name(), mapped.Code, duration)
		logUpstreamFailure(g.Driver.Name(), mapped, duration)
		return "", mapped
	}

	metrics.RecordUpstreamRequest(g.Driver.Name(), "success", duration)
	if logger := observability.ServerLogger; logger != nil {
		fields := []zap.Field{
			zap.String("provider", g.Driver.Name()),
			zap.String("model", g.Model),
			zap.Duration("duration", duration),
		}
		if resp.Usage != nil {
			fields = append(fields,
				zap.Int("input_tokens", resp.Usage.InputTokens),
				zap.Int("output_tokens", resp.Usage.OutputTokens))
		}
		logger.Debug("Upstream generation completed", fields...)
	}

	return text, nil
}

func logUpstreamFailure(provider string, gerr *GenerateError, duration time.Duration) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}
	logger.Warn("Upstream generation failed",
		zap.String("provider", provider),
		zap.String("code", gerr.Code),
		zap.Int("status", gerr.HTTPStatus()),
		zap.String("details", gerr.Details),
		zap.Duration("duration", duration))
}
